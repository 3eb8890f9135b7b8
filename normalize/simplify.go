package normalize

import (
	"github.com/cespare/xxhash/v2"
	"github.com/mantisdb/planner/predicate"
)

// Simplify flattens nested like-kind And/Or nodes, drops True from
// conjunctions and False from disjunctions, collapses absorbers, and
// deduplicates children by canonical key (spec.md §4.1 Simplification).
func Simplify(p *predicate.Predicate) *predicate.Predicate {
	switch p.Kind {
	case predicate.KindNot:
		return predicate.Not(Simplify(p.Inner))
	case predicate.KindAnd:
		return simplifyAssoc(p, predicate.KindAnd, predicate.KindFalse, predicate.KindTrue)
	case predicate.KindOr:
		return simplifyAssoc(p, predicate.KindOr, predicate.KindTrue, predicate.KindFalse)
	default:
		return p
	}
}

// simplifyAssoc simplifies an associative And/Or node. absorber is the
// short-circuiting value (False for And, True for Or); identity is the
// value dropped from the child list (True for And, False for Or).
func simplifyAssoc(p *predicate.Predicate, kind, absorber, identity predicate.Kind) *predicate.Predicate {
	var flat []*predicate.Predicate
	for _, c := range p.Children {
		sc := Simplify(c)
		if sc.Kind == absorber {
			if absorber == predicate.KindFalse {
				return predicate.False()
			}
			return predicate.True()
		}
		if sc.Kind == identity {
			continue
		}
		if sc.Kind == kind {
			flat = append(flat, sc.Children...)
		} else {
			flat = append(flat, sc)
		}
	}
	flat = dedup(flat)
	switch len(flat) {
	case 0:
		if identity == predicate.KindTrue {
			return predicate.True()
		}
		return predicate.False()
	case 1:
		return flat[0]
	default:
		if kind == predicate.KindAnd {
			return predicate.And(flat...)
		}
		return predicate.Or(flat...)
	}
}

// dedup removes structurally-equal children. The canonical string key is
// the stable, release-spanning identity (spec.md Design Notes); xxhash is
// used only as a cheap pre-filter so large candidate lists don't pay for
// O(n^2) full string comparisons before the real equality check runs.
func dedup(children []*predicate.Predicate) []*predicate.Predicate {
	seenHash := make(map[uint64][]string)
	var out []*predicate.Predicate
	for _, c := range children {
		key := c.CanonicalKey()
		h := xxhash.Sum64String(key)
		dup := false
		for _, k := range seenHash[h] {
			if k == key {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seenHash[h] = append(seenHash[h], key)
		out = append(out, c)
	}
	return out
}
