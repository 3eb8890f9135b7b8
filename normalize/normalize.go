// Package normalize converts predicate trees to NNF, DNF, and CNF, with
// explosion protection (spec.md §4.1).
package normalize

import (
	"github.com/mantisdb/planner/predicate"
)

// Limits bounds DNF/CNF distribution. Zero values fall back to Defaults.
type Limits struct {
	MaxTerms int
	MaxDepth int
}

// Defaults matches spec.md §4.1's defaults.
var Defaults = Limits{MaxTerms: 100, MaxDepth: 50}

func (l Limits) orDefaults() Limits {
	out := l
	if out.MaxTerms <= 0 {
		out.MaxTerms = Defaults.MaxTerms
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = Defaults.MaxDepth
	}
	return out
}

// ExplosionKind identifies why distribution aborted.
type ExplosionKind int

const (
	TermLimitExceeded ExplosionKind = iota
	MaxDepthExceeded
)

// ExplosionError is returned by ToDNF/ToCNF when a budget is breached.
type ExplosionError struct {
	Kind     ExplosionKind
	Limit    int
	Observed int
}

func (e *ExplosionError) Error() string {
	switch e.Kind {
	case TermLimitExceeded:
		return "normalize: term limit exceeded"
	default:
		return "normalize: max depth exceeded"
	}
}

// NNF pushes negation to the leaves: De Morgan pushdown plus operator
// inversion where the operator has an algebraic inverse (spec.md §4.1).
func NNF(p *predicate.Predicate) *predicate.Predicate {
	return nnf(p, false)
}

// nnf recursively rewrites p under negated (whether an odd number of Nots
// are pending above this node).
func nnf(p *predicate.Predicate, negated bool) *predicate.Predicate {
	switch p.Kind {
	case predicate.KindTrue:
		if negated {
			return predicate.False()
		}
		return predicate.True()
	case predicate.KindFalse:
		if negated {
			return predicate.True()
		}
		return predicate.False()
	case predicate.KindNot:
		return nnf(p.Inner, !negated)
	case predicate.KindComparison:
		if !negated {
			return p
		}
		if inv, ok := predicate.Invert(p.Op); ok {
			n := *p
			n.Op = inv
			return &n
		}
		return predicate.Not(p)
	case predicate.KindAnd:
		children := make([]*predicate.Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = nnf(c, negated)
		}
		if negated {
			return predicate.Or(children...)
		}
		return predicate.And(children...)
	case predicate.KindOr:
		children := make([]*predicate.Predicate, len(p.Children))
		for i, c := range p.Children {
			children[i] = nnf(c, negated)
		}
		if negated {
			return predicate.And(children...)
		}
		return predicate.Or(children...)
	default:
		return p
	}
}

// ToDNF distributes an NNF predicate into disjunctive normal form:
// Or of And of literals. Returns ExplosionError if maxTerms/maxDepth is
// breached during distribution.
func ToDNF(p *predicate.Predicate, limits Limits) (*predicate.Predicate, error) {
	limits = limits.orDefaults()
	n := NNF(p)
	terms, err := distributeOr(n, limits, 0)
	if err != nil {
		return nil, err
	}
	return Simplify(predicate.Or(terms...)), nil
}

// ToCNF is the symmetric dual of ToDNF: And of Or of literals. The
// enumerator does not call it; index matching works on the analyzer's
// field conditions.
func ToCNF(p *predicate.Predicate, limits Limits) (*predicate.Predicate, error) {
	limits = limits.orDefaults()
	n := NNF(predicate.Not(p))
	terms, err := distributeOr(n, limits, 0)
	if err != nil {
		return nil, err
	}
	// De Morgan: CNF(p) = Not(DNF(Not(p))), distributed back out.
	clauses := make([]*predicate.Predicate, len(terms))
	for i, t := range terms {
		clauses[i] = NNF(predicate.Not(t))
	}
	return Simplify(predicate.And(clauses...)), nil
}

// distributeOr returns p rewritten as a flat list of conjunctive terms
// (each term itself an And of literals), via Cartesian-product
// distribution over Or children.
func distributeOr(p *predicate.Predicate, limits Limits, depth int) ([]*predicate.Predicate, error) {
	if depth > limits.MaxDepth {
		return nil, &ExplosionError{Kind: MaxDepthExceeded, Limit: limits.MaxDepth, Observed: depth}
	}
	switch p.Kind {
	case predicate.KindTrue, predicate.KindFalse, predicate.KindComparison, predicate.KindNot:
		return []*predicate.Predicate{p}, nil
	case predicate.KindOr:
		var out []*predicate.Predicate
		for _, c := range p.Children {
			sub, err := distributeOr(c, limits, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			if len(out) > limits.MaxTerms {
				return nil, &ExplosionError{Kind: TermLimitExceeded, Limit: limits.MaxTerms, Observed: len(out)}
			}
		}
		return out, nil
	case predicate.KindAnd:
		// Cartesian product of each child's OR-term list.
		product := []*predicate.Predicate{predicate.True()}
		for _, c := range p.Children {
			sub, err := distributeOr(c, limits, depth+1)
			if err != nil {
				return nil, err
			}
			var next []*predicate.Predicate
			for _, left := range product {
				for _, right := range sub {
					next = append(next, conjoin(left, right))
					if len(next) > limits.MaxTerms {
						return nil, &ExplosionError{Kind: TermLimitExceeded, Limit: limits.MaxTerms, Observed: len(next)}
					}
				}
			}
			product = next
		}
		return product, nil
	default:
		return []*predicate.Predicate{p}, nil
	}
}

func conjoin(a, b *predicate.Predicate) *predicate.Predicate {
	if a.Kind == predicate.KindTrue {
		return b
	}
	if b.Kind == predicate.KindTrue {
		return a
	}
	var children []*predicate.Predicate
	if a.Kind == predicate.KindAnd {
		children = append(children, a.Children...)
	} else {
		children = append(children, a)
	}
	if b.Kind == predicate.KindAnd {
		children = append(children, b.Children...)
	} else {
		children = append(children, b)
	}
	return predicate.And(children...)
}

// TryConvert attempts ToDNF within limits; on any ExplosionError it returns
// the original predicate unmodified and ok=false, signaling to callers
// (the enumerator) that DNF-based expansion is unavailable for this query
// (spec.md §4.1 "Tolerance policy").
func TryConvert(p *predicate.Predicate, limits Limits) (result *predicate.Predicate, ok bool) {
	dnf, err := ToDNF(p, limits)
	if err != nil {
		return p, false
	}
	return dnf, true
}
