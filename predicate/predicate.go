// Package predicate defines the algebraic predicate tree the planner
// normalizes, analyzes, and matches against indexes.
package predicate

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a comparison operator usable inside a Comparison node.
type Op string

// Supported comparison operators.
const (
	OpEquals      Op = "="
	OpNotEquals   Op = "!="
	OpLessThan    Op = "<"
	OpLessEq      Op = "<="
	OpGreaterThan Op = ">"
	OpGreaterEq   Op = ">="
	OpIsNull      Op = "IS NULL"
	OpIsNotNull   Op = "IS NOT NULL"
	OpIn          Op = "IN"
	OpContains    Op = "CONTAINS"
	OpHasPrefix   Op = "HAS PREFIX"
	OpHasSuffix   Op = "HAS SUFFIX"
	OpTextSearch  Op = "TEXT SEARCH"
	OpSpatial     Op = "SPATIAL"
	OpVectorNear  Op = "VECTOR NEAR"
)

// invertible maps an operator to its algebraic negation, when one exists.
// Contains/HasPrefix/HasSuffix/In have no single-operator inverse, so a Not
// wrapping them must stay a Not.
var invertible = map[Op]Op{
	OpEquals:      OpNotEquals,
	OpNotEquals:   OpEquals,
	OpLessThan:    OpGreaterEq,
	OpGreaterEq:   OpLessThan,
	OpLessEq:      OpGreaterThan,
	OpGreaterThan: OpLessEq,
	OpIsNull:      OpIsNotNull,
	OpIsNotNull:   OpIsNull,
}

// Invert returns the algebraic negation of op and true, or (op, false) when
// op has no single-operator inverse.
func Invert(op Op) (Op, bool) {
	inv, ok := invertible[op]
	return inv, ok
}

// Kind identifies a Predicate node's variant.
type Kind int

const (
	KindTrue Kind = iota
	KindFalse
	KindComparison
	KindNot
	KindAnd
	KindOr
)

// Predicate is the recursive logical predicate tree (spec.md §3).
//
// Children is non-empty for And/Or; simplification collapses a single-child
// And/Or to that child. Inner is set only for Not.
type Predicate struct {
	Kind     Kind
	Field    string
	Op       Op
	Value    any
	Values   []any // for OpIn
	Inner    *Predicate
	Children []*Predicate
}

// True returns the always-true predicate.
func True() *Predicate { return &Predicate{Kind: KindTrue} }

// False returns the always-false predicate.
func False() *Predicate { return &Predicate{Kind: KindFalse} }

// Cmp builds a single comparison predicate.
func Cmp(field string, op Op, value any) *Predicate {
	return &Predicate{Kind: KindComparison, Field: field, Op: op, Value: value}
}

// InList builds an IN predicate.
func InList(field string, values []any) *Predicate {
	return &Predicate{Kind: KindComparison, Field: field, Op: OpIn, Values: values}
}

// Not builds a negation.
func Not(inner *Predicate) *Predicate {
	return &Predicate{Kind: KindNot, Inner: inner}
}

// And builds a conjunction. Fewer than one child is a caller error; callers
// normalize through Simplify before relying on the non-empty invariant.
func And(children ...*Predicate) *Predicate {
	return &Predicate{Kind: KindAnd, Children: children}
}

// Or builds a disjunction.
func Or(children ...*Predicate) *Predicate {
	return &Predicate{Kind: KindOr, Children: children}
}

// IsAtomic reports whether p is a leaf (True, False, or Comparison) — the
// only node kinds a Not is allowed to wrap in NNF.
func (p *Predicate) IsAtomic() bool {
	switch p.Kind {
	case KindTrue, KindFalse, KindComparison:
		return true
	default:
		return false
	}
}

// CanonicalKey builds the deterministic, release-stable string key used to
// deduplicate structurally-equal predicates (spec.md §4.1, Design Notes).
// And/Or children are sorted lexicographically by their own canonical key
// first, so And(a,b) and And(b,a) collapse to the same key.
func (p *Predicate) CanonicalKey() string {
	var b strings.Builder
	p.writeCanonicalKey(&b)
	return b.String()
}

func (p *Predicate) writeCanonicalKey(b *strings.Builder) {
	switch p.Kind {
	case KindTrue:
		b.WriteString("T")
	case KindFalse:
		b.WriteString("F")
	case KindComparison:
		fmt.Fprintf(b, "C(%s,%s,%v,%v)", p.Field, p.Op, p.Value, p.Values)
	case KindNot:
		b.WriteString("N(")
		p.Inner.writeCanonicalKey(b)
		b.WriteString(")")
	case KindAnd, KindOr:
		keys := make([]string, len(p.Children))
		for i, c := range p.Children {
			keys[i] = c.CanonicalKey()
		}
		sort.Strings(keys)
		if p.Kind == KindAnd {
			b.WriteString("AND[")
		} else {
			b.WriteString("OR[")
		}
		b.WriteString(strings.Join(keys, ";"))
		b.WriteString("]")
	}
}

// Equal reports structural equivalence via canonical key comparison.
func (p *Predicate) Equal(other *Predicate) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.CanonicalKey() == other.CanonicalKey()
}

// Walk calls fn for every node in the tree, pre-order.
func (p *Predicate) Walk(fn func(*Predicate)) {
	if p == nil {
		return
	}
	fn(p)
	if p.Inner != nil {
		p.Inner.Walk(fn)
	}
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// ReferencedFields returns the set of distinct field names appearing in
// Comparison nodes under p.
func (p *Predicate) ReferencedFields() []string {
	seen := map[string]struct{}{}
	p.Walk(func(n *Predicate) {
		if n.Kind == KindComparison {
			seen[n.Field] = struct{}{}
		}
	})
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
