// Package rewrite implements the post-enumeration rule-based rewriter:
// pure tree-to-tree transformations applied to a candidate plan until a
// fixed point is reached (spec.md §4.6).
package rewrite

import (
	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
)

// Rule is one pure tree-to-tree transformation. It returns the
// (possibly unchanged) replacement and whether it made a change.
type Rule func(p *planop.Plan) (*planop.Plan, bool)

// Rules is the default rule set applied in this order (spec.md §4.6).
var Rules = []Rule{
	EliminateRedundantSort,
	PushDownLimit,
	SimplifyFilter,
}

// Apply runs every rule in order to a fixed point, counting each
// successful application against budget. It returns the rewritten tree
// and the number of rule applications consumed.
func Apply(p *planop.Plan, budget int) (*planop.Plan, int) {
	applied := 0
	changed := true
	for changed && applied < budget {
		changed = false
		for _, rule := range Rules {
			if applied >= budget {
				break
			}
			next, ok := rule(p)
			if ok {
				p = next
				applied++
				changed = true
			}
		}
	}
	return p, applied
}

// EliminateRedundantSort removes a Sort node when its input already
// satisfies the requested ordering, propagating the check through
// Filter, Project, and leaf scans (spec.md §4.6).
func EliminateRedundantSort(p *planop.Plan) (*planop.Plan, bool) {
	if p.Kind != planop.KindSort {
		if p.Input != nil {
			next, ok := EliminateRedundantSort(p.Input)
			if ok {
				replacement := *p
				replacement.Input = next
				return &replacement, true
			}
		}
		for i, c := range p.Children {
			next, ok := EliminateRedundantSort(c)
			if ok {
				replacement := *p
				replacement.Children = append([]*planop.Plan(nil), p.Children...)
				replacement.Children[i] = next
				return &replacement, true
			}
		}
		return p, false
	}
	if providesOrdering(p.Input, p.SortDescriptors) {
		return p.Input, true
	}
	next, ok := EliminateRedundantSort(p.Input)
	if ok {
		replacement := *p
		replacement.Input = next
		return &replacement, true
	}
	return p, false
}

// providesOrdering reports whether subtree's own output is already sorted
// per sortReq, looking through Filter/Project pass-throughs to the driving
// scan.
func providesOrdering(p *planop.Plan, sortReq []analysis.SortDescriptor) bool {
	if p == nil || len(sortReq) == 0 {
		return len(sortReq) == 0
	}
	switch p.Kind {
	case planop.KindFilter, planop.KindProject:
		return providesOrdering(p.Input, sortReq)
	case planop.KindIndexSeek:
		return p.ProvidesOwnOrdering()
	case planop.KindVectorSearch:
		return true
	case planop.KindIndexScan, planop.KindIndexOnlyScan:
		return indexSatisfiesSort(p, sortReq)
	default:
		return false
	}
}

func indexSatisfiesSort(p *planop.Plan, sortReq []analysis.SortDescriptor) bool {
	if p.Index == nil || len(sortReq) > len(p.Index.KeyFields) {
		return false
	}
	ascending := !p.Reverse
	if p.Index.Reverse {
		ascending = !ascending
	}
	for i, sd := range sortReq {
		if p.Index.KeyFields[i] != sd.Field {
			return false
		}
		if (sd.Order == analysis.Ascending) != ascending {
			return false
		}
	}
	return true
}

// PushDownLimit moves a Limit as close to the leaf as semantically
// valid: it cannot cross a Filter (changes row count) or a Sort whose
// input isn't already ordered, since pushing past either would change
// which rows are kept (spec.md §4.6).
func PushDownLimit(p *planop.Plan) (*planop.Plan, bool) {
	if p.Kind != planop.KindLimit {
		if p.Input != nil {
			next, ok := PushDownLimit(p.Input)
			if ok {
				replacement := *p
				replacement.Input = next
				return &replacement, true
			}
		}
		return p, false
	}
	switch p.Input.Kind {
	case planop.KindProject:
		inner := *p.Input
		outerLimit := *p
		outerLimit.Input = inner.Input
		inner.Input = &outerLimit
		return &inner, true
	case planop.KindSort:
		// Cannot push below a Sort unless the sort is itself redundant;
		// EliminateRedundantSort handles that case by removing the Sort
		// node entirely, after which this rule can push further on a
		// later pass.
		return p, false
	case planop.KindFilter:
		return p, false
	default:
		return p, false
	}
}

// SimplifyFilter merges adjacent Filter nodes into one, multiplying
// their selectivities (assuming independence, matching the predicate
// selectivity composition rule for And) (spec.md §4.6).
func SimplifyFilter(p *planop.Plan) (*planop.Plan, bool) {
	if p.Kind == planop.KindFilter && p.Input != nil && p.Input.Kind == planop.KindFilter {
		inner := p.Input
		merged := &planop.Plan{
			Kind:        planop.KindFilter,
			Input:       inner.Input,
			Predicate:   predicate.And(p.Predicate, inner.Predicate),
			Selectivity: p.Selectivity * inner.Selectivity,
		}
		return merged, true
	}
	if p.Input != nil {
		next, ok := SimplifyFilter(p.Input)
		if ok {
			replacement := *p
			replacement.Input = next
			return &replacement, true
		}
	}
	for i, c := range p.Children {
		next, ok := SimplifyFilter(c)
		if ok {
			replacement := *p
			replacement.Children = append([]*planop.Plan(nil), p.Children...)
			replacement.Children[i] = next
			return &replacement, true
		}
	}
	return p, false
}
