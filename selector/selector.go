// Package selector applies hints, rewrites, and cost-ascending sort to a
// candidate list, then validates the winner's complexity before handing
// it back (spec.md §4.7).
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/planerr"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/rewrite"
)

// Hints narrows or biases candidate selection (spec.md §6 Configuration
// table: forceTableScan, preferredIndex, maxIndexCost).
type Hints struct {
	ForceTableScan bool
	PreferredIndex string
	MaxIndexCost   float64 // 0 means unbounded
}

// Selector chooses the winning plan from a candidate list.
type Selector struct {
	Weights             costmodel.Weights
	ComplexityThreshold float64
	RuleBudget          int
	CostBased           bool // config.EnableCostBasedOptimization
}

// scored pairs a candidate with its total cost and original enumeration
// index, for the deterministic tie-break spec.md §5 requires (lower
// totalCost, then lower complexity, then earlier enumeration index).
type scored struct {
	plan       *planop.Plan
	totalCost  float64
	complexity float64
	index      int
}

// Select applies no hints, rewrites survivors, sorts by cost, and
// validates the winner's complexity.
func (s *Selector) Select(candidates []*planop.Plan) (*planop.Plan, error) {
	return s.SelectWithHints(candidates, Hints{})
}

// SelectWithHints applies hints, rewrites survivors, sorts by cost, and
// validates the winner's complexity (spec.md §4.7).
func (s *Selector) SelectWithHints(candidates []*planop.Plan, hints Hints) (*planop.Plan, error) {
	if len(candidates) == 0 {
		return nil, &planerr.NoViableCandidate{Reason: "enumerator produced zero candidates"}
	}
	filtered := applyHints(candidates, hints, s.Weights)
	if len(filtered) == 0 {
		filtered = candidates
	}

	scoredCandidates := make([]scored, 0, len(filtered))
	for i, c := range filtered {
		rewritten, _ := rewrite.Apply(c, s.RuleBudget)
		scoredCandidates = append(scoredCandidates, scored{
			plan:       rewritten,
			totalCost:  rewritten.Cost.TotalCost(s.Weights),
			complexity: Complexity(rewritten),
			index:      i,
		})
	}

	if s.CostBased {
		sort.SliceStable(scoredCandidates, func(i, j int) bool {
			a, b := scoredCandidates[i], scoredCandidates[j]
			if a.totalCost != b.totalCost {
				return a.totalCost < b.totalCost
			}
			if a.complexity != b.complexity {
				return a.complexity < b.complexity
			}
			return a.index < b.index
		})
	}

	winner := scoredCandidates[0]
	if winner.complexity > s.ComplexityThreshold {
		return nil, &planerr.PlanComplexityExceeded{
			Complexity:  winner.complexity,
			Threshold:   s.ComplexityThreshold,
			Sketch:      Sketch(winner.plan),
			Suggestions: suggestionsFor(winner.plan),
		}
	}
	return winner.plan, nil
}

func applyHints(candidates []*planop.Plan, hints Hints, weights costmodel.Weights) []*planop.Plan {
	out := candidates
	if hints.ForceTableScan {
		out = filterPlans(out, func(p *planop.Plan) bool { return containsKind(p, planop.KindTableScan) })
	}
	if hints.PreferredIndex != "" {
		filteredByIndex := filterPlans(out, func(p *planop.Plan) bool { return referencesIndex(p, hints.PreferredIndex) })
		if len(filteredByIndex) > 0 {
			out = filteredByIndex
		}
	}
	if hints.MaxIndexCost > 0 {
		out = filterPlans(out, func(p *planop.Plan) bool { return p.Cost.TotalCost(weights) <= hints.MaxIndexCost })
	}
	return out
}

func filterPlans(plans []*planop.Plan, keep func(*planop.Plan) bool) []*planop.Plan {
	var out []*planop.Plan
	for _, p := range plans {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func containsKind(p *planop.Plan, kind planop.Kind) bool {
	found := false
	p.Walk(func(n *planop.Plan) {
		if n.Kind == kind {
			found = true
		}
	})
	return found
}

func referencesIndex(p *planop.Plan, name string) bool {
	found := false
	p.Walk(func(n *planop.Plan) {
		if n.Index != nil && n.Index.Name == name {
			found = true
		}
	})
	return found
}

// Complexity computes the recursive operator weight spec.md §4.7 defines:
// leaf scans = 1; specialized scans = 2; Filter/Sort add 1 to input;
// Union adds Σchildren + count; Intersection adds 2·Σchildren; Limit/
// Project pass through.
func Complexity(p *planop.Plan) float64 {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case planop.KindTableScan, planop.KindIndexScan, planop.KindIndexOnlyScan, planop.KindIndexSeek:
		return 1
	case planop.KindFullTextScan, planop.KindVectorSearch, planop.KindSpatialScan, planop.KindAggregation, planop.KindBitmapScan:
		return 2
	case planop.KindFilter, planop.KindSort:
		return 1 + Complexity(p.Input)
	case planop.KindUnion:
		var sum float64
		for _, c := range p.Children {
			sum += Complexity(c)
		}
		return sum + float64(len(p.Children))
	case planop.KindIntersection, planop.KindBitmapCombine:
		var sum float64
		for _, c := range p.Children {
			sum += Complexity(c)
		}
		return 2 * sum
	case planop.KindLimit, planop.KindProject:
		return Complexity(p.Input)
	default:
		return 1
	}
}

// Sketch renders a short, single-line structural summary of a plan for
// error messages.
func Sketch(p *planop.Plan) string {
	if p == nil {
		return "nil"
	}
	switch p.Kind {
	case planop.KindFilter, planop.KindSort, planop.KindLimit, planop.KindProject:
		return fmt.Sprintf("%s(%s)", p.Kind, Sketch(p.Input))
	case planop.KindUnion, planop.KindIntersection, planop.KindBitmapCombine:
		parts := make([]string, len(p.Children))
		for i, c := range p.Children {
			parts[i] = Sketch(c)
		}
		return fmt.Sprintf("%s[%s]", p.Kind, strings.Join(parts, ","))
	default:
		if p.Index != nil {
			return fmt.Sprintf("%s(%s)", p.Kind, p.Index.Name)
		}
		return p.Kind.String()
	}
}

func suggestionsFor(p *planop.Plan) []string {
	var out []string
	if containsKind(p, planop.KindUnion) {
		out = append(out, "consider lowering inUnionThreshold or adding a composite index to avoid the IN-list union fan-out")
	}
	if containsKind(p, planop.KindIntersection) {
		out = append(out, "consider a composite index across the intersected fields instead of relying on intersection")
	}
	if len(out) == 0 {
		out = append(out, "consider raising complexityThreshold or simplifying the query's predicate")
	}
	return out
}
