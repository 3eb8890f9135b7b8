package selector

import (
	"testing"

	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
)

func newSelector() *Selector {
	return &Selector{Weights: costmodel.DefaultWeights, ComplexityThreshold: 1000, RuleBudget: 100, CostBased: true}
}

func TestSelect_PicksLowestCost(t *testing.T) {
	cheap := planop.TableScan("user")
	cheap.Cost = costmodel.PlanCost{RecordFetches: 10}
	expensive := planop.TableScan("user")
	expensive.Cost = costmodel.PlanCost{RecordFetches: 1000}

	s := newSelector()
	winner, err := s.Select([]*planop.Plan{expensive, cheap})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner.Cost.RecordFetches != 10 {
		t.Fatalf("expected the cheaper plan to win, got cost %v", winner.Cost.RecordFetches)
	}
}

func TestSelect_NoCandidatesReturnsError(t *testing.T) {
	s := newSelector()
	_, err := s.Select(nil)
	if err == nil {
		t.Fatal("expected an error for zero candidates")
	}
}

func TestSelect_ComplexityBreachReturnsStructuredError(t *testing.T) {
	idx := index.Descriptor{Name: "by_a"}
	children := make([]*planop.Plan, 0, 50)
	for i := 0; i < 50; i++ {
		c := planop.IndexScan("user", idx, false, nil)
		c.Cost = costmodel.PlanCost{RecordFetches: 1}
		children = append(children, c)
	}
	union := planop.Union(children, true)
	union.Cost = costmodel.PlanCost{RecordFetches: 50}

	s := &Selector{Weights: costmodel.DefaultWeights, ComplexityThreshold: 5, RuleBudget: 10, CostBased: true}
	_, err := s.Select([]*planop.Plan{union})
	if err == nil {
		t.Fatal("expected a complexity-exceeded error")
	}
}

func TestSelectWithHints_ForceTableScan(t *testing.T) {
	idx := index.Descriptor{Name: "by_a"}
	scan := planop.IndexScan("user", idx, false, nil)
	scan.Cost = costmodel.PlanCost{RecordFetches: 1}
	table := planop.TableScan("user")
	table.Cost = costmodel.PlanCost{RecordFetches: 1000}

	s := newSelector()
	winner, err := s.SelectWithHints([]*planop.Plan{scan, table}, Hints{ForceTableScan: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner.Kind != planop.KindTableScan {
		t.Fatalf("expected forceTableScan hint to keep only table scans, got %v", winner.Kind)
	}
}

func TestSelectWithHints_MaxIndexCostPrunesByTotalCostNotIndexReads(t *testing.T) {
	weights := costmodel.Weights{IndexReadWeight: 0.01}

	// Few index reads but an expensive additional cost (e.g. a sort):
	// total cost is high, so maxIndexCost must exclude it even though
	// IndexReads alone is small.
	fewReadsExpensive := planop.TableScan("user")
	fewReadsExpensive.Cost = costmodel.PlanCost{IndexReads: 1, AdditionalCost: 100}

	// Many index reads but a cheap total cost: maxIndexCost must keep it.
	manyReadsCheap := planop.IndexScan("user", index.Descriptor{Name: "by_a"}, false, nil)
	manyReadsCheap.Cost = costmodel.PlanCost{IndexReads: 1000}

	s := &Selector{Weights: weights, ComplexityThreshold: 1000, RuleBudget: 100, CostBased: true}
	winner, err := s.SelectWithHints([]*planop.Plan{fewReadsExpensive, manyReadsCheap}, Hints{MaxIndexCost: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner.Kind != planop.KindIndexScan {
		t.Fatalf("expected the cheap-total-cost plan with many index reads to survive maxIndexCost, got %v", winner.Kind)
	}
}

func TestComplexity_LeafScanIsOne(t *testing.T) {
	if got := Complexity(planop.TableScan("user")); got != 1 {
		t.Fatalf("expected leaf scan complexity 1, got %v", got)
	}
}

func TestComplexity_FilterAddsOne(t *testing.T) {
	p := planop.Filter(planop.TableScan("user"), predicate.Cmp("a", predicate.OpEquals, 1), 0.5)
	if got := Complexity(p); got != 2 {
		t.Fatalf("expected Filter over a leaf scan to have complexity 2, got %v", got)
	}
}

func TestComplexity_ProjectAndLimitPassThrough(t *testing.T) {
	scan := planop.TableScan("user")
	limit := 1
	p := planop.Project(planop.Limit(scan, &limit, nil), []string{"a"})
	if got := Complexity(p); got != 1 {
		t.Fatalf("expected Project/Limit to pass through complexity, got %v", got)
	}
}
