package costmodel

import "testing"

func TestPlanCost_Add(t *testing.T) {
	a := PlanCost{IndexReads: 1, RecordFetches: 2, PostFilterCount: 3}
	b := PlanCost{IndexReads: 10, RecordFetches: 20, PostFilterCount: 30, RequiresSort: true}
	sum := a.Add(b)
	if sum.IndexReads != 11 || sum.RecordFetches != 22 || sum.PostFilterCount != 33 {
		t.Fatalf("unexpected sum: %+v", sum)
	}
	if !sum.RequiresSort {
		t.Fatal("expected RequiresSort to propagate via OR")
	}
}

func TestPlanCost_Scale(t *testing.T) {
	c := PlanCost{IndexReads: 10, RecordFetches: 10, PostFilterCount: 10, AdditionalCost: 10}
	scaled := c.Scale(0.5)
	if scaled.IndexReads != 5 || scaled.RecordFetches != 5 || scaled.AdditionalCost != 5 {
		t.Fatalf("unexpected scaled cost: %+v", scaled)
	}
}

func TestPlanCost_TotalCost_AddsSortPenaltyWhenRequired(t *testing.T) {
	w := DefaultWeights
	base := PlanCost{RecordFetches: 100}
	unsorted := base
	sorted := base
	sorted.RequiresSort = true
	if sorted.TotalCost(w) <= unsorted.TotalCost(w) {
		t.Fatal("expected sort-requiring cost to be strictly greater")
	}
}
