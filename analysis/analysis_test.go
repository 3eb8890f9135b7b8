package analysis

import (
	"testing"

	"github.com/mantisdb/planner/predicate"
)

func TestAnalyze_DetectsPointLookup(t *testing.T) {
	p := predicate.Cmp("email", predicate.OpEquals, "a@example.com")
	a := Analyze(Query{Predicates: []*predicate.Predicate{p}, RecordType: "user"}, p, p)
	if !a.HasPattern(PointLookup) {
		t.Fatal("expected PointLookup pattern")
	}
}

func TestAnalyze_DetectsRangeQuery(t *testing.T) {
	p := predicate.And(
		predicate.Cmp("age", predicate.OpGreaterEq, 18),
		predicate.Cmp("age", predicate.OpLessThan, 65),
	)
	a := Analyze(Query{RecordType: "user"}, p, p)
	if !a.HasPattern(RangeQuery) {
		t.Fatal("expected RangeQuery pattern")
	}
	req, ok := a.FieldRequirements["age"]
	if !ok {
		t.Fatal("expected a field requirement for age")
	}
	if !req.HasAccessType(predicate.AccessRange) {
		t.Fatal("expected AccessRange for age")
	}
}

func TestAnalyze_MergesRangeBounds(t *testing.T) {
	p := predicate.And(
		predicate.Cmp("age", predicate.OpGreaterEq, 18),
		predicate.Cmp("age", predicate.OpLessThan, 65),
	)
	a := Analyze(Query{RecordType: "user"}, p, p)
	if len(a.FieldConditions) != 1 {
		t.Fatalf("expected merged range to produce one FieldCondition, got %d", len(a.FieldConditions))
	}
	fc := a.FieldConditions[0]
	if fc.Lower != 18 || fc.Upper != 65 {
		t.Fatalf("expected merged bounds [18,65), got [%v,%v)", fc.Lower, fc.Upper)
	}
}

func TestAnalyze_DetectsMultiValueLookup(t *testing.T) {
	p := predicate.InList("status", []any{"a", "b", "c"})
	a := Analyze(Query{RecordType: "user"}, p, p)
	if !a.HasPattern(MultiValueLookup) {
		t.Fatal("expected MultiValueLookup pattern")
	}
}

func TestAnalyze_DetectsTopNAndPagination(t *testing.T) {
	limit := 10
	offset := 20
	p := predicate.Cmp("status", predicate.OpEquals, "active")
	q := Query{
		SortDescriptors: []SortDescriptor{{Field: "createdAt", Order: Descending}},
		FetchLimit:      &limit,
		FetchOffset:     &offset,
	}
	a := Analyze(q, p, p)
	if !a.HasPattern(TopN) {
		t.Fatal("expected TopN pattern")
	}
	if !a.HasPattern(Pagination) {
		t.Fatal("expected Pagination pattern")
	}
	req, ok := a.FieldRequirements["createdAt"]
	if !ok || !req.RequiresSort {
		t.Fatal("expected createdAt to require sort")
	}
}

func TestAnalyze_VectorAndSpatialPatterns(t *testing.T) {
	vec := predicate.VectorNear("embedding", 5, []float64{0.1, 0.2})
	spatial := predicate.SpatialWithin("location", "within", "polygon")
	p := predicate.Or(vec, spatial)
	a := Analyze(Query{}, p, p)
	if !a.HasPattern(VectorSearch) {
		t.Fatal("expected VectorSearch pattern")
	}
	if !a.HasPattern(SpatialQuery) {
		t.Fatal("expected SpatialQuery pattern")
	}
}
