package enumerator

import (
	"testing"

	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/bitmap"
	"github.com/mantisdb/planner/config"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/stats"
)

func newSnapshotWithRows(recordType string, rows int64) *stats.Snapshot {
	snap := stats.NewSnapshot()
	snap.Types[recordType] = stats.TypeStats{RecordType: recordType, RowCount: rows, Fields: map[string]stats.FieldStats{}}
	return snap
}

type fakeBitmapProvider struct {
	columns map[string]*bitmap.ColumnIndex
}

func (f *fakeBitmapProvider) ColumnIndex(recordType, field string) (*bitmap.ColumnIndex, bool) {
	c, ok := f.columns[recordType+"."+field]
	return c, ok
}

func TestEnumerate_AlwaysIncludesTableScan(t *testing.T) {
	catalog := index.NewStaticCatalog()
	snap := newSnapshotWithRows("user", 1000)
	en := New(catalog, snap, config.Default(), nil)

	p := predicate.Cmp("email", predicate.OpEquals, "a@example.com")
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	found := false
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindTableScan {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a TableScan candidate")
	}
}

func TestEnumerate_TableScanCandidateIsWrappedInFilter(t *testing.T) {
	catalog := index.NewStaticCatalog()
	snap := newSnapshotWithRows("user", 1000)
	en := New(catalog, snap, config.Default(), nil)

	p := predicate.Cmp("email", predicate.OpEquals, "a@example.com")
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	var tableScanCandidate *planop.Plan
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindTableScan {
			tableScanCandidate = stripSortLimit(c)
		}
	}
	if tableScanCandidate == nil {
		t.Fatal("expected a table scan candidate")
	}
	if tableScanCandidate.Kind != planop.KindFilter {
		t.Fatalf("expected the table scan's residual predicate to be wrapped in Filter, got %s", tableScanCandidate.Kind)
	}
	if tableScanCandidate.Input == nil || tableScanCandidate.Input.Kind != planop.KindTableScan {
		t.Fatalf("expected Filter to wrap a TableScan, got %v", tableScanCandidate.Input)
	}
}

func TestEnumerate_PartiallySatisfiedIndexScanIsWrappedInFilter(t *testing.T) {
	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{Name: "by_status", RecordType: "user", KeyFields: []string{"status"}})
	snap := newSnapshotWithRows("user", 1000)
	en := New(catalog, snap, config.Default(), nil)

	p := predicate.And(
		predicate.Cmp("status", predicate.OpEquals, "active"),
		predicate.Cmp("country", predicate.OpEquals, "US"),
	)
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	var indexCandidate *planop.Plan
	for _, c := range result.Candidates {
		stripped := stripSortLimit(c)
		if stripped.Kind == planop.KindFilter && stripped.Input != nil && stripped.Input.Kind == planop.KindIndexScan {
			indexCandidate = stripped
		}
	}
	if indexCandidate == nil {
		t.Fatal("expected an IndexScan over status wrapped in a Filter for the residual country condition")
	}
	if indexCandidate.Selectivity <= 0 || indexCandidate.Selectivity > 1 {
		t.Fatalf("expected a residual selectivity in (0,1], got %v", indexCandidate.Selectivity)
	}
}

func TestEnumerate_SingleIndexProducesIndexSeek(t *testing.T) {
	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{Name: "by_email", RecordType: "user", KeyFields: []string{"email"}, Unique: true})
	snap := newSnapshotWithRows("user", 1000)
	en := New(catalog, snap, config.Default(), nil)

	p := predicate.Cmp("email", predicate.OpEquals, "a@example.com")
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	foundSeek := false
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindIndexSeek {
			foundSeek = true
		}
	}
	if !foundSeek {
		t.Fatal("expected an IndexSeek candidate for a single equality on a unique index")
	}
}

func TestEnumerate_InListUnderUnionThresholdProducesUnion(t *testing.T) {
	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{Name: "by_status", RecordType: "user", KeyFields: []string{"status"}})
	snap := newSnapshotWithRows("user", 1000)
	cfg := config.Default()
	en := New(catalog, snap, cfg, nil)

	p := predicate.InList("status", []any{"a", "b", "c"})
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	foundUnion := false
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindUnion {
			foundUnion = true
		}
	}
	if !foundUnion {
		t.Fatal("expected a Union candidate for a small IN-list with an index")
	}
}

func TestEnumerate_EnableIndexUnionFalseSuppressesUnionCandidates(t *testing.T) {
	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{Name: "by_status", RecordType: "user", KeyFields: []string{"status"}})
	snap := newSnapshotWithRows("user", 1000)
	cfg := config.Default()
	cfg.EnableIndexUnion = false
	en := New(catalog, snap, cfg, nil)

	p := predicate.InList("status", []any{"a", "b", "c"})
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindUnion {
			t.Fatal("expected no Union candidate when EnableIndexUnion is false")
		}
	}
}

func TestEnumerate_DisjointIndexesProduceIntersection(t *testing.T) {
	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{Name: "by_status", RecordType: "user", KeyFields: []string{"status"}})
	catalog.Add(index.Descriptor{Name: "by_country", RecordType: "user", KeyFields: []string{"country"}})
	snap := newSnapshotWithRows("user", 1000)
	en := New(catalog, snap, config.Default(), nil)

	p := predicate.And(
		predicate.Cmp("status", predicate.OpEquals, "active"),
		predicate.Cmp("country", predicate.OpEquals, "US"),
	)
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	foundIntersection := false
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindIntersection {
			foundIntersection = true
		}
	}
	if !foundIntersection {
		t.Fatal("expected an Intersection candidate for disjoint single-field indexes")
	}
}

func TestEnumerate_BitmapPlanWhenColumnSuitable(t *testing.T) {
	catalog := index.NewStaticCatalog()
	snap := newSnapshotWithRows("user", 1000)
	col := bitmap.NewColumnIndex(1000)
	col.Set("active", 0)
	col.Set("inactive", 1)
	provider := &fakeBitmapProvider{columns: map[string]*bitmap.ColumnIndex{"user.status": col}}
	en := New(catalog, snap, config.Default(), provider)

	p := predicate.Cmp("status", predicate.OpEquals, "active")
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	found := false
	for _, c := range result.Candidates {
		if unwrap(c).Kind == planop.KindBitmapScan {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a BitmapScan candidate when a suitable bitmap column exists")
	}
}

func TestEnumerate_RespectsEnumerationBudget(t *testing.T) {
	catalog := index.NewStaticCatalog()
	for _, f := range []string{"a", "b", "c", "d"} {
		catalog.Add(index.Descriptor{Name: "by_" + f, RecordType: "user", KeyFields: []string{f}})
	}
	snap := newSnapshotWithRows("user", 1000)
	cfg := config.Default()
	cfg.MaxPlanEnumerations = 2
	en := New(catalog, snap, cfg, nil)

	p := predicate.And(
		predicate.Cmp("a", predicate.OpEquals, 1),
		predicate.Cmp("b", predicate.OpEquals, 2),
		predicate.Cmp("c", predicate.OpEquals, 3),
		predicate.Cmp("d", predicate.OpEquals, 4),
	)
	qa := analysis.Analyze(analysis.Query{RecordType: "user"}, p, p)

	result := en.Enumerate(qa)
	if len(result.Candidates) > 2 {
		t.Fatalf("expected at most 2 candidates under budget, got %d", len(result.Candidates))
	}
	if !result.Exhausted {
		t.Fatal("expected Exhausted to be true when the budget is hit")
	}
}

// unwrap strips Sort/Limit/Filter wrappers to inspect the underlying
// access path.
func unwrap(p *planop.Plan) *planop.Plan {
	for p.Kind == planop.KindSort || p.Kind == planop.KindLimit || p.Kind == planop.KindFilter {
		p = p.Input
	}
	return p
}

// stripSortLimit strips only Sort/Limit wrappers, keeping any Filter so
// residual-wrapping can be inspected directly.
func stripSortLimit(p *planop.Plan) *planop.Plan {
	for p.Kind == planop.KindSort || p.Kind == planop.KindLimit {
		p = p.Input
	}
	return p
}
