package diagnostic

import (
	"strings"
	"testing"

	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planop"
)

func TestExplain_RendersNestedTree(t *testing.T) {
	idx := index.Descriptor{Name: "by_email"}
	scan := planop.IndexScan("user", idx, false, nil)
	scan.EstimatedRows = 5
	limit := 10
	p := planop.Limit(scan, &limit, nil)

	out := Explain(p)
	if !strings.Contains(out, "Limit(limit:10") {
		t.Fatalf("expected Limit summary, got %q", out)
	}
	if !strings.Contains(out, "IndexScan(by_email, entries:5") {
		t.Fatalf("expected IndexScan summary, got %q", out)
	}
}

func TestBreakdown_RendersTotalCost(t *testing.T) {
	p := planop.TableScan("user")
	p.Cost = costmodel.PlanCost{RecordFetches: 100}
	b := Breakdown(p, costmodel.DefaultWeights)
	if b.TotalCost <= 0 {
		t.Fatal("expected a positive total cost")
	}
	if !strings.Contains(b.String(), "totalCost=") {
		t.Fatal("expected String() to mention totalCost")
	}
}
