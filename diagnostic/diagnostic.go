// Package diagnostic renders a chosen plan into short, human-readable
// summaries — a one-line operator sketch and a cost breakdown — for logs
// and the demo CLI.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/planop"
)

// Explain renders a multi-line, indented tree of operator summaries.
func Explain(p *planop.Plan) string {
	var b strings.Builder
	explain(&b, p, 0)
	return b.String()
}

func explain(b *strings.Builder, p *planop.Plan, depth int) {
	if p == nil {
		return
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), summarize(p))
	if p.Input != nil {
		explain(b, p.Input, depth+1)
	}
	for _, c := range p.Children {
		explain(b, c, depth+1)
	}
}

// summarize renders one operator's one-line description.
func summarize(p *planop.Plan) string {
	switch p.Kind {
	case planop.KindTableScan:
		return fmt.Sprintf("TableScan(%s)", p.RecordType)
	case planop.KindIndexScan, planop.KindIndexOnlyScan, planop.KindIndexSeek, planop.KindFullTextScan, planop.KindSpatialScan, planop.KindBitmapScan:
		name := "?"
		if p.Index != nil {
			name = p.Index.Name
		}
		return fmt.Sprintf("%s(%s, entries:%.0f)", p.Kind, name, p.EstimatedRows)
	case planop.KindUnion:
		return fmt.Sprintf("Union(%d children, dedup:%v)", len(p.Children), p.Deduplicate)
	case planop.KindIntersection:
		return fmt.Sprintf("Intersection(%d children)", len(p.Children))
	case planop.KindBitmapCombine:
		return fmt.Sprintf("BitmapCombine(%d children)", len(p.Children))
	case planop.KindFilter:
		return fmt.Sprintf("Filter(selectivity:%.4f)", p.Selectivity)
	case planop.KindSort:
		fields := make([]string, len(p.SortDescriptors))
		for i, sd := range p.SortDescriptors {
			fields[i] = sd.Field
		}
		return fmt.Sprintf("Sort(%s)", strings.Join(fields, ","))
	case planop.KindLimit:
		limit, offset := "-", "0"
		if p.Limit != nil {
			limit = fmt.Sprintf("%d", *p.Limit)
		}
		if p.Offset != nil {
			offset = fmt.Sprintf("%d", *p.Offset)
		}
		return fmt.Sprintf("Limit(limit:%s, offset:%s)", limit, offset)
	case planop.KindProject:
		return fmt.Sprintf("Project(%s)", strings.Join(p.Fields, ","))
	case planop.KindVectorSearch:
		return fmt.Sprintf("VectorSearch(k:%d, efSearch:%d)", p.VectorK, p.VectorEfSearch)
	case planop.KindAggregation:
		return fmt.Sprintf("Aggregation(groupBy:%s)", strings.Join(p.GroupBy, ","))
	default:
		return p.Kind.String()
	}
}

// CostBreakdown is the rendered form of a costmodel.PlanCost for display.
type CostBreakdown struct {
	IndexReads      float64
	RecordFetches   float64
	PostFilterCount float64
	RequiresSort    bool
	AdditionalCost  float64
	TotalCost       float64
}

// Breakdown computes a displayable CostBreakdown for a plan's root cost.
func Breakdown(p *planop.Plan, w costmodel.Weights) CostBreakdown {
	return CostBreakdown{
		IndexReads:      p.Cost.IndexReads,
		RecordFetches:   p.Cost.RecordFetches,
		PostFilterCount: p.Cost.PostFilterCount,
		RequiresSort:    p.Cost.RequiresSort,
		AdditionalCost:  p.Cost.AdditionalCost,
		TotalCost:       p.Cost.TotalCost(w),
	}
}

func (b CostBreakdown) String() string {
	return fmt.Sprintf(
		"indexReads=%.1f recordFetches=%.1f postFilterCount=%.1f requiresSort=%v additionalCost=%.2f totalCost=%.2f",
		b.IndexReads, b.RecordFetches, b.PostFilterCount, b.RequiresSort, b.AdditionalCost, b.TotalCost,
	)
}
