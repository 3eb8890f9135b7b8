// Package costestimator fills in the costmodel.PlanCost for each
// physical operator a planop.Plan tree contains, per the per-operator
// contracts of spec.md §4.4.
package costestimator

import (
	"math"

	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planop"
)

// Estimator fills in costs using a fixed set of weights and a row-count
// oracle (rows in a record type, entries in an index).
type Estimator struct {
	Weights   costmodel.Weights
	RowCount  func(recordType string) int64
	IndexSize func(idx index.Descriptor) int64
}

// NewEstimator builds an Estimator with the given weights and oracles.
func NewEstimator(w costmodel.Weights, rowCount func(string) int64, indexSize func(index.Descriptor) int64) *Estimator {
	return &Estimator{Weights: w, RowCount: rowCount, IndexSize: indexSize}
}

// Estimate computes and stores p.Cost for the whole subtree rooted at p,
// post-order (children before parents), and returns the root cost.
func (e *Estimator) Estimate(p *planop.Plan, sortReq []analysis.SortDescriptor) costmodel.PlanCost {
	if p == nil {
		return costmodel.PlanCost{}
	}
	for _, c := range p.Children {
		e.Estimate(c, sortReq)
	}
	if p.Input != nil {
		e.Estimate(p.Input, sortReq)
	}

	var cost costmodel.PlanCost
	switch p.Kind {
	case planop.KindTableScan:
		cost = e.tableScan(p, sortReq)
	case planop.KindIndexScan, planop.KindIndexOnlyScan:
		cost = e.indexScan(p, sortReq)
	case planop.KindIndexSeek:
		cost = e.indexSeek(p, sortReq)
	case planop.KindUnion:
		cost = e.union(p, sortReq)
	case planop.KindIntersection:
		cost = e.intersection(p)
	case planop.KindBitmapCombine:
		cost = e.bitmapCombine(p)
	case planop.KindBitmapScan:
		cost = e.bitmapScan(p)
	case planop.KindFilter:
		cost = e.filter(p)
	case planop.KindSort:
		cost = e.sort(p)
	case planop.KindLimit:
		cost = e.limit(p)
	case planop.KindProject:
		cost = p.Input.Cost
	case planop.KindFullTextScan, planop.KindSpatialScan:
		cost = e.fullTextOrSpatial(p)
	case planop.KindVectorSearch:
		cost = e.vectorSearch(p)
	case planop.KindAggregation:
		cost = costmodel.PlanCost{IndexReads: float64(len(p.GroupBy) + 1)}
	}
	p.Cost = cost
	return cost
}

func (e *Estimator) rows(recordType string) float64 {
	if e.RowCount == nil {
		return 0
	}
	return float64(e.RowCount(recordType))
}

func (e *Estimator) tableScan(p *planop.Plan, sortReq []analysis.SortDescriptor) costmodel.PlanCost {
	n := e.rows(p.RecordType)
	survive := n
	if p.Selectivity > 0 {
		survive = n * p.Selectivity
	}
	return costmodel.PlanCost{
		RecordFetches:   n,
		PostFilterCount: n - survive,
		RequiresSort:    len(sortReq) > 0,
	}
}

func (e *Estimator) indexScan(p *planop.Plan, sortReq []analysis.SortDescriptor) costmodel.PlanCost {
	entries := p.EstimatedRows
	recordFetches := entries
	if p.Kind == planop.KindIndexOnlyScan {
		recordFetches = 0
	}
	satisfiedSel := p.Selectivity
	if satisfiedSel <= 0 {
		satisfiedSel = 1
	}
	totalSel := satisfiedSel
	if p.TotalSelectivity > 0 {
		totalSel = p.TotalSelectivity
	}
	postFilter := entries * math.Max(0, 1-totalSel/satisfiedSel)

	requiresSort := false
	if len(sortReq) > 0 && p.Index != nil {
		requiresSort = !OrderingSatisfied(*p.Index, p.Reverse, sortReq)
	} else if len(sortReq) > 0 {
		requiresSort = true
	}

	return costmodel.PlanCost{
		IndexReads:      entries,
		RecordFetches:   recordFetches,
		PostFilterCount: postFilter,
		RequiresSort:    requiresSort,
		AdditionalCost:  e.Weights.RangeInitiationWeight,
	}
}

func (e *Estimator) indexSeek(p *planop.Plan, sortReq []analysis.SortDescriptor) costmodel.PlanCost {
	k := float64(len(p.SeekKeys))
	recordFetches := k
	if p.Index != nil && !p.Index.Unique {
		avgEntriesPerKey := p.EstimatedRows
		if avgEntriesPerKey <= 0 {
			avgEntriesPerKey = 1
		}
		recordFetches = k * avgEntriesPerKey
	}
	requiresSort := len(p.SeekKeys) > 1 && len(sortReq) > 0
	additional := e.Weights.RangeInitiationWeight
	if p.InJoin {
		additional *= e.Weights.InJoinFanoutCost
	}
	return costmodel.PlanCost{
		IndexReads:     k,
		RecordFetches:  recordFetches,
		RequiresSort:   requiresSort,
		AdditionalCost: additional,
	}
}

func (e *Estimator) union(p *planop.Plan, sortReq []analysis.SortDescriptor) costmodel.PlanCost {
	var total costmodel.PlanCost
	for _, c := range p.Children {
		total = total.Add(c.Cost)
		total.AdditionalCost += e.Weights.RangeInitiationWeight
	}
	if p.Deduplicate {
		total.AdditionalCost += e.Weights.DedupWeight * total.RecordFetches
	}
	total.RequiresSort = len(sortReq) > 0
	return total
}

func (e *Estimator) intersection(p *planop.Plan) costmodel.PlanCost {
	if len(p.Children) == 0 {
		return costmodel.PlanCost{}
	}
	var totalIndexReads float64
	minFetches := math.Inf(1)
	for _, c := range p.Children {
		totalIndexReads += c.Cost.IndexReads
		if c.Cost.RecordFetches < minFetches {
			minFetches = c.Cost.RecordFetches
		}
	}
	resultSize := minFetches * e.Weights.IntersectionSurvivalRatio
	additional := e.Weights.IntersectionWeight*totalIndexReads + e.Weights.IntersectionFetchWeight*resultSize
	additional += e.Weights.RangeInitiationWeight * float64(len(p.Children))
	return costmodel.PlanCost{
		IndexReads:     totalIndexReads,
		RecordFetches:  resultSize,
		AdditionalCost: additional,
	}
}

func (e *Estimator) bitmapScan(p *planop.Plan) costmodel.PlanCost {
	n := e.rows(p.RecordType)
	sel := p.Selectivity
	additional := (n/64)*e.Weights.WBitOp + n*sel*e.Weights.WBitmapToRowID
	return costmodel.PlanCost{
		IndexReads:     n / 64,
		RecordFetches:  n * sel,
		AdditionalCost: additional,
	}
}

func (e *Estimator) bitmapCombine(p *planop.Plan) costmodel.PlanCost {
	var total costmodel.PlanCost
	for _, c := range p.Children {
		total = total.Add(c.Cost)
	}
	n := e.rows(p.RecordType)
	extraOps := float64(len(p.Children) - 1)
	if extraOps > 0 {
		total.AdditionalCost += (n / 64) * extraOps * e.Weights.WBitOp
	}
	return total
}

func (e *Estimator) filter(p *planop.Plan) costmodel.PlanCost {
	in := p.Input.Cost
	filtered := in.RecordFetches * p.Selectivity
	additional := in.AdditionalCost + filterCost(in.RecordFetches, p.Selectivity)
	return costmodel.PlanCost{
		IndexReads:      in.IndexReads,
		RecordFetches:   filtered,
		PostFilterCount: in.RecordFetches - filtered,
		RequiresSort:    in.RequiresSort,
		AdditionalCost:  additional,
	}
}

func (e *Estimator) sort(p *planop.Plan) costmodel.PlanCost {
	in := p.Input.Cost
	return costmodel.PlanCost{
		IndexReads:      in.IndexReads,
		RecordFetches:   in.RecordFetches,
		PostFilterCount: in.PostFilterCount,
		RequiresSort:    false,
		AdditionalCost:  in.AdditionalCost + sortCost(in.RecordFetches, e.Weights),
	}
}

func (e *Estimator) limit(p *planop.Plan) costmodel.PlanCost {
	in := p.Input.Cost
	if in.RequiresSort {
		return in
	}
	limit := 0.0
	offset := 0.0
	if p.Limit != nil {
		limit = float64(*p.Limit)
	}
	if p.Offset != nil {
		offset = float64(*p.Offset)
	}
	if in.RecordFetches <= 0 {
		return in
	}
	factor := math.Min(1, (limit+offset)/in.RecordFetches)
	return in.Scale(factor)
}

func (e *Estimator) fullTextOrSpatial(p *planop.Plan) costmodel.PlanCost {
	r := p.EstimatedRows
	indexReads := r
	if p.Kind == planop.KindSpatialScan {
		indexReads = 2 * r
	}
	return costmodel.PlanCost{
		IndexReads:    indexReads,
		RecordFetches: r,
	}
}

func (e *Estimator) vectorSearch(p *planop.Plan) costmodel.PlanCost {
	n := e.rows(p.RecordType)
	indexReads := 0.0
	if n > 0 {
		indexReads = math.Log2(n) * float64(p.VectorEfSearch) * 0.1
	}
	return costmodel.PlanCost{
		IndexReads:    indexReads,
		RecordFetches: float64(p.VectorK),
	}
}

// filterCost approximates the CPU cost of evaluating a residual
// predicate over inputFetches rows.
func filterCost(inputFetches, selectivity float64) float64 {
	_ = selectivity
	return inputFetches * 0.1
}

// sortCost approximates an O(n log n) in-memory sort's cost.
func sortCost(inputFetches float64, w costmodel.Weights) float64 {
	if inputFetches <= 1 {
		return 0
	}
	return inputFetches * math.Log2(inputFetches) * w.SortWeight * 0.01
}

// OrderingSatisfied reports whether idx (scanned in the given direction)
// already provides sortReq's ordering: the leading len(sortReq) index
// fields must equal the sort fields pairwise by name, and each sort
// direction must equal the index's natural direction after accounting
// for reverse (spec.md §4.4 "Ordering check").
func OrderingSatisfied(idx index.Descriptor, reverse bool, sortReq []analysis.SortDescriptor) bool {
	if len(sortReq) == 0 {
		return true
	}
	if len(sortReq) > len(idx.KeyFields) {
		return false
	}
	indexAscending := !reverse
	if idx.Reverse {
		indexAscending = !indexAscending
	}
	for i, sd := range sortReq {
		if idx.KeyFields[i] != sd.Field {
			return false
		}
		wantAscending := sd.Order == analysis.Ascending
		if wantAscending != indexAscending {
			return false
		}
	}
	return true
}
