// Package enumerator generates the bounded multiset of candidate
// physical plans the cost estimator, rewriter, and selector then choose
// among (spec.md §4.5).
package enumerator

import (
	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/bitmap"
	"github.com/mantisdb/planner/config"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/normalize"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/stats"
)

// BitmapProvider exposes a per-value bitmap index for a record type's
// field, when one exists (spec.md §4.5 step 6, §4.8). Bitmap planning is
// skipped entirely for fields with no provider entry.
type BitmapProvider interface {
	ColumnIndex(recordType, field string) (*bitmap.ColumnIndex, bool)
}

// Enumerator holds everything plan enumeration needs: the index catalog,
// a statistics snapshot, the active configuration, and an optional
// bitmap provider.
type Enumerator struct {
	Catalog  index.Catalog
	Snapshot *stats.Snapshot
	Config   config.Config
	Bitmaps  BitmapProvider
}

// New builds an Enumerator.
func New(catalog index.Catalog, snapshot *stats.Snapshot, cfg config.Config, bitmaps BitmapProvider) *Enumerator {
	return &Enumerator{Catalog: catalog, Snapshot: snapshot, Config: cfg, Bitmaps: bitmaps}
}

// Result is what Enumerate returns: the candidates produced within
// budget, and whether the enumeration budget was exhausted before every
// case in spec.md §4.5 had a chance to run (spec.md §5 resource model:
// a breach means "return best-so-far", which the planner package
// implements by costing whatever candidates exist here).
type Result struct {
	Candidates []*planop.Plan
	Exhausted  bool
}

// Enumerate produces candidate plans for qa, following the eight cases
// of spec.md §4.5 in order.
func (en *Enumerator) Enumerate(qa analysis.QueryAnalysis) Result {
	budget := en.Config.MaxPlanEnumerations
	if budget <= 0 {
		budget = 1
	}
	var candidates []*planop.Plan
	exhausted := false
	emit := func(p *planop.Plan) bool {
		if len(candidates) >= budget {
			exhausted = true
			return false
		}
		candidates = append(candidates, en.wrapSortLimit(p, qa))
		return true
	}

	totalSel := predicateSelectivity(qa.Normalized, qa.RecordType, en.Snapshot)
	indexes := en.Catalog.IndexesFor(qa.RecordType)

	// 1. Table scan is always a candidate. A table scan's driving access
	// satisfies nothing, so the whole predicate is residual and becomes a
	// Filter wrapped around it (spec.md §4.5 step 7).
	ts := planop.TableScan(qa.RecordType)
	tsCandidate := en.wrapResidual(ts, qa, nil, totalSel)
	if !emit(tsCandidate) {
		return Result{candidates, true}
	}

	// 2. Single-index candidates.
	for _, idx := range indexes {
		if idx.Kind == index.Bitmap {
			continue // handled by step 6
		}
		satisfied := en.satisfiedConditions(idx, qa)
		if len(satisfied) == 0 {
			continue
		}
		satisfiedSel := en.combinedSelectivity(satisfied, qa.RecordType)
		entries := en.estimateEntries(qa.RecordType, satisfiedSel)

		scan := planop.IndexScan(qa.RecordType, idx, false, satisfied)
		scan.EstimatedRows = entries
		scan.Selectivity = satisfiedSel
		if !emit(en.wrapResidual(scan, qa, satisfied, totalSel)) {
			return Result{candidates, true}
		}

		if idx.CoversFields(qa.ReferencedFields) {
			only := planop.IndexOnlyScan(qa.RecordType, idx, false, satisfied)
			only.EstimatedRows = entries
			only.Selectivity = satisfiedSel
			if !emit(en.wrapResidual(only, qa, satisfied, totalSel)) {
				return Result{candidates, true}
			}
		}

		if seekKeys, ok := en.seekKeys(idx, satisfied); ok {
			seek := planop.IndexSeek(qa.RecordType, idx, seekKeys, satisfied)
			seek.EstimatedRows = entries / maxFloat(1, float64(len(seekKeys)))
			seek.Selectivity = satisfiedSel
			seek.TotalSelectivity = totalSel
			if !emit(seek) {
				return Result{candidates, true}
			}
		}
	}

	// 3. IN-list expansion.
	if en.Config.EnableInPredicateOptimization {
		for _, fc := range qa.FieldConditions {
			if fc.Kind != predicate.FCIn {
				continue
			}
			for _, p := range en.expandInList(fc, qa, indexes, totalSel) {
				if !emit(p) {
					return Result{candidates, true}
				}
			}
		}
	}

	// 4. DNF expansion (OR). The fan-out branch below always builds a
	// Union, so it is gated behind EnableIndexUnion the same as the
	// IN-list union case in expandInList (spec.md §6: enableIndexUnion
	// gates multi-index composition).
	if dnf, ok := normalize.TryConvert(qa.Normalized, normalize.Defaults); ok && en.Config.EnableIndexUnion {
		if dnf.Kind == predicate.KindOr {
			children := make([]*planop.Plan, 0, len(dnf.Children))
			for _, term := range dnf.Children {
				termSel := predicateSelectivity(term, qa.RecordType, en.Snapshot)
				scan := planop.TableScan(qa.RecordType)
				filtered := planop.Filter(scan, term, termSel)
				children = append(children, filtered)
			}
			if len(children) > 1 {
				if !emit(planop.Union(children, true)) {
					return Result{candidates, true}
				}
			}
		}
	}

	// 5. Index intersection (AND).
	if en.Config.EnableIndexIntersection {
		for _, pair := range en.disjointIndexPairs(indexes, qa) {
			left := en.satisfiedConditions(pair[0], qa)
			right := en.satisfiedConditions(pair[1], qa)
			leftSel := en.combinedSelectivity(left, qa.RecordType)
			rightSel := en.combinedSelectivity(right, qa.RecordType)
			leftScan := planop.IndexScan(qa.RecordType, pair[0], false, left)
			leftScan.EstimatedRows = en.estimateEntries(qa.RecordType, leftSel)
			leftScan.Selectivity = leftSel
			leftScan.TotalSelectivity = totalSel
			rightScan := planop.IndexScan(qa.RecordType, pair[1], false, right)
			rightScan.EstimatedRows = en.estimateEntries(qa.RecordType, rightSel)
			rightScan.Selectivity = rightSel
			rightScan.TotalSelectivity = totalSel
			if !emit(planop.Intersection([]*planop.Plan{leftScan, rightScan})) {
				return Result{candidates, true}
			}
		}
	}

	// 6. Bitmap plans.
	if en.Bitmaps != nil {
		if p, ok := en.bitmapPlan(qa, totalSel); ok {
			if !emit(p) {
				return Result{candidates, true}
			}
		}
	}

	// 7/8. Sort/limit wrappers are applied by emit to every candidate as
	// it is produced, so a budget-exhausted return carries them too.
	return Result{candidates, exhausted}
}

func (en *Enumerator) wrapSortLimit(p *planop.Plan, qa analysis.QueryAnalysis) *planop.Plan {
	out := p
	if len(qa.SortDescriptors) > 0 {
		out = planop.Sort(out, qa.SortDescriptors)
	}
	if qa.FetchLimit != nil || qa.FetchOffset != nil {
		out = planop.Limit(out, qa.FetchLimit, qa.FetchOffset)
	}
	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
