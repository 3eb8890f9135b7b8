package enumerator

import (
	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/bitmap"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planop"
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/stats"
)

// smallInThreshold is the largest IN-list size for which an index-less OR
// rewrite is still worthwhile (spec.md §4.5 step 3: "elif |values| <= 5
// without index, rewrite to Or of equalities").
const smallInThreshold = 5

func findFieldCondition(fcs []predicate.FieldCondition, field string) (predicate.FieldCondition, bool) {
	for _, fc := range fcs {
		if fc.Field == field {
			return fc, true
		}
	}
	return predicate.FieldCondition{}, false
}

// satisfiedConditions returns the prefix of idx.KeyFields that qa's field
// conditions satisfy: walk key fields in order, stopping at the first
// field with no matching condition, or just after the first non-equality
// condition (a range/IN/null-check can drive the leading access but
// cannot be chained with a further key field the way equality can).
func (en *Enumerator) satisfiedConditions(idx index.Descriptor, qa analysis.QueryAnalysis) []predicate.FieldCondition {
	var satisfied []predicate.FieldCondition
	for _, kf := range idx.KeyFields {
		fc, ok := findFieldCondition(qa.FieldConditions, kf)
		if !ok {
			break
		}
		satisfied = append(satisfied, fc)
		if fc.Kind != predicate.FCEquals {
			break
		}
	}
	return satisfied
}

// wrapResidual implements spec.md §4.5 step 7: any condition not
// satisfied by scan's driving access becomes a Filter wrapped around it
// with its measured selectivity. satisfied is the subset of
// qa.FieldConditions the driving access already consumed (nil for a bare
// table scan, which consumes none); when satisfied covers every field
// condition there's no residual and scan is returned unwrapped.
func (en *Enumerator) wrapResidual(scan *planop.Plan, qa analysis.QueryAnalysis, satisfied []predicate.FieldCondition, totalSel float64) *planop.Plan {
	if len(satisfied) >= len(qa.FieldConditions) {
		return scan
	}
	satisfiedSel := en.combinedSelectivity(satisfied, qa.RecordType)
	residualSel := 1.0
	if satisfiedSel > 0 {
		residualSel = totalSel / satisfiedSel
	}
	if residualSel > 1 {
		residualSel = 1
	}
	if residualSel < 0 {
		residualSel = 0
	}
	return planop.Filter(scan, qa.Normalized, residualSel)
}

func (en *Enumerator) combinedSelectivity(fcs []predicate.FieldCondition, recordType string) float64 {
	sels := make([]float64, len(fcs))
	for i, fc := range fcs {
		sels[i] = fieldConditionSelectivity(fc, recordType, en.Snapshot)
	}
	return stats.CombineAnd(sels)
}

func (en *Enumerator) estimateEntries(recordType string, selectivity float64) float64 {
	rows := float64(en.Snapshot.EstimatedRowCount(recordType))
	return rows * selectivity
}

// seekKeys reports the set of seek keys an IndexSeek could use for the
// satisfied conditions, and whether a seek is eligible at all: every
// condition but the last must be a single-value equality, and the last
// must be an equality (K=1) or a small IN (K=|values|) (spec.md §4.5
// step 2: "Emit IndexSeek iff all satisfied conditions are equalities or
// small In").
func (en *Enumerator) seekKeys(idx index.Descriptor, satisfied []predicate.FieldCondition) ([]any, bool) {
	if len(satisfied) == 0 {
		return nil, false
	}
	for _, fc := range satisfied[:len(satisfied)-1] {
		if fc.Kind != predicate.FCEquals {
			return nil, false
		}
	}
	last := satisfied[len(satisfied)-1]
	switch last.Kind {
	case predicate.FCEquals:
		return []any{last.Value}, true
	case predicate.FCIn:
		if len(last.Values) <= smallInThreshold {
			return append([]any(nil), last.Values...), true
		}
	}
	return nil, false
}

// expandInList implements spec.md §4.5 step 3 for one In field condition.
func (en *Enumerator) expandInList(fc predicate.FieldCondition, qa analysis.QueryAnalysis, indexes []index.Descriptor, totalSel float64) []*planop.Plan {
	var idxOnField *index.Descriptor
	for i := range indexes {
		if len(indexes[i].KeyFields) > 0 && indexes[i].KeyFields[0] == fc.Field {
			idxOnField = &indexes[i]
			break
		}
	}

	n := len(fc.Values)
	switch {
	case idxOnField != nil && en.Config.EnableIndexUnion && n <= en.Config.InUnionThreshold:
		children := make([]*planop.Plan, 0, n)
		for _, v := range fc.Values {
			sel := fieldConditionSelectivity(predicate.FieldCondition{Field: fc.Field, Kind: predicate.FCEquals, Value: v}, qa.RecordType, en.Snapshot)
			seek := planop.IndexSeek(qa.RecordType, *idxOnField, []any{v}, []predicate.FieldCondition{{Field: fc.Field, Kind: predicate.FCEquals, Value: v}})
			seek.EstimatedRows = en.estimateEntries(qa.RecordType, sel)
			seek.Selectivity = sel
			seek.TotalSelectivity = totalSel
			children = append(children, seek)
		}
		return []*planop.Plan{planop.Union(children, true)}

	case idxOnField != nil && n <= en.Config.InJoinThreshold:
		sel := fieldConditionSelectivity(fc, qa.RecordType, en.Snapshot)
		seek := planop.IndexSeek(qa.RecordType, *idxOnField, toAnySlice(fc.Values), []predicate.FieldCondition{fc})
		seek.InJoin = true
		seek.EstimatedRows = en.estimateEntries(qa.RecordType, sel)
		seek.Selectivity = sel
		seek.TotalSelectivity = totalSel
		return []*planop.Plan{seek}

	case idxOnField == nil && n <= smallInThreshold:
		equalities := make([]*predicate.Predicate, 0, n)
		for _, v := range fc.Values {
			equalities = append(equalities, predicate.Cmp(fc.Field, predicate.OpEquals, v))
		}
		orPred := predicate.Or(equalities...)
		sel := predicateSelectivity(orPred, qa.RecordType, en.Snapshot)
		scan := planop.TableScan(qa.RecordType)
		return []*planop.Plan{planop.Filter(scan, orPred, sel)}

	default:
		return nil
	}
}

func toAnySlice(values []any) []any {
	return append([]any(nil), values...)
}

func fieldSet(fcs []predicate.FieldCondition) map[string]struct{} {
	set := make(map[string]struct{}, len(fcs))
	for _, fc := range fcs {
		set[fc.Field] = struct{}{}
	}
	return set
}

func disjointFieldSets(a, b map[string]struct{}) bool {
	for f := range a {
		if _, ok := b[f]; ok {
			return false
		}
	}
	return true
}

// disjointIndexPairs returns pairs of indexes that each satisfy at least
// one condition, on entirely disjoint sets of fields — the precondition
// for index intersection (spec.md §4.5 step 5).
func (en *Enumerator) disjointIndexPairs(indexes []index.Descriptor, qa analysis.QueryAnalysis) [][2]index.Descriptor {
	type satisfiedIdx struct {
		idx    index.Descriptor
		fields map[string]struct{}
	}
	var eligible []satisfiedIdx
	for _, idx := range indexes {
		if idx.Kind == index.Bitmap {
			continue
		}
		s := en.satisfiedConditions(idx, qa)
		if len(s) == 0 {
			continue
		}
		eligible = append(eligible, satisfiedIdx{idx: idx, fields: fieldSet(s)})
	}
	var out [][2]index.Descriptor
	for i := 0; i < len(eligible); i++ {
		for j := i + 1; j < len(eligible); j++ {
			if disjointFieldSets(eligible[i].fields, eligible[j].fields) {
				out = append(out, [2]index.Descriptor{eligible[i].idx, eligible[j].idx})
			}
		}
	}
	return out
}

// bitmapSupportedAccess reports whether a field condition kind is one of
// the three bitmap-plannable access types (spec.md §4.5 step 6:
// "equality, in, null-check").
func bitmapSupportedAccess(fc predicate.FieldCondition) bool {
	switch fc.Kind {
	case predicate.FCEquals, predicate.FCIn, predicate.FCIsNull:
		return true
	default:
		return false
	}
}

// bitmapPlan builds a BitmapScan (single eligible column) or
// BitmapCombine (multiple) candidate over every field condition with a
// suitable bitmap index available.
func (en *Enumerator) bitmapPlan(qa analysis.QueryAnalysis, totalSel float64) (*planop.Plan, bool) {
	var scans []*planop.Plan
	var sels []float64
	for _, fc := range qa.FieldConditions {
		if !bitmapSupportedAccess(fc) {
			continue
		}
		col, ok := en.Bitmaps.ColumnIndex(qa.RecordType, fc.Field)
		if !ok || !bitmap.IsSuitable(col.DistinctValues(), bitmap.DefaultMaxCardinality) {
			continue
		}
		sel := fieldConditionSelectivity(fc, qa.RecordType, en.Snapshot)
		scan := planop.BitmapScan(qa.RecordType, index.Descriptor{Name: fc.Field, RecordType: qa.RecordType, KeyFields: []string{fc.Field}, Kind: index.Bitmap}, []predicate.FieldCondition{fc})
		scan.Selectivity = sel
		scan.TotalSelectivity = totalSel
		scans = append(scans, scan)
		sels = append(sels, sel)
	}
	if len(scans) == 0 {
		return nil, false
	}
	if len(scans) == 1 {
		return scans[0], true
	}
	combine := planop.BitmapCombine(scans)
	combine.RecordType = qa.RecordType
	combine.Selectivity = stats.CombineAnd(sels)
	combine.TotalSelectivity = totalSel
	return combine, true
}
