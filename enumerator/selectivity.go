package enumerator

import (
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/stats"
)

// predicateSelectivity recursively composes the selectivity of a
// normalized predicate tree against a record type's statistics, applying
// spec.md §4.3's composition rules (And multiplies, Or uses 1-Π(1-si),
// Not is 1-s).
func predicateSelectivity(p *predicate.Predicate, recordType string, snap *stats.Snapshot) float64 {
	if p == nil {
		return 1
	}
	switch p.Kind {
	case predicate.KindTrue:
		return 1
	case predicate.KindFalse:
		return 0
	case predicate.KindNot:
		return stats.CombineNot(predicateSelectivity(p.Inner, recordType, snap))
	case predicate.KindAnd:
		sels := make([]float64, len(p.Children))
		for i, c := range p.Children {
			sels[i] = predicateSelectivity(c, recordType, snap)
		}
		return stats.CombineAnd(sels)
	case predicate.KindOr:
		sels := make([]float64, len(p.Children))
		for i, c := range p.Children {
			sels[i] = predicateSelectivity(c, recordType, snap)
		}
		return stats.CombineOr(sels)
	case predicate.KindComparison:
		return comparisonSelectivity(p, recordType, snap)
	default:
		return 1
	}
}

func comparisonSelectivity(p *predicate.Predicate, recordType string, snap *stats.Snapshot) float64 {
	switch p.Op {
	case predicate.OpEquals:
		return snap.EqualitySelectivity(recordType, p.Field, p.Value)
	case predicate.OpNotEquals:
		return stats.CombineNot(snap.EqualitySelectivity(recordType, p.Field, p.Value))
	case predicate.OpIsNull:
		return snap.NullSelectivity(recordType, p.Field)
	case predicate.OpIsNotNull:
		return stats.CombineNot(snap.NullSelectivity(recordType, p.Field))
	case predicate.OpIn:
		return snap.InSelectivity(recordType, p.Field, p.Values)
	case predicate.OpLessThan:
		return snap.RangeSelectivity(recordType, p.Field, nil, toOrdered(p.Value), true, false)
	case predicate.OpLessEq:
		return snap.RangeSelectivity(recordType, p.Field, nil, toOrdered(p.Value), true, true)
	case predicate.OpGreaterThan:
		return snap.RangeSelectivity(recordType, p.Field, toOrdered(p.Value), nil, false, true)
	case predicate.OpGreaterEq:
		return snap.RangeSelectivity(recordType, p.Field, toOrdered(p.Value), nil, true, true)
	case predicate.OpContains, predicate.OpHasPrefix, predicate.OpHasSuffix:
		return snap.PatternSelectivity(recordType, p.Field)
	case predicate.OpTextSearch:
		return snap.TextSearchSelectivity(recordType, p.Field)
	case predicate.OpSpatial, predicate.OpVectorNear:
		return stats.DefaultFallbacks.RangeSelectivity
	default:
		return stats.DefaultFallbacks.EqualitySelectivity
	}
}

func toOrdered(v any) stats.OrderedValue {
	switch t := v.(type) {
	case float64:
		return stats.Float64Value(t)
	case int:
		return stats.Float64Value(float64(t))
	case int64:
		return stats.Float64Value(float64(t))
	case string:
		return stats.StringValue(t)
	default:
		return nil
	}
}

// fieldConditionSelectivity estimates the selectivity of a single flat
// FieldCondition, used when sizing index access paths that satisfy it.
func fieldConditionSelectivity(fc predicate.FieldCondition, recordType string, snap *stats.Snapshot) float64 {
	switch fc.Kind {
	case predicate.FCEquals:
		return snap.EqualitySelectivity(recordType, fc.Field, fc.Value)
	case predicate.FCNotEquals:
		return stats.CombineNot(snap.EqualitySelectivity(recordType, fc.Field, fc.Value))
	case predicate.FCIn:
		return snap.InSelectivity(recordType, fc.Field, fc.Values)
	case predicate.FCNotIn:
		return stats.CombineNot(snap.InSelectivity(recordType, fc.Field, fc.Values))
	case predicate.FCIsNull:
		if fc.IsNull {
			return snap.NullSelectivity(recordType, fc.Field)
		}
		return stats.CombineNot(snap.NullSelectivity(recordType, fc.Field))
	case predicate.FCRange:
		return snap.RangeSelectivity(recordType, fc.Field, toOrdered(fc.Lower), toOrdered(fc.Upper), fc.LowerInclusive, fc.UpperInclusive)
	case predicate.FCStringPattern:
		return snap.PatternSelectivity(recordType, fc.Field)
	case predicate.FCTextSearch:
		return snap.TextSearchSelectivity(recordType, fc.Field)
	default:
		return stats.DefaultFallbacks.RangeSelectivity
	}
}
