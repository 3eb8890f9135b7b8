// Package analysis turns a raw query (predicates, sort, limit/offset)
// into the QueryAnalysis the enumerator drives off of: a flattened field
// condition list, per-field access requirements, and a presence-based set
// of detected query patterns.
package analysis

import (
	"sort"

	"github.com/mantisdb/planner/predicate"
)

// SortOrder is the direction of one sort key.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// SortDescriptor names one sort key and its direction.
type SortDescriptor struct {
	Field string
	Order SortOrder
}

// Query is the consumed input surface: predicates plus sort/pagination
// (spec.md §6, "Query surface").
type Query struct {
	Predicates      []*predicate.Predicate
	SortDescriptors []SortDescriptor
	FetchLimit      *int
	FetchOffset     *int
	RecordType      string
}

// Pattern is a presence-based hint about the query's shape. Patterns
// guide enumeration heuristics; they are never used as a dispatch key
// that skips other candidate generation.
type Pattern int

const (
	PointLookup Pattern = iota
	RangeQuery
	MultiValueLookup
	FullTextSearch
	VectorSearch
	SpatialQuery
	TopN
	Pagination
)

func (p Pattern) String() string {
	switch p {
	case PointLookup:
		return "PointLookup"
	case RangeQuery:
		return "RangeQuery"
	case MultiValueLookup:
		return "MultiValueLookup"
	case FullTextSearch:
		return "FullTextSearch"
	case VectorSearch:
		return "VectorSearch"
	case SpatialQuery:
		return "SpatialQuery"
	case TopN:
		return "TopN"
	case Pagination:
		return "Pagination"
	default:
		return "Unknown"
	}
}

// FieldRequirement aggregates everything the query needs from one field:
// which access types it is used with, and whether an ordering over it is
// required.
type FieldRequirement struct {
	Field          string
	AccessTypes    map[predicate.AccessType]struct{}
	RequiresSort   bool
}

// HasAccessType reports whether the field is used with the given access
// type anywhere in the query.
func (r FieldRequirement) HasAccessType(a predicate.AccessType) bool {
	_, ok := r.AccessTypes[a]
	return ok
}

// QueryAnalysis is the enumerator's entire view of a query (spec.md
// §4.2).
type QueryAnalysis struct {
	Original         *predicate.Predicate
	Normalized       *predicate.Predicate
	FieldConditions  []predicate.FieldCondition
	FieldRequirements map[string]FieldRequirement
	SortDescriptors  []SortDescriptor
	FetchLimit       *int
	FetchOffset      *int
	Patterns         map[Pattern]struct{}
	ReferencedFields []string
	RecordType       string
}

// HasPattern reports whether p was detected in this query.
func (a QueryAnalysis) HasPattern(p Pattern) bool {
	_, ok := a.Patterns[p]
	return ok
}

// Analyze builds a QueryAnalysis from a Query. normalized is the
// predicate tree after NNF (and, where budget allows, DNF) conversion —
// callers run normalize.NNF/TryConvert themselves and pass the result in,
// since normalization failure handling (tryConvert's fallback-to-original
// policy) is a planner-level decision, not an analysis-level one.
func Analyze(q Query, original, normalized *predicate.Predicate) QueryAnalysis {
	fcs := flattenFieldConditions(normalized)

	reqs := make(map[string]FieldRequirement)
	for _, fc := range fcs {
		r, ok := reqs[fc.Field]
		if !ok {
			r = FieldRequirement{Field: fc.Field, AccessTypes: make(map[predicate.AccessType]struct{})}
		}
		for _, at := range fc.AccessTypes() {
			r.AccessTypes[at] = struct{}{}
		}
		reqs[fc.Field] = r
	}
	for _, sd := range q.SortDescriptors {
		r, ok := reqs[sd.Field]
		if !ok {
			r = FieldRequirement{Field: sd.Field, AccessTypes: make(map[predicate.AccessType]struct{})}
		}
		r.RequiresSort = true
		r.AccessTypes[predicate.AccessOrdering] = struct{}{}
		reqs[sd.Field] = r
	}

	patterns := detectPatterns(fcs, q)

	referenced := normalized.ReferencedFields()
	sort.Strings(referenced)

	return QueryAnalysis{
		Original:          original,
		Normalized:        normalized,
		FieldConditions:   fcs,
		FieldRequirements: reqs,
		SortDescriptors:   q.SortDescriptors,
		FetchLimit:        q.FetchLimit,
		FetchOffset:       q.FetchOffset,
		Patterns:          patterns,
		ReferencedFields:  referenced,
		RecordType:        q.RecordType,
	}
}

// flattenFieldConditions walks the predicate tree and converts each leaf
// Comparison it can model into a FieldCondition. Comparisons reachable
// only under an un-invertible Not (e.g. Not(In(...))) are still emitted,
// tagged with their raw operator semantics preserved by the Not wrapper
// having already been pushed down or kept by NNF.
func flattenFieldConditions(p *predicate.Predicate) []predicate.FieldCondition {
	var out []predicate.FieldCondition
	p.Walk(func(n *predicate.Predicate) {
		if n.Kind != predicate.KindComparison {
			return
		}
		if fc, ok := toFieldCondition(n); ok {
			out = append(out, fc)
		}
	})
	return mergeRangeConditions(out)
}

func toFieldCondition(n *predicate.Predicate) (predicate.FieldCondition, bool) {
	switch n.Op {
	case predicate.OpEquals:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCEquals, Value: n.Value}, true
	case predicate.OpNotEquals:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCNotEquals, Value: n.Value}, true
	case predicate.OpLessThan:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCRange, Upper: n.Value, UpperInclusive: false, Lower: nil}, true
	case predicate.OpLessEq:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCRange, Upper: n.Value, UpperInclusive: true, Lower: nil}, true
	case predicate.OpGreaterThan:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCRange, Lower: n.Value, LowerInclusive: false, Upper: nil}, true
	case predicate.OpGreaterEq:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCRange, Lower: n.Value, LowerInclusive: true, Upper: nil}, true
	case predicate.OpIsNull:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCIsNull, IsNull: true}, true
	case predicate.OpIsNotNull:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCIsNull, IsNull: false}, true
	case predicate.OpIn:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCIn, Values: n.Values}, true
	case predicate.OpHasPrefix:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCStringPattern, PatternKind: predicate.PatternHasPrefix, Pattern: stringValue(n.Value)}, true
	case predicate.OpHasSuffix:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCStringPattern, PatternKind: predicate.PatternHasSuffix, Pattern: stringValue(n.Value)}, true
	case predicate.OpContains:
		return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCStringPattern, PatternKind: predicate.PatternContains, Pattern: stringValue(n.Value)}, true
	case predicate.OpTextSearch:
		if payload, ok := n.Value.(predicate.TextSearchPayload); ok {
			return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCTextSearch, Terms: payload.Terms, TextSearchOp: payload.Mode}, true
		}
	case predicate.OpSpatial:
		if payload, ok := n.Value.(predicate.SpatialPayload); ok {
			return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCSpatial, SpatialOp: payload.Op, SpatialRegion: payload.Region}, true
		}
	case predicate.OpVectorNear:
		if payload, ok := n.Value.(predicate.VectorPayload); ok {
			return predicate.FieldCondition{Field: n.Field, Kind: predicate.FCVectorSimilarity, VectorK: payload.K, VectorTarget: payload.Target}, true
		}
	}
	return predicate.FieldCondition{}, false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// mergeRangeConditions combines a one-sided FCRange lower bound and a
// one-sided FCRange upper bound on the same field — produced by And(>=,
// <=) — into a single two-sided range condition, since the cost model
// and enumerator reason about ranges as one bounded interval.
func mergeRangeConditions(fcs []predicate.FieldCondition) []predicate.FieldCondition {
	out := make([]predicate.FieldCondition, 0, len(fcs))
	pending := make(map[string]int) // field -> index in out of a one-sided range awaiting its other bound
	for _, fc := range fcs {
		if fc.Kind != predicate.FCRange {
			out = append(out, fc)
			continue
		}
		if idx, ok := pending[fc.Field]; ok {
			merged := out[idx]
			if fc.Lower != nil && merged.Lower == nil {
				merged.Lower = fc.Lower
				merged.LowerInclusive = fc.LowerInclusive
			}
			if fc.Upper != nil && merged.Upper == nil {
				merged.Upper = fc.Upper
				merged.UpperInclusive = fc.UpperInclusive
			}
			out[idx] = merged
			if merged.Lower != nil && merged.Upper != nil {
				delete(pending, fc.Field)
			}
			continue
		}
		out = append(out, fc)
		if fc.Lower == nil || fc.Upper == nil {
			pending[fc.Field] = len(out) - 1
		}
	}
	return out
}

func detectPatterns(fcs []predicate.FieldCondition, q Query) map[Pattern]struct{} {
	patterns := make(map[Pattern]struct{})

	equalityCount := 0
	for _, fc := range fcs {
		switch fc.Kind {
		case predicate.FCEquals:
			equalityCount++
		case predicate.FCRange:
			patterns[RangeQuery] = struct{}{}
		case predicate.FCIn:
			patterns[MultiValueLookup] = struct{}{}
		case predicate.FCTextSearch:
			patterns[FullTextSearch] = struct{}{}
		case predicate.FCVectorSimilarity:
			patterns[VectorSearch] = struct{}{}
		case predicate.FCSpatial:
			patterns[SpatialQuery] = struct{}{}
		}
	}
	if equalityCount == 1 {
		patterns[PointLookup] = struct{}{}
	}
	if len(q.SortDescriptors) > 0 && q.FetchLimit != nil {
		patterns[TopN] = struct{}{}
	}
	if q.FetchOffset != nil && *q.FetchOffset > 0 {
		patterns[Pagination] = struct{}{}
	}
	return patterns
}
