// Package planop defines the physical operator tree the enumerator
// builds, the rewriter transforms, and the selector chooses among
// (spec.md §2 data flow, §4.5 enumeration, §4.6 rewriter).
package planop

import (
	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/costmodel"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/predicate"
)

// Kind identifies a physical operator variant.
type Kind int

const (
	KindTableScan Kind = iota
	KindIndexScan
	KindIndexSeek
	KindIndexOnlyScan
	KindUnion
	KindIntersection
	KindFilter
	KindSort
	KindLimit
	KindProject
	KindFullTextScan
	KindVectorSearch
	KindSpatialScan
	KindAggregation
	KindBitmapScan
	KindBitmapCombine
)

func (k Kind) String() string {
	switch k {
	case KindTableScan:
		return "TableScan"
	case KindIndexScan:
		return "IndexScan"
	case KindIndexSeek:
		return "IndexSeek"
	case KindIndexOnlyScan:
		return "IndexOnlyScan"
	case KindUnion:
		return "Union"
	case KindIntersection:
		return "Intersection"
	case KindFilter:
		return "Filter"
	case KindSort:
		return "Sort"
	case KindLimit:
		return "Limit"
	case KindProject:
		return "Project"
	case KindFullTextScan:
		return "FullTextScan"
	case KindVectorSearch:
		return "VectorSearch"
	case KindSpatialScan:
		return "SpatialScan"
	case KindAggregation:
		return "Aggregation"
	case KindBitmapScan:
		return "BitmapScan"
	case KindBitmapCombine:
		return "BitmapCombine"
	default:
		return "Unknown"
	}
}

// Plan is a node in the immutable physical operator tree. Ownership: the
// enumerator builds trees; the rewriter never mutates a node in place, it
// returns a replacement (spec.md §2 "Ownership" note).
type Plan struct {
	Kind Kind

	// RecordType is the record type this subtree scans or operates over.
	RecordType string

	// Scan fields (TableScan/IndexScan/IndexSeek/IndexOnlyScan/
	// FullTextScan/VectorSearch/SpatialScan/BitmapScan).
	Index           *index.Descriptor
	Reverse         bool
	SatisfiedFields []predicate.FieldCondition
	SeekKeys        []any // IndexSeek: one value per seek key
	// InJoin marks an IndexSeek built from IN-list expansion's
	// index-nested-loop branch, so the cost estimator can apply the
	// in-join fanout weight instead of a plain seek's cost (spec.md §9
	// Open Question: IN-join cost model).
	InJoin bool
	EstimatedRows   float64
	// Selectivity is the combined selectivity of the conditions in
	// SatisfiedFields (on a Filter node: the residual predicate's
	// selectivity); TotalSelectivity is the whole query's selectivity.
	// The cost estimator compares the two to size IndexScan's
	// post-filter count (spec.md §4.4).
	Selectivity      float64
	TotalSelectivity float64

	// VectorSearch
	VectorK        int
	VectorEfSearch int

	// Union/Intersection/BitmapCombine
	Children     []*Plan
	Deduplicate  bool

	// Filter
	Input     *Plan
	Predicate *predicate.Predicate

	// Sort
	SortDescriptors []analysis.SortDescriptor

	// Limit
	Limit  *int
	Offset *int

	// Project
	Fields []string

	// Aggregation
	GroupBy []string

	// Cost is filled in by the cost estimator once the tree shape is
	// fixed; zero value means "not yet costed".
	Cost costmodel.PlanCost
}

// TableScan builds a full scan of recordType.
func TableScan(recordType string) *Plan {
	return &Plan{Kind: KindTableScan, RecordType: recordType}
}

// IndexScan builds a scan driven by idx, optionally reversed.
func IndexScan(recordType string, idx index.Descriptor, reverse bool, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindIndexScan, RecordType: recordType, Index: &idx, Reverse: reverse, SatisfiedFields: satisfied}
}

// IndexOnlyScan builds a covering scan driven by idx.
func IndexOnlyScan(recordType string, idx index.Descriptor, reverse bool, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindIndexOnlyScan, RecordType: recordType, Index: &idx, Reverse: reverse, SatisfiedFields: satisfied}
}

// IndexSeek builds a point-lookup scan over one or more seek keys.
func IndexSeek(recordType string, idx index.Descriptor, seekKeys []any, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindIndexSeek, RecordType: recordType, Index: &idx, SeekKeys: seekKeys, SatisfiedFields: satisfied}
}

// Union combines children, deduplicating output if dedup is set.
func Union(children []*Plan, dedup bool) *Plan {
	return &Plan{Kind: KindUnion, Children: children, Deduplicate: dedup}
}

// Intersection combines children, keeping only rows present in all.
func Intersection(children []*Plan) *Plan {
	return &Plan{Kind: KindIntersection, Children: children}
}

// Filter wraps input with a residual predicate of the given measured
// selectivity.
func Filter(input *Plan, pred *predicate.Predicate, selectivity float64) *Plan {
	return &Plan{Kind: KindFilter, Input: input, Predicate: pred, Selectivity: selectivity}
}

// Sort wraps input with the given sort requirement.
func Sort(input *Plan, descriptors []analysis.SortDescriptor) *Plan {
	return &Plan{Kind: KindSort, Input: input, SortDescriptors: descriptors}
}

// Limit wraps input with an optional limit/offset.
func Limit(input *Plan, limit, offset *int) *Plan {
	return &Plan{Kind: KindLimit, Input: input, Limit: limit, Offset: offset}
}

// Project wraps input, restricting output to fields.
func Project(input *Plan, fields []string) *Plan {
	return &Plan{Kind: KindProject, Input: input, Fields: fields}
}

// FullTextScan builds a full-text index scan.
func FullTextScan(recordType string, idx index.Descriptor, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindFullTextScan, RecordType: recordType, Index: &idx, SatisfiedFields: satisfied}
}

// VectorSearch builds a k-nearest-neighbor scan.
func VectorSearch(recordType string, idx index.Descriptor, k, efSearch int) *Plan {
	return &Plan{Kind: KindVectorSearch, RecordType: recordType, Index: &idx, VectorK: k, VectorEfSearch: efSearch}
}

// SpatialScan builds a spatial index scan.
func SpatialScan(recordType string, idx index.Descriptor, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindSpatialScan, RecordType: recordType, Index: &idx, SatisfiedFields: satisfied}
}

// Aggregation builds a pre-computed group-by lookup.
func Aggregation(recordType string, groupBy []string) *Plan {
	return &Plan{Kind: KindAggregation, RecordType: recordType, GroupBy: groupBy}
}

// BitmapScan builds a per-value bitmap lookup over idx.
func BitmapScan(recordType string, idx index.Descriptor, satisfied []predicate.FieldCondition) *Plan {
	return &Plan{Kind: KindBitmapScan, RecordType: recordType, Index: &idx, SatisfiedFields: satisfied}
}

// BitmapCombine ANDs/ORs multiple BitmapScan children before converting
// to row IDs.
func BitmapCombine(children []*Plan) *Plan {
	return &Plan{Kind: KindBitmapCombine, Children: children}
}

// Walk calls fn for every node in the tree, pre-order.
func (p *Plan) Walk(fn func(*Plan)) {
	if p == nil {
		return
	}
	fn(p)
	if p.Input != nil {
		p.Input.Walk(fn)
	}
	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// ProvidesOwnOrdering reports whether this node's own semantics guarantee
// output ordering: an IndexSeek with at most one seek key, and
// VectorSearch via similarity order. Index scans are not covered here;
// EliminateRedundantSort checks them against the sort requirement.
func (p *Plan) ProvidesOwnOrdering() bool {
	switch p.Kind {
	case KindIndexSeek:
		return len(p.SeekKeys) <= 1
	case KindVectorSearch:
		return true
	default:
		return false
	}
}
