// Package costmodel defines the weighted cost constants and the PlanCost
// accumulator the cost estimator fills in for each physical operator
// (spec.md §4.4).
package costmodel

// Weights bundles every tunable constant the cost estimator's formulas
// reference. Defaults approximate the relative expense of an ordered
// key-value store's operations: an index seek is cheap, a full record
// fetch is not, and a sort or dedup pass over many rows dominates
// everything else.
type Weights struct {
	// IndexReadWeight and RecordFetchWeight scale raw read/fetch counts
	// into the same cost unit.
	IndexReadWeight  float64
	RecordFetchWeight float64
	PostFilterWeight float64
	SortWeight       float64

	// RangeInitiationWeight is the fixed per-scan setup cost added to
	// every IndexScan/IndexOnlyScan/Union child (spec.md §4.4).
	RangeInitiationWeight float64
	// DedupWeight scales Union(deduplicate=true)'s extra per-row cost.
	DedupWeight float64
	// IntersectionWeight/IntersectionFetchWeight scale Intersection's
	// per-index-read and per-result-row overhead.
	IntersectionWeight      float64
	IntersectionFetchWeight float64
	// IntersectionSurvivalRatio is the heuristic fraction of the smaller
	// child's fetches assumed to survive an index intersection (spec.md
	// §4.4: "estimated result size = min(childFetches) · 0.1"). Exposed
	// as a weight rather than hard-coded so callers can recalibrate it
	// against observed intersection selectivity without touching the
	// estimator.
	IntersectionSurvivalRatio float64

	// Bitmap weights (spec.md §4.5 step 6, §4.8).
	WBitOp          float64
	WBitmapToRowID  float64

	// InJoinFanoutCost multiplies the range-initiation weight charged to
	// an in-join IndexSeek candidate; its index reads and record fetches
	// are costed as for a plain IndexSeek (spec.md §9 Open Question:
	// "IN-join cost model left unspecified").
	InJoinFanoutCost float64

	// Default selectivity fallbacks for fields with no collected
	// statistics (spec.md §4.3). The enumerator's selectivity estimates
	// take their fallbacks from stats.DefaultFallbacks; these fields are
	// not read by any package.
	DefaultEqualitySelectivity  float64
	DefaultRangeSelectivity     float64
	DefaultPatternSelectivity   float64
	DefaultNullSelectivity      float64
	DefaultTextSearchSelectivity float64
}

// DefaultWeights mirrors common optimizer defaults; callers may override
// individual fields (Weights is a plain struct, not a singleton).
var DefaultWeights = Weights{
	IndexReadWeight:           1.0,
	RecordFetchWeight:         4.0,
	PostFilterWeight:          1.0,
	SortWeight:                2.0,
	RangeInitiationWeight:     2.0,
	DedupWeight:               0.5,
	IntersectionWeight:        1.0,
	IntersectionFetchWeight:   4.0,
	IntersectionSurvivalRatio: 0.1,
	WBitOp:                    0.05,
	WBitmapToRowID:            4.0,
	InJoinFanoutCost:          1.5,
	DefaultEqualitySelectivity:   0.01,
	DefaultRangeSelectivity:      0.33,
	DefaultPatternSelectivity:    0.05,
	DefaultNullSelectivity:       0.01,
	DefaultTextSearchSelectivity: 0.1,
}

// PlanCost is the cost vector the estimator accumulates for one physical
// operator subtree (spec.md §4.4).
type PlanCost struct {
	IndexReads      float64
	RecordFetches   float64
	PostFilterCount float64
	RequiresSort    bool
	AdditionalCost  float64
}

// Add returns the element-wise sum of c and other, with RequiresSort set
// if either requires it, used by operators (Union, Intersection) that
// combine multiple children's costs.
func (c PlanCost) Add(other PlanCost) PlanCost {
	return PlanCost{
		IndexReads:      c.IndexReads + other.IndexReads,
		RecordFetches:   c.RecordFetches + other.RecordFetches,
		PostFilterCount: c.PostFilterCount + other.PostFilterCount,
		RequiresSort:    c.RequiresSort || other.RequiresSort,
		AdditionalCost:  c.AdditionalCost + other.AdditionalCost,
	}
}

// Scale multiplies every numeric field by factor — used by Limit's
// early-termination scaling (spec.md §4.4).
func (c PlanCost) Scale(factor float64) PlanCost {
	return PlanCost{
		IndexReads:      c.IndexReads * factor,
		RecordFetches:   c.RecordFetches * factor,
		PostFilterCount: c.PostFilterCount * factor,
		RequiresSort:    c.RequiresSort,
		AdditionalCost:  c.AdditionalCost * factor,
	}
}

// TotalCost collapses the cost vector into the single scalar the
// selector sorts candidates by (spec.md §4.7).
func (c PlanCost) TotalCost(w Weights) float64 {
	total := c.IndexReads*w.IndexReadWeight +
		c.RecordFetches*w.RecordFetchWeight +
		c.PostFilterCount*w.PostFilterWeight +
		c.AdditionalCost
	if c.RequiresSort {
		total += c.RecordFetches * w.SortWeight
	}
	return total
}
