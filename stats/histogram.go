package stats

import "sort"

// OrderedValue is the subset of values the histogram/MCV machinery can
// compare and interpolate over. The planner only ever needs numeric and
// string fields for range estimation; callers convert other semantic
// types (dates, etc.) to one of these before handing statistics in.
type OrderedValue interface {
	Less(other OrderedValue) bool
}

// Float64Value adapts a float64 to OrderedValue.
type Float64Value float64

func (f Float64Value) Less(other OrderedValue) bool {
	return float64(f) < float64(other.(Float64Value))
}

// StringValue adapts a string to OrderedValue.
type StringValue string

func (s StringValue) Less(other OrderedValue) bool {
	return string(s) < string(other.(StringValue))
}

// Bucket is one equi-depth histogram bucket. A bucket never includes a
// value present in the MCV list — the estimator combining MCV and
// histogram relies on that exclusion to avoid double counting (spec.md §3).
type Bucket struct {
	Lower, Upper OrderedValue
	Count        int64
	Distinct     int64 // optional; 0 means unknown
}

// Histogram is an ordered, non-overlapping set of equi-depth buckets
// excluding MCV values.
type Histogram struct {
	Buckets    []Bucket
	TotalCount int64 // rows represented by the histogram (excludes MCV rows)
}

// BuildHistogram constructs an equi-depth histogram over non-MCV samples
// the caller has already sorted, splitting them into bucketCount buckets
// of near-equal size; it does no sampling or sorting itself. This is the
// "left to the statistics layer" construction spec.md §9 Open Question 4
// calls out — a simple version so the planner has something concrete to
// test against, not a tuned production sampler.
func BuildHistogram(sorted []OrderedValue, bucketCount int) Histogram {
	if len(sorted) == 0 || bucketCount <= 0 {
		return Histogram{}
	}
	if bucketCount > len(sorted) {
		bucketCount = len(sorted)
	}
	perBucket := len(sorted) / bucketCount
	remainder := len(sorted) % bucketCount

	buckets := make([]Bucket, 0, bucketCount)
	idx := 0
	for b := 0; b < bucketCount; b++ {
		size := perBucket
		if b < remainder {
			size++
		}
		if size == 0 {
			continue
		}
		lower := sorted[idx]
		upper := sorted[idx+size-1]
		buckets = append(buckets, Bucket{Lower: lower, Upper: upper, Count: int64(size)})
		idx += size
	}
	return Histogram{Buckets: buckets, TotalCount: int64(len(sorted))}
}

// EqualitySelectivity estimates the fraction of the *whole population*
// matching v == value: the owning bucket's rows per distinct value divided
// by totalRows (the whole-population row count), assuming uniform
// distribution within the bucket (spec.md §4.3).
func (h Histogram) EqualitySelectivity(value OrderedValue, totalRows int64) float64 {
	if totalRows <= 0 {
		return 0
	}
	b, ok := h.bucketFor(value)
	if !ok {
		return 0
	}
	if b.Distinct > 0 {
		return float64(b.Count) / float64(b.Distinct) / float64(totalRows)
	}
	// Fall back to assuming ~ sqrt(count) distinct values in the bucket
	// when distinct-value counts weren't collected.
	estDistinct := estimateDistinctInBucket(b)
	return float64(b.Count) / estDistinct / float64(totalRows)
}

// RangeSelectivity estimates the fraction of the whole population with
// lo <= v <= hi (bounds optional; nil means unbounded on that side).
func (h Histogram) RangeSelectivity(lo, hi OrderedValue, loInclusive, hiInclusive bool, totalRows int64) float64 {
	if totalRows <= 0 || len(h.Buckets) == 0 {
		return 0
	}
	var matched float64
	for _, b := range h.Buckets {
		overlapLow, overlapHigh, ok := overlap(b, lo, hi, loInclusive, hiInclusive)
		if !ok {
			continue
		}
		frac := bucketFraction(b, overlapLow, overlapHigh)
		matched += frac * float64(b.Count)
	}
	return matched / float64(totalRows)
}

func (h Histogram) bucketFor(value OrderedValue) (Bucket, bool) {
	for _, b := range h.Buckets {
		if !value.Less(b.Lower) && !b.Upper.Less(value) {
			return b, true
		}
	}
	return Bucket{}, false
}

func estimateDistinctInBucket(b Bucket) float64 {
	if b.Count <= 1 {
		return 1
	}
	// Heuristic: assume roughly sqrt(count) distinct values absent better
	// data, matching common PostgreSQL-style fallbacks for unanalyzed
	// columns.
	n := float64(b.Count)
	est := 1.0
	for est*est < n {
		est++
	}
	return est
}

// overlap reports whether bucket b intersects [lo,hi] and clamps the
// overlap to the bucket's own bounds.
func overlap(b Bucket, lo, hi OrderedValue, loInclusive, hiInclusive bool) (OrderedValue, OrderedValue, bool) {
	low := b.Lower
	high := b.Upper
	if lo != nil {
		if b.Upper.Less(lo) {
			return nil, nil, false
		}
		if loInclusive {
			if low.Less(lo) {
				low = lo
			}
		} else {
			if !lo.Less(low) {
				low = lo
			}
		}
	}
	if hi != nil {
		if hi.Less(b.Lower) {
			return nil, nil, false
		}
		if hiInclusive {
			if hi.Less(high) {
				high = hi
			}
		} else {
			if !high.Less(hi) {
				high = hi
			}
		}
	}
	if high.Less(low) {
		return nil, nil, false
	}
	return low, high, true
}

// bucketFraction estimates what fraction of bucket b's rows fall within
// [low, high], assuming uniform distribution across the bucket's span.
func bucketFraction(b Bucket, low, high OrderedValue) float64 {
	span := rangeSpan(b.Lower, b.Upper)
	if span <= 0 {
		return 1 // degenerate (single-value) bucket fully covered
	}
	sub := rangeSpan(low, high)
	frac := sub / span
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// rangeSpan returns a numeric width for [lo,hi] when both are
// Float64Value, or a rank-based approximation for StringValue; anything
// else returns 1 (treated as a single unit).
func rangeSpan(lo, hi OrderedValue) float64 {
	switch l := lo.(type) {
	case Float64Value:
		h, ok := hi.(Float64Value)
		if !ok {
			return 1
		}
		return float64(h) - float64(l)
	case StringValue:
		h, ok := hi.(StringValue)
		if !ok {
			return 1
		}
		return stringSpan(string(l), string(h))
	default:
		return 1
	}
}

// stringSpan approximates lexicographic distance using the first few
// bytes of each string, sufficient for uniform-within-bucket estimates.
func stringSpan(lo, hi string) float64 {
	const prefixLen = 8
	lv := stringRank(lo, prefixLen)
	hv := stringRank(hi, prefixLen)
	if hv < lv {
		return 0
	}
	return hv - lv
}

func stringRank(s string, prefixLen int) float64 {
	var rank float64
	for i := 0; i < prefixLen; i++ {
		var b byte
		if i < len(s) {
			b = s[i]
		}
		rank = rank*256 + float64(b)
	}
	return rank
}

var _ = sort.Strings // keep sort imported for future bucket-merge helpers
