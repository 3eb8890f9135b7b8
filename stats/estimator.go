package stats

// Fallbacks bundles the default selectivity constants the estimator uses
// when no statistics are available for a field — spec.md §4.3's fallback
// table, kept here (rather than in costmodel) so stats has no
// dependency on the package that consumes it.
type Fallbacks struct {
	EqualitySelectivity  float64
	RangeSelectivity     float64
	PatternSelectivity   float64
	NullSelectivity      float64
	TextSearchSelectivity float64
}

// DefaultFallbacks mirrors common optimizer defaults (roughly PostgreSQL's
// unanalyzed-column constants) for fields with no collected statistics.
var DefaultFallbacks = Fallbacks{
	EqualitySelectivity:   0.01,
	RangeSelectivity:      0.33,
	PatternSelectivity:    0.05,
	NullSelectivity:       0.01,
	TextSearchSelectivity: 0.1,
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// EqualitySelectivity estimates P(field == value) for one field of one
// record type: the MCV tabulation if value is an MCV, else the
// histogram's per-bucket estimate, else the fallback constant (spec.md
// §4.3: "eq(v) = mcv(v) if v ∈ MCV else hist_eq(v)").
func (s *Snapshot) EqualitySelectivity(recordType, field string, value any) float64 {
	fs, ok := s.FieldStatsFor(recordType, field)
	if !ok {
		return DefaultFallbacks.EqualitySelectivity
	}
	if freq, ok := fs.MCV.Lookup(value); ok {
		return clamp01(freq)
	}
	ordered, ok := value.(OrderedValue)
	if !ok || len(fs.Histogram.Buckets) == 0 {
		return DefaultFallbacks.EqualitySelectivity
	}
	total := s.rowCountOr(recordType, fs)
	return clamp01(fs.Histogram.EqualitySelectivity(ordered, total))
}

// RangeSelectivity estimates P(lo ≤ field ≤ hi), each bound inclusive or
// exclusive per its flag and a nil bound unbounded, combining MCV mass
// falling in-range with the histogram's range estimate over the
// remaining (non-MCV) population (spec.md §4.3: "range(lo,hi) =
// mcv_range + hist_range").
func (s *Snapshot) RangeSelectivity(recordType, field string, lo, hi OrderedValue, loInclusive, hiInclusive bool) float64 {
	fs, ok := s.FieldStatsFor(recordType, field)
	if !ok {
		return DefaultFallbacks.RangeSelectivity
	}
	total := s.rowCountOr(recordType, fs)
	if total <= 0 {
		return DefaultFallbacks.RangeSelectivity
	}

	var mcvRange float64
	for _, e := range fs.MCV.Entries {
		ov, ok := e.Value.(OrderedValue)
		if !ok {
			continue
		}
		if inRange(ov, lo, hi, loInclusive, hiInclusive) {
			mcvRange += e.Frequency
		}
	}

	// Histogram.RangeSelectivity already divides matched bucket counts by
	// total (the whole-population row count), so hist_range is already
	// expressed relative to the whole population. Combining is therefore a
	// direct sum, not the classical mcv + hist·(1−Σmcv) formula (spec.md
	// §4.3).
	histRange := fs.Histogram.RangeSelectivity(lo, hi, loInclusive, hiInclusive, total)
	return clamp01(mcvRange + histRange)
}

// InSelectivity estimates P(field IN values) as the capped sum of
// per-value equality selectivities (spec.md §4.3: "in(V) = Σ eq(vi)
// capped at 1.0").
func (s *Snapshot) InSelectivity(recordType, field string, values []any) float64 {
	var sum float64
	for _, v := range values {
		sum += s.EqualitySelectivity(recordType, field, v)
	}
	return clamp01(sum)
}

// PatternSelectivity returns the fallback pattern-match selectivity;
// pattern statistics (prefix/suffix/substring tabulations) are outside
// this package's scope, so every pattern kind resolves to the same
// constant (spec.md §4.3 fallback table).
func (s *Snapshot) PatternSelectivity(recordType, field string) float64 {
	return DefaultFallbacks.PatternSelectivity
}

// TextSearchSelectivity returns the fallback full-text-match selectivity.
func (s *Snapshot) TextSearchSelectivity(recordType, field string) float64 {
	return DefaultFallbacks.TextSearchSelectivity
}

func (s *Snapshot) rowCountOr(recordType string, fs FieldStats) int64 {
	t, ok := s.TypeStatsFor(recordType)
	if !ok || t.RowCount <= 0 {
		return 0
	}
	return t.RowCount
}

func inRange(v, lo, hi OrderedValue, loInclusive, hiInclusive bool) bool {
	if lo != nil {
		if loInclusive {
			if v.Less(lo) {
				return false
			}
		} else if !lo.Less(v) {
			return false
		}
	}
	if hi != nil {
		if hiInclusive {
			if hi.Less(v) {
				return false
			}
		} else if !v.Less(hi) {
			return false
		}
	}
	return true
}

// CombineAnd, CombineOr and CombineNot compose already-estimated
// per-condition selectivities according to predicate boolean structure
// (spec.md §4.3: "And = product, Or = 1 − Π(1−si), Not = 1 − s"); the
// caller walks the predicate tree and picks the combinator per node.
// CombineAnd returns the product of the clamped selectivities.
func CombineAnd(selectivities []float64) float64 {
	product := 1.0
	for _, s := range selectivities {
		product *= clamp01(s)
	}
	return clamp01(product)
}

func CombineOr(selectivities []float64) float64 {
	product := 1.0
	for _, s := range selectivities {
		product *= 1 - clamp01(s)
	}
	return clamp01(1 - product)
}

func CombineNot(selectivity float64) float64 {
	return clamp01(1 - clamp01(selectivity))
}
