// Package stats implements cardinality and selectivity estimation: a
// combined MCV + equi-depth-histogram estimator, a HyperLogLog++ distinct
// counter, and the snapshot/cache machinery the planner reads statistics
// through (spec.md §3 Statistics, §4.3 Selectivity estimation).
package stats

import "sort"

// MCVEntry is one most-common-value tabulation (spec.md §3).
type MCVEntry struct {
	Value     any
	Frequency float64 // in [0,1]
	Count     int64
}

// MCVList is an ordered (by Frequency desc) list of MCVEntry, bounded by
// MaxSize/MinFrequency at construction time.
type MCVList struct {
	Entries []MCVEntry
}

// BuildMCV selects the maxSize highest-frequency values whose frequency is
// at least minFrequency, from a raw value->count tabulation and a known
// total row count.
func BuildMCV(counts map[any]int64, totalRows int64, maxSize int, minFrequency float64) MCVList {
	if totalRows <= 0 {
		return MCVList{}
	}
	entries := make([]MCVEntry, 0, len(counts))
	for v, c := range counts {
		freq := float64(c) / float64(totalRows)
		if freq >= minFrequency {
			entries = append(entries, MCVEntry{Value: v, Frequency: freq, Count: c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Frequency != entries[j].Frequency {
			return entries[i].Frequency > entries[j].Frequency
		}
		return entries[i].Count > entries[j].Count
	})
	if maxSize > 0 && len(entries) > maxSize {
		entries = entries[:maxSize]
	}
	return MCVList{Entries: entries}
}

// Lookup returns the stored frequency for v and true if v is tabulated.
func (m MCVList) Lookup(v any) (float64, bool) {
	for _, e := range m.Entries {
		if e.Value == v {
			return e.Frequency, true
		}
	}
	return 0, false
}

// Contains reports whether v is in the MCV list.
func (m MCVList) Contains(v any) bool {
	_, ok := m.Lookup(v)
	return ok
}

// TotalFrequency sums every entry's frequency — spec.md §3's invariant
// "Σ frequency = totalFrequency ≤ 1".
func (m MCVList) TotalFrequency() float64 {
	var total float64
	for _, e := range m.Entries {
		total += e.Frequency
	}
	return total
}
