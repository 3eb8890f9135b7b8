package stats

import (
	"math"
	"testing"
)

func TestBuildMCV_FiltersByMinFrequencyAndCaps(t *testing.T) {
	counts := map[any]int64{"a": 500, "b": 300, "c": 100, "d": 5}
	mcv := BuildMCV(counts, 1000, 2, 0.05)
	if len(mcv.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(mcv.Entries))
	}
	if mcv.Entries[0].Value != "a" || mcv.Entries[1].Value != "b" {
		t.Fatalf("expected [a b] in frequency order, got %v", mcv.Entries)
	}
	if mcv.TotalFrequency() <= 0 || mcv.TotalFrequency() > 1 {
		t.Fatalf("total frequency out of range: %v", mcv.TotalFrequency())
	}
}

func TestMCVList_LookupAndContains(t *testing.T) {
	mcv := BuildMCV(map[any]int64{"x": 10}, 100, 10, 0)
	if !mcv.Contains("x") {
		t.Fatal("expected x to be an MCV")
	}
	if mcv.Contains("y") {
		t.Fatal("did not expect y to be an MCV")
	}
	freq, ok := mcv.Lookup("x")
	if !ok || freq != 0.1 {
		t.Fatalf("expected freq 0.1, got %v ok=%v", freq, ok)
	}
}

func TestBuildHistogram_EqualDepthBuckets(t *testing.T) {
	values := make([]OrderedValue, 0, 100)
	for i := 0; i < 100; i++ {
		values = append(values, Float64Value(i))
	}
	h := BuildHistogram(values, 10)
	if len(h.Buckets) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(h.Buckets))
	}
	for _, b := range h.Buckets {
		if b.Count != 10 {
			t.Fatalf("expected equi-depth buckets of 10, got %d", b.Count)
		}
	}
}

func TestHistogram_RangeSelectivity_FullRangeIsOne(t *testing.T) {
	values := make([]OrderedValue, 0, 100)
	for i := 0; i < 100; i++ {
		values = append(values, Float64Value(i))
	}
	h := BuildHistogram(values, 10)
	sel := h.RangeSelectivity(Float64Value(0), Float64Value(99), true, true, 100)
	if sel < 0.9 || sel > 1.0001 {
		t.Fatalf("expected ~1.0 selectivity over the full range, got %v", sel)
	}
}

func TestHistogram_EqualitySelectivity_OutOfRangeIsZero(t *testing.T) {
	values := []OrderedValue{Float64Value(1), Float64Value(2), Float64Value(3)}
	h := BuildHistogram(values, 1)
	if sel := h.EqualitySelectivity(Float64Value(1000), 3); sel != 0 {
		t.Fatalf("expected 0 for out-of-range value, got %v", sel)
	}
}

func TestHyperLogLog_EstimateWithinTolerance(t *testing.T) {
	h := NewHyperLogLog()
	const n = 100000
	for i := 0; i < n; i++ {
		h.AddString(string(rune(i%1000)) + "-unique-" + string(rune(i)))
	}
	est := h.EstimateDistinct()
	// HyperLogLog++ at precision 14 should be within ~5% for this volume.
	lower := uint64(float64(n) * 0.9)
	upper := uint64(float64(n) * 1.1)
	if est < lower || est > upper {
		t.Fatalf("estimate %d out of tolerance [%d,%d]", est, lower, upper)
	}
}

func TestHyperLogLog_MergeIsUnion(t *testing.T) {
	a := NewHyperLogLog()
	b := NewHyperLogLog()
	for i := 0; i < 1000; i++ {
		a.AddString("a-" + string(rune(i)))
	}
	for i := 0; i < 1000; i++ {
		b.AddString("b-" + string(rune(i)))
	}
	a.Merge(b)
	est := a.EstimateDistinct()
	if est < 1500 || est > 2500 {
		t.Fatalf("merged estimate %d outside plausible union range", est)
	}
}

func TestSnapshot_EqualitySelectivity_MCVHit(t *testing.T) {
	snap := NewSnapshot()
	snap.Types["user"] = TypeStats{
		RecordType: "user",
		RowCount:   1000,
		Fields: map[string]FieldStats{
			"status": {
				FieldName: "status",
				MCV:       BuildMCV(map[any]int64{"active": 800, "inactive": 150}, 1000, 5, 0),
			},
		},
	}
	sel := snap.EqualitySelectivity("user", "status", "active")
	if sel != 0.8 {
		t.Fatalf("expected 0.8, got %v", sel)
	}
}

func TestSnapshot_EqualitySelectivity_UnknownFieldFallsBack(t *testing.T) {
	snap := NewSnapshot()
	sel := snap.EqualitySelectivity("user", "nonexistent", "x")
	if sel != DefaultFallbacks.EqualitySelectivity {
		t.Fatalf("expected fallback %v, got %v", DefaultFallbacks.EqualitySelectivity, sel)
	}
}

func TestSnapshot_InSelectivity_CapsAtOne(t *testing.T) {
	snap := NewSnapshot()
	snap.Types["user"] = TypeStats{
		RecordType: "user",
		RowCount:   100,
		Fields: map[string]FieldStats{
			"status": {
				MCV: BuildMCV(map[any]int64{"a": 60, "b": 60}, 100, 5, 0),
			},
		},
	}
	sel := snap.InSelectivity("user", "status", []any{"a", "b"})
	if sel != 1.0 {
		t.Fatalf("expected capped selectivity of 1.0, got %v", sel)
	}
}

func TestSnapshot_RangeSelectivity_MCVAndHistogramAreDirectSum(t *testing.T) {
	values := make([]OrderedValue, 0, 900)
	for i := 0; i < 900; i++ {
		values = append(values, Float64Value(i))
	}
	snap := NewSnapshot()
	snap.Types["user"] = TypeStats{
		RecordType: "user",
		RowCount:   1000,
		Fields: map[string]FieldStats{
			"age": {
				FieldName: "age",
				MCV:       BuildMCV(map[any]int64{Float64Value(50): 100}, 1000, 5, 0),
				Histogram: BuildHistogram(values, 9),
			},
		},
	}

	sel := snap.RangeSelectivity("user", "age", Float64Value(0), Float64Value(899), true, true)
	// mcv_range (0.1, for the value 50 MCV entry) + hist_range (0.9, the
	// histogram covers the full non-MCV population) sum to 1.0 exactly — a
	// mcv + hist·(1−Σmcv) formula would instead give 0.1+0.9*0.9=0.91.
	if sel != 1.0 {
		t.Fatalf("expected direct-sum selectivity of 1.0, got %v", sel)
	}
}

func TestCombineAndOrNot(t *testing.T) {
	if got := CombineAnd([]float64{0.5, 0.5}); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	if got := CombineOr([]float64{0.5, 0.5}); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if got := CombineNot(0.3); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("expected 0.7, got %v", got)
	}
}

func TestCache_SwapThenLoad(t *testing.T) {
	c := NewCache()
	next := NewSnapshot()
	next.Types["user"] = TypeStats{RecordType: "user", RowCount: 42}
	prev := c.Swap(next)
	if prev == nil {
		t.Fatal("expected non-nil previous snapshot")
	}
	if c.Load().EstimatedRowCount("user") != 42 {
		t.Fatalf("expected row count 42 after swap")
	}
}

func TestSnapshotCodec_RoundTripsAcrossCompressions(t *testing.T) {
	snap := NewSnapshot()
	snap.Types["user"] = TypeStats{
		RecordType: "user",
		RowCount:   1000,
		Fields: map[string]FieldStats{
			"status": {
				FieldName:      "status",
				MCV:            BuildMCV(map[any]int64{"active": 800}, 1000, 5, 0),
				DistinctValues: 2,
				NullFraction:   0.01,
			},
		},
	}

	for _, c := range []Compression{NoCompression, SnappyCompression, LZ4Compression, ZstdCompression} {
		data, err := snap.Encode(c)
		if err != nil {
			t.Fatalf("encode with compression %d: %v", c, err)
		}
		decoded, err := DecodeSnapshot(data, c)
		if err != nil {
			t.Fatalf("decode with compression %d: %v", c, err)
		}
		if decoded.EstimatedRowCount("user") != 1000 {
			t.Fatalf("compression %d: round trip lost row count", c)
		}
	}
}
