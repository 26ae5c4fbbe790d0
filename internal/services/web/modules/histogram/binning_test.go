package histogram

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeCountsEveryValue(t *testing.T) {
	t.Parallel()

	values := []float64{1, 2, 2, 3, 4, 5, 5, 5, 9, 10}
	bins := Compute(values, 3)
	if len(bins) != 3 {
		t.Fatalf("len(bins) = %d, want 3", len(bins))
	}
	got := []int{bins[0].Count, bins[1].Count, bins[2].Count}
	if diff := cmp.Diff([]int{4, 4, 2}, got); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if bins[0].Low != 1 || bins[2].High != 10 {
		t.Fatalf("range = [%v, %v], want [1, 10]", bins[0].Low, bins[2].High)
	}
}

func TestComputeEdgeCases(t *testing.T) {
	t.Parallel()

	if bins := Compute(nil, 5); bins != nil {
		t.Fatalf("Compute(nil) = %v, want nil", bins)
	}
	if bins := Compute([]float64{math.NaN(), math.Inf(1)}, 5); bins != nil {
		t.Fatalf("Compute(non-finite) = %v, want nil", bins)
	}

	single := Compute([]float64{7, 7, 7}, 4)
	total := 0
	for _, bin := range single {
		total += bin.Count
	}
	if total != 3 {
		t.Fatalf("single-value total = %d, want 3", total)
	}

	if bins := Compute([]float64{1, 2}, 500); len(bins) != MaxBins {
		t.Fatalf("len(bins) = %d, want %d", len(bins), MaxBins)
	}
	if bins := Compute([]float64{1, 2}, -3); len(bins) != MinBins {
		t.Fatalf("len(bins) = %d, want %d", len(bins), MinBins)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	got := Summarize([]float64{2, math.NaN(), 4, 6})
	want := Summary{N: 3, Mean: 4, Min: 2, Max: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Summarize mismatch (-want +got):\n%s", diff)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("Summarize(nil) = %+v, want zero", got)
	}
}
