package histogram

import (
	"math"
	"slices"
)

// Bin counts the values falling in [Low, High). The last bin is closed.
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// Summary describes the values a histogram was built from.
type Summary struct {
	N    int
	Mean float64
	Min  float64
	Max  float64
}

// Compute splits values into n equal-width bins over their range.
func Compute(values []float64, n int) []Bin {
	n = ClampBins(n)
	finite := finiteValues(values)
	if len(finite) == 0 {
		return nil
	}
	lo, hi := slices.Min(finite), slices.Max(finite)
	if lo == hi {
		// One value repeated: a unit-wide range keeps the width non-zero.
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Low: lo + float64(i)*width, High: lo + float64(i+1)*width}
	}
	bins[n-1].High = hi
	for _, v := range finite {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		bins[idx].Count++
	}
	return bins
}

// Summarize returns count, mean and range of the finite values.
func Summarize(values []float64) Summary {
	finite := finiteValues(values)
	if len(finite) == 0 {
		return Summary{}
	}
	var sum float64
	for _, v := range finite {
		sum += v
	}
	return Summary{
		N:    len(finite),
		Mean: sum / float64(len(finite)),
		Min:  slices.Min(finite),
		Max:  slices.Max(finite),
	}
}

// ClampBins keeps n inside the supported bin range.
func ClampBins(n int) int {
	return max(MinBins, min(MaxBins, n))
}

func finiteValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
