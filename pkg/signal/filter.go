// Package signal conditions apparent-height series into the distance-invariant
// velocity signal used for walk detection.
//
// Every function is pure: inputs are never modified and a fresh slice is
// returned.
package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MinHeight floors heights before inversion so degenerate near-zero samples
// cannot blow up the inverse.
const MinHeight = 1.0

// MedianFilter applies a centered moving median. Edge windows shrink rather
// than wrap or pad. A window of 1 or less returns a copy.
func MedianFilter(x []float64, window int) []float64 {
	return centered(x, window, Median)
}

// MovingAverage applies a centered moving mean with the same edge behavior as
// MedianFilter.
func MovingAverage(x []float64, window int) []float64 {
	return centered(x, window, func(w []float64) float64 {
		return stat.Mean(w, nil)
	})
}

func centered(x []float64, window int, reduce func([]float64) float64) []float64 {
	out := make([]float64, len(x))
	if window <= 1 {
		copy(out, x)
		return out
	}
	half := window / 2
	for i := range x {
		lo := max(0, i-half)
		hi := min(len(x), i+half+1)
		out[i] = reduce(x[lo:hi])
	}
	return out
}

// Inverse returns 1/max(v, MinHeight) element-wise.
func Inverse(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 1 / math.Max(v, MinHeight)
	}
	return out
}

// Derivative returns Δy/Δt between consecutive samples; out[0] is 0, as is
// any sample whose time step is not positive.
func Derivative(y, t []float64) []float64 {
	n := min(len(y), len(t))
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		dt := t[i] - t[i-1]
		if dt <= 0 {
			continue
		}
		out[i] = (y[i] - y[i-1]) / dt
	}
	return out
}

// Median returns the median of x, averaging the middle pair for even lengths.
// Returns NaN for an empty slice.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Percentile returns the p-th percentile (0-100) of x with linear
// interpolation between closest ranks. Returns NaN for an empty slice.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}

	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)

	if p <= 0 {
		return s[0]
	}
	if p >= 100 {
		return s[len(s)-1]
	}

	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	w := rank - float64(lo)
	return s[lo]*(1-w) + s[hi]*w
}

// Positive returns the strictly positive values of x.
func Positive(x []float64) []float64 {
	var out []float64
	for _, v := range x {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}
