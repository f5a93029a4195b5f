package window

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// ComputeStats returns mean, min and max of the point values. An empty input
// yields the zero Stats.
func ComputeStats(points []types.DataPoint) types.Stats {
	if len(points) == 0 {
		return types.Stats{}
	}
	vals := Values(points)
	return types.Stats{
		Avg: stat.Mean(vals, nil),
		Min: floats.Min(vals),
		Max: floats.Max(vals),
	}
}

// Values extracts the value column.
func Values(points []types.DataPoint) []float64 {
	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = p.Value
	}
	return vals
}

// Slice returns a copy of dataset[sel.Start..sel.End], clamped to the
// dataset. It returns nil for an empty dataset.
func Slice(dataset []types.DataPoint, sel types.Selection) []types.DataPoint {
	n := len(dataset)
	if n == 0 {
		return nil
	}
	start := clampInt(sel.Start, 0, n-1)
	end := clampInt(sel.End, start, n-1)
	out := make([]types.DataPoint, end-start+1)
	copy(out, dataset[start:end+1])
	return out
}

// DefaultSelection is the trailing window [max(0, n-k), n-1]. Datasets with
// fewer than two points get the degenerate {0, n-1} (or {0, 0} when empty).
func DefaultSelection(n, k int) types.Selection {
	if n < 2 {
		return types.Selection{}
	}
	if k < 2 {
		k = 2
	}
	start := n - k
	if start < 0 {
		start = 0
	}
	return types.Selection{Start: start, End: n - 1}
}

// ClampSelection moves sel to the nearest valid selection over n points.
func ClampSelection(sel types.Selection, n int) types.Selection {
	if n < 2 {
		return types.Selection{}
	}
	start := clampInt(sel.Start, 0, n-2)
	end := clampInt(sel.End, start+1, n-1)
	return types.Selection{Start: start, End: end}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
