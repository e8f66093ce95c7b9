package metrics

import (
	"math"
	"slices"
)

// Percentile levels reported for every node.
const (
	P50 = 0.50
	P90 = 0.90
	P99 = 0.99
)

// Percentile returns the nearest-rank percentile of samples, where p is in
// [0, 1]. The index is floor(p*(n-1)) clamped to [0, n-1]. The input slice is
// not modified. ok is false when samples is empty.
func Percentile[T Number](samples []T, p float64) (value T, ok bool) {
	if len(samples) == 0 {
		return value, false
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[percentileIndex(len(sorted), p)], true
}

// PercentileSet holds the p50/p90/p99 estimates of one window. Fields are nil
// when the window is empty.
type PercentileSet struct {
	P50 *float64
	P90 *float64
	P99 *float64
}

// Percentiles sorts samples once and extracts p50, p90 and p99.
func Percentiles[T Number](samples []T) PercentileSet {
	if len(samples) == 0 {
		return PercentileSet{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	at := func(p float64) *float64 {
		v := float64(sorted[percentileIndex(len(sorted), p)])
		return &v
	}
	return PercentileSet{P50: at(P50), P90: at(P90), P99: at(P99)}
}

func percentileIndex(n int, p float64) int {
	idx := int(math.Floor(p * float64(n-1)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}
