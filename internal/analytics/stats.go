package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	lowQuantile  = 0.33
	highQuantile = 0.67
)

// stdDev is the Bessel-corrected sample standard deviation, 0 below two values.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// percentile uses the nearest-rank index floor((n-1)*q) over sorted values.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(float64(len(sorted)-1) * q))
	idx = min(len(sorted)-1, max(0, idx))
	return sorted[idx]
}

// Thresholds returns the low/high regime cut-offs derived from values.
func Thresholds(values []float64) (low, high float64) {
	return percentile(values, lowQuantile), percentile(values, highQuantile)
}

// Classify labels a volatility value. Low is tested first so equal
// thresholds resolve to low.
func Classify(value, low, high float64) Regime {
	if value <= low {
		return RegimeLow
	}
	if value >= high {
		return RegimeHigh
	}
	return RegimeNormal
}

func values(points []MetricPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func rates(series []RatePoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Rate
	}
	return out
}
