package analytics

import (
	"fmt"
	"math"
)

const (
	// DefaultVolWindow is the rolling volatility window in returns.
	DefaultVolWindow = 30
	// DefaultBins is the histogram bucket count.
	DefaultBins = 16
)

// LogReturns emits ln(curr/prev)*100 for every adjacent pair of positive
// rates, dated at the later point. Pairs with a non-positive rate are skipped.
func LogReturns(series []RatePoint) []MetricPoint {
	if len(series) < 2 {
		return []MetricPoint{}
	}
	out := make([]MetricPoint, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev, curr := series[i-1].Rate, series[i].Rate
		if prev > 0 && curr > 0 {
			out = append(out, MetricPoint{Date: series[i].Date, Value: math.Log(curr/prev) * 100})
		}
	}
	return out
}

// RollingVolatility is the trailing sample standard deviation of the last
// window log returns, in percent. Output starts once a full window exists.
func RollingVolatility(series []RatePoint, window int) []MetricPoint {
	if window <= 0 {
		window = DefaultVolWindow
	}
	returns := LogReturns(series)
	if len(returns) < 2 {
		return []MetricPoint{}
	}

	out := make([]MetricPoint, 0, max(0, len(returns)-window+1))
	slice := make([]float64, window)
	for i := window - 1; i < len(returns); i++ {
		for j, p := range returns[i-window+1 : i+1] {
			slice[j] = p.Value / 100
		}
		out = append(out, MetricPoint{Date: returns[i].Date, Value: stdDev(slice) * 100})
	}
	return out
}

// Drawdown is the percent distance from the running peak, one point per input.
func Drawdown(series []RatePoint) []MetricPoint {
	if len(series) == 0 {
		return []MetricPoint{}
	}
	out := make([]MetricPoint, len(series))
	peak := series[0].Rate
	for i, p := range series {
		if p.Rate > peak {
			peak = p.Rate
		}
		out[i] = MetricPoint{Date: p.Date, Value: (p.Rate - peak) / peak * 100}
	}
	return out
}

// Histogram buckets the log returns into equal-width bins. A sample with a
// single distinct value collapses into one bin.
func Histogram(series []RatePoint, bins int) []HistogramBin {
	if bins <= 0 {
		bins = DefaultBins
	}
	returns := values(LogReturns(series))
	if len(returns) == 0 {
		return []HistogramBin{}
	}

	lo, hi := returns[0], returns[0]
	for _, v := range returns[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []HistogramBin{{Label: fmt.Sprintf("%.2f%%", lo), Count: len(returns)}}
	}

	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range returns {
		idx := min(bins-1, int(math.Floor((v-lo)/width)))
		counts[idx]++
	}

	out := make([]HistogramBin, bins)
	for i, count := range counts {
		start := lo + float64(i)*width
		out[i] = HistogramBin{
			Label: fmt.Sprintf("%.2f..%.2f", start, start+width),
			Count: count,
		}
	}
	return out
}

// Normalize rebases a series to 100 at its first point so pairs quoted on
// different scales can share an axis.
func Normalize(series []RatePoint) []RatePoint {
	if len(series) == 0 {
		return []RatePoint{}
	}
	base := series[0].Rate
	out := make([]RatePoint, len(series))
	for i, p := range series {
		out[i] = RatePoint{Date: p.Date, Rate: p.Rate / base * 100}
	}
	return out
}
