package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	series := wavySeries(t, 40)
	returns := LogReturns(series)
	require.Len(t, returns, len(series)-1)

	for i, r := range returns {
		want := math.Log(series[i+1].Rate/series[i].Rate) * 100
		assert.InDelta(t, want, r.Value, 1e-12)
		assert.Equal(t, series[i+1].Date, r.Date)
	}
}

func TestLogReturnsSkipsNonPositivePairs(t *testing.T) {
	series := []RatePoint{
		{Date: "2026-01-01", Rate: 1},
		{Date: "2026-01-02", Rate: 0},
		{Date: "2026-01-03", Rate: 1.1},
		{Date: "2026-01-04", Rate: 1.2},
	}
	returns := LogReturns(series)
	require.Len(t, returns, 1)
	assert.Equal(t, "2026-01-04", returns[0].Date)
}

func TestSinglePointSeries(t *testing.T) {
	series := []RatePoint{{Date: "2026-01-01", Rate: 10.5}}

	assert.Empty(t, LogReturns(series))
	assert.Empty(t, RollingVolatility(series, DefaultVolWindow))

	dd := Drawdown(series)
	require.Len(t, dd, 1)
	assert.Equal(t, 0.0, dd[0].Value)

	k := Kpis(series, series)
	require.NotNil(t, k.Latest)
	assert.Equal(t, 10.5, *k.Latest)
	assert.Equal(t, *k.Latest, *k.Min)
	assert.Equal(t, *k.Latest, *k.Max)
	assert.Nil(t, k.Change1d)
	assert.Nil(t, k.Change1w)
	assert.Nil(t, k.Change1m)
}

func TestRollingVolatilityWindow(t *testing.T) {
	series := wavySeries(t, 45)
	vol := RollingVolatility(series, 30)

	// 44 returns, first 29 produce nothing.
	require.Len(t, vol, 15)
	returns := LogReturns(series)
	assert.Equal(t, returns[29].Date, vol[0].Date)

	window := make([]float64, 30)
	for i, r := range returns[:30] {
		window[i] = r.Value / 100
	}
	assert.InDelta(t, sampleStd(window)*100, vol[0].Value, 1e-12)
	for _, v := range vol {
		assert.Greater(t, v.Value, 0.0)
	}
}

func TestRollingVolatilityShortSeries(t *testing.T) {
	assert.Empty(t, RollingVolatility(wavySeries(t, 2), 30))
	assert.Empty(t, RollingVolatility(wavySeries(t, 20), 30))
	assert.Len(t, RollingVolatility(wavySeries(t, 5), 3), 2)
}

func TestDrawdown(t *testing.T) {
	series := dailySeries(t, "2026-01-01", 1.0, 1.2, 0.9, 1.3, 1.17)
	dd := Drawdown(series)
	require.Len(t, dd, len(series))

	assert.Equal(t, 0.0, dd[0].Value)
	assert.Equal(t, 0.0, dd[1].Value)
	assert.InDelta(t, -25.0, dd[2].Value, 1e-9)
	assert.Equal(t, 0.0, dd[3].Value)
	assert.InDelta(t, -10.0, dd[4].Value, 1e-9)

	for _, p := range Drawdown(wavySeries(t, 100)) {
		assert.LessOrEqual(t, p.Value, 0.0)
	}
	assert.Empty(t, Drawdown(nil))
}

func TestHistogramCountsEveryReturn(t *testing.T) {
	series := wavySeries(t, 120)
	bins := Histogram(series, DefaultBins)
	require.Len(t, bins, DefaultBins)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, len(LogReturns(series)), total)
	// The maximum return lands in the last bin.
	assert.Positive(t, bins[len(bins)-1].Count)
	assert.Positive(t, bins[0].Count)
}

func TestHistogramLabels(t *testing.T) {
	series := dailySeries(t, "2026-01-01", 100, 101, 100, 102)
	bins := Histogram(series, 2)
	require.Len(t, bins, 2)

	lo := math.Log(100.0/101.0) * 100
	hi := math.Log(102.0/100.0) * 100
	mid := lo + (hi-lo)/2
	assert.Equal(t, formatRange(lo, mid), bins[0].Label)
	assert.Equal(t, formatRange(mid, hi), bins[1].Label)
}

func TestFlatSeries(t *testing.T) {
	series := dailySeries(t, "2026-01-01", make31(1.25)...)

	for _, r := range LogReturns(series) {
		assert.Equal(t, 0.0, r.Value)
	}

	bins := Histogram(series, DefaultBins)
	require.Len(t, bins, 1)
	assert.Equal(t, "0.00%", bins[0].Label)
	assert.Equal(t, 30, bins[0].Count)

	k := Kpis(series, series)
	require.NotNil(t, k.Vol30LogReturnPct)
	assert.Equal(t, 0.0, *k.Vol30LogReturnPct)
}

func TestHistogramEmpty(t *testing.T) {
	assert.Empty(t, Histogram(nil, DefaultBins))
	assert.Empty(t, Histogram(wavySeries(t, 1), DefaultBins))
}

func TestNormalize(t *testing.T) {
	got := Normalize(dailySeries(t, "2026-01-01", 2, 3, 1))
	assert.InDelta(t, 100.0, got[0].Rate, 1e-12)
	assert.InDelta(t, 150.0, got[1].Rate, 1e-12)
	assert.InDelta(t, 50.0, got[2].Rate, 1e-12)
}

func TestIdempotent(t *testing.T) {
	series := wavySeries(t, 400)
	a := BuildDashboard(series, Range365D, Options{})
	b := BuildDashboard(series, Range365D, Options{})
	assert.Equal(t, a, b)
}

func sampleStd(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func formatRange(start, end float64) string {
	return fmt.Sprintf("%.2f..%.2f", start, end)
}
