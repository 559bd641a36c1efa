package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricSeries(t *testing.T, vals ...float64) []MetricPoint {
	t.Helper()
	days := dailySeries(t, "2026-03-01", vals...)
	out := make([]MetricPoint, len(days))
	for i, d := range days {
		out[i] = MetricPoint{Date: d.Date, Value: d.Rate}
	}
	return out
}

func TestThresholdsNearestRank(t *testing.T) {
	low, high := Thresholds([]float64{10, 1, 9, 2, 8, 3, 7, 4, 6, 5})
	assert.Equal(t, 3.0, low)
	assert.Equal(t, 7.0, high)

	low, high = Thresholds(nil)
	assert.Zero(t, low)
	assert.Zero(t, high)
}

func TestClassifyRegimes(t *testing.T) {
	vol := metricSeries(t, 1, 2, 5, 6, 9, 10, 4, 3)
	bands := ClassifyRegimes(vol)

	want := []RegimeBand{
		{StartDate: "2026-03-01", EndDate: "2026-03-02", Regime: RegimeLow},
		{StartDate: "2026-03-03", EndDate: "2026-03-06", Regime: RegimeHigh},
		{StartDate: "2026-03-07", EndDate: "2026-03-07", Regime: RegimeNormal},
		{StartDate: "2026-03-08", EndDate: "2026-03-08", Regime: RegimeLow},
	}
	assert.Equal(t, want, bands)
}

func TestClassifyRegimesEqualThresholdsPreferLow(t *testing.T) {
	bands := ClassifyRegimes(metricSeries(t, 0.4, 0.4, 0.4))
	require.Len(t, bands, 1)
	assert.Equal(t, RegimeLow, bands[0].Regime)
	assert.Equal(t, "2026-03-01", bands[0].StartDate)
	assert.Equal(t, "2026-03-03", bands[0].EndDate)
}

func TestClassifyRegimesEdges(t *testing.T) {
	assert.Empty(t, ClassifyRegimes(nil))

	bands := ClassifyRegimes(metricSeries(t, 0.7))
	require.Len(t, bands, 1)
	assert.Equal(t, bands[0].StartDate, bands[0].EndDate)
}

func TestClassifyRegimesContiguousAndMaximal(t *testing.T) {
	vol := RollingVolatility(wavySeries(t, 500), DefaultVolWindow)
	require.NotEmpty(t, vol)
	bands := ClassifyRegimes(vol)
	require.NotEmpty(t, bands)

	index := make(map[string]int, len(vol))
	for i, p := range vol {
		index[p.Date] = i
	}

	assert.Equal(t, vol[0].Date, bands[0].StartDate)
	assert.Equal(t, vol[len(vol)-1].Date, bands[len(bands)-1].EndDate)
	for i := 1; i < len(bands); i++ {
		assert.Equal(t, index[bands[i-1].EndDate]+1, index[bands[i].StartDate])
		assert.NotEqual(t, bands[i-1].Regime, bands[i].Regime)
	}
}

func TestThresholdsDependOnSlice(t *testing.T) {
	vol := metricSeries(t, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	full := ClassifyRegimes(vol)
	tail := ClassifyRegimes(vol[6:])

	assert.Equal(t, RegimeHigh, full[len(full)-1].Regime)
	assert.Equal(t, RegimeLow, tail[0].Regime)
}

func TestCollapseGeneric(t *testing.T) {
	type obs struct {
		day  string
		sign int
	}
	items := []obs{{"a", 1}, {"b", 1}, {"c", -1}, {"d", 1}}
	bands := Collapse(items,
		func(o obs) string { return o.day },
		func(o obs) int { return o.sign },
	)
	assert.Equal(t, []Band[int]{
		{Start: "a", End: "b", Label: 1},
		{Start: "c", End: "c", Label: -1},
		{Start: "d", End: "d", Label: 1},
	}, bands)
	assert.Nil(t, Collapse[obs, int](nil, nil, nil))
}
