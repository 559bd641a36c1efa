package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEmpty(t *testing.T) {
	s := Snapshot(nil, nil)
	assert.Equal(t, SnapshotSummary{VolatilityRegime: RegimeNormal}, s)
}

func TestSnapshotTrendAndRegime(t *testing.T) {
	rates := make([]float64, 40)
	for i := range rates {
		rates[i] = 10 + float64(i)*0.1
	}
	series := dailySeries(t, "2026-01-01", rates...)
	vol := metricSeries(t, 1, 2, 3, 4, 9)

	s := Snapshot(series, vol)
	require.NotNil(t, s.Trend30dPct)
	require.NotNil(t, s.LatestDate)

	base := series[9].Rate
	assert.InDelta(t, (series[39].Rate-base)/base*100, *s.Trend30dPct, 1e-9)
	assert.Equal(t, RegimeHigh, s.VolatilityRegime)
	assert.Equal(t, 40, s.Observations)
	assert.Equal(t, series[39].Date, *s.LatestDate)
}

func TestSnapshotShortSeriesUsesFirstPoint(t *testing.T) {
	series := dailySeries(t, "2026-01-01", 4, 5)
	s := Snapshot(series, nil)

	require.NotNil(t, s.Trend30dPct)
	assert.InDelta(t, 25.0, *s.Trend30dPct, 1e-9)
	// No volatility yet: 0 against zero thresholds is low.
	assert.Equal(t, RegimeLow, s.VolatilityRegime)
}
