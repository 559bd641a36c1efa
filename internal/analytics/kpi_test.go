package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func januarySeries(t *testing.T) []RatePoint {
	rates := []float64{1.00, 1.02, 1.01}
	for len(rates) < 30 {
		rates = append(rates, 1.01+0.001*float64(len(rates)%7))
	}
	rates = append(rates, 1.05)
	return dailySeries(t, "2026-01-01", rates...)
}

func TestKpisMonthScenario(t *testing.T) {
	series := januarySeries(t)
	require.Len(t, series, 31)

	k := Kpis(series, series)
	require.NotNil(t, k.Vol30LogReturnPct)
	assert.Positive(t, *k.Vol30LogReturnPct)
	assert.False(t, math.IsInf(*k.Vol30LogReturnPct, 0))

	sum := 0.0
	for _, p := range series[1:] {
		sum += p.Rate
	}
	require.NotNil(t, k.MA30)
	assert.InDelta(t, sum/30, *k.MA30, 1e-12)

	require.NotNil(t, k.Change1m)
	assert.InDelta(t, (1.05-1.00)/1.00*100, *k.Change1m, 1e-9)

	prevDay := series[29].Rate
	require.NotNil(t, k.Change1d)
	assert.InDelta(t, (1.05-prevDay)/prevDay*100, *k.Change1d, 1e-9)

	weekAgo := series[23].Rate
	require.NotNil(t, k.Change1w)
	assert.InDelta(t, (1.05-weekAgo)/weekAgo*100, *k.Change1w, 1e-9)

	assert.Equal(t, 1.00, *k.Min)
	assert.Equal(t, 1.05, *k.Max)
}

func TestKpisVolatilityMatchesSampleStd(t *testing.T) {
	series := wavySeries(t, 60)
	k := Kpis(series, series)

	tail := series[len(series)-31:]
	returns := make([]float64, 0, 30)
	for i := 1; i < len(tail); i++ {
		returns = append(returns, math.Log(tail[i].Rate/tail[i-1].Rate))
	}
	require.NotNil(t, k.Vol30LogReturnPct)
	assert.InDelta(t, sampleStd(returns)*100, *k.Vol30LogReturnPct, 1e-12)
}

func TestKpisMinMaxFromSelectedRange(t *testing.T) {
	full := dailySeries(t, "2026-01-01", 5, 0.5, 2, 3, 4)
	selected := full[2:]

	k := Kpis(full, selected)
	assert.Equal(t, 2.0, *k.Min)
	assert.Equal(t, 4.0, *k.Max)
	assert.Equal(t, 4.0, *k.Latest)
	assert.InDelta(t, (4.0+0.5+2+3+5)/5, *k.MA30, 1e-12)
}

func TestKpisWeekendLookback(t *testing.T) {
	full := []RatePoint{
		{Date: "2026-02-05", Rate: 1.00},
		{Date: "2026-02-06", Rate: 1.10},
		{Date: "2026-02-09", Rate: 1.21},
	}
	k := Kpis(full, full)

	// Monday minus one day is Sunday; Friday's fixing is used.
	require.NotNil(t, k.Change1d)
	assert.InDelta(t, 10.0, *k.Change1d, 1e-9)
	assert.Nil(t, k.Change1w)
	assert.Nil(t, k.Change1m)
}

func TestKpisInsufficientData(t *testing.T) {
	assert.Equal(t, KpiMetrics{}, Kpis(nil, nil))
	assert.Equal(t, KpiMetrics{}, Kpis(wavySeries(t, 3), nil))

	two := dailySeries(t, "2026-01-01", 1, 1.1)
	k := Kpis(two, two)
	assert.Nil(t, k.Vol30LogReturnPct)
	require.NotNil(t, k.Change1d)
}
