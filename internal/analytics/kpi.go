package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Lookback windows in calendar days.
const (
	lookback1d = 1
	lookback1w = 7
	lookback1m = 30

	maWindow  = 30
	volPoints = 31
)

func pctChange(current, previous float64) float64 {
	return (current - previous) / previous * 100
}

// Kpis computes the headline metrics. Lookbacks, the moving average and the
// 30-day volatility read the full history; latest, min and max read the
// selected range.
func Kpis(full, selected []RatePoint) KpiMetrics {
	if len(full) == 0 || len(selected) == 0 {
		return KpiMetrics{}
	}

	latest := selected[len(selected)-1].Rate
	change := func(days int) *float64 {
		prev, ok := Lookback(full, days)
		if !ok {
			return nil
		}
		return ptr(pctChange(latest, prev.Rate))
	}

	selectedRates := rates(selected)
	return KpiMetrics{
		Latest:            ptr(latest),
		Change1d:          change(lookback1d),
		Change1w:          change(lookback1w),
		Change1m:          change(lookback1m),
		MA30:              ptr(stat.Mean(rates(full[max(0, len(full)-maWindow):]), nil)),
		Vol30LogReturnPct: trailingVolatility(full),
		Min:               ptr(floats.Min(selectedRates)),
		Max:               ptr(floats.Max(selectedRates)),
	}
}

// trailingVolatility is the sample std dev of the log returns over the last
// 31 points, in percent, or nil with fewer than two returns.
func trailingVolatility(full []RatePoint) *float64 {
	tail := full[max(0, len(full)-volPoints):]
	returns := make([]float64, 0, len(tail))
	for i := 1; i < len(tail); i++ {
		prev, curr := tail[i-1].Rate, tail[i].Rate
		if prev > 0 && curr > 0 {
			returns = append(returns, math.Log(curr/prev))
		}
	}
	if len(returns) < 2 {
		return nil
	}
	return ptr(stdDev(returns) * 100)
}
