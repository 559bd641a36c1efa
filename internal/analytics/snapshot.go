package analytics

// Snapshot summarises the series: trend over the last 30 observations, the
// current volatility regime and the observation count.
func Snapshot(series []RatePoint, vol []MetricPoint) SnapshotSummary {
	if len(series) == 0 {
		return SnapshotSummary{VolatilityRegime: RegimeNormal}
	}

	latest := series[len(series)-1]
	base := series[max(0, len(series)-31)]

	summary := SnapshotSummary{
		VolatilityRegime: CurrentRegime(vol),
		Observations:     len(series),
		LatestDate:       ptr(latest.Date),
	}
	if base.Rate > 0 {
		summary.Trend30dPct = ptr(pctChange(latest.Rate, base.Rate))
	}
	return summary
}
