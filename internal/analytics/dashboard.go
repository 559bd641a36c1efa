package analytics

// Options tune BuildDashboard. Zero values fall back to the defaults.
type Options struct {
	VolWindow  int
	Bins       int
	Normalized bool
	Events     []Event
}

// Dashboard bundles every derived view of one series for one range.
type Dashboard struct {
	Range      Range           `json:"range"`
	Series     []RatePoint     `json:"series"`
	LogReturns []MetricPoint   `json:"logReturns"`
	Volatility []MetricPoint   `json:"volatility"`
	Drawdown   []MetricPoint   `json:"drawdown"`
	Histogram  []HistogramBin  `json:"histogram"`
	Regimes    []RegimeBand    `json:"regimes"`
	Events     []EventMarker   `json:"events"`
	Snapshot   SnapshotSummary `json:"snapshot"`
	Kpis       KpiMetrics      `json:"kpis"`
}

// BuildDashboard filters the full series to the range and derives every view
// from the filtered points, except the KPIs which also see the full history.
func BuildDashboard(full []RatePoint, r Range, opts Options) Dashboard {
	catalog := opts.Events
	if catalog == nil {
		catalog = defaultEvents
	}

	selected := FilterByRange(full, r)
	vol := RollingVolatility(selected, opts.VolWindow)

	return Dashboard{
		Range:      r,
		Series:     selected,
		LogReturns: LogReturns(selected),
		Volatility: vol,
		Drawdown:   Drawdown(selected),
		Histogram:  Histogram(selected, opts.Bins),
		Regimes:    ClassifyRegimes(vol),
		Events:     EventMarkersFrom(catalog, selected, opts.Normalized),
		Snapshot:   Snapshot(selected, vol),
		Kpis:       Kpis(full, selected),
	}
}
