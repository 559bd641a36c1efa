package analytics

// RatePoint is a single daily fixing. Date is an ISO calendar date (YYYY-MM-DD).
type RatePoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// MetricPoint is a derived scalar keyed by date.
type MetricPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// HistogramBin counts returns falling into one bucket.
type HistogramBin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Regime is the qualitative volatility state.
type Regime string

const (
	RegimeLow    Regime = "low"
	RegimeNormal Regime = "normal"
	RegimeHigh   Regime = "high"
)

// Level maps the regime onto 0 (low), 1 (normal) and 2 (high).
func (r Regime) Level() int {
	switch r {
	case RegimeLow:
		return 0
	case RegimeHigh:
		return 2
	default:
		return 1
	}
}

// RegimeBand is a maximal run of observations sharing a regime.
type RegimeBand struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Regime    Regime `json:"regime"`
}

// EventMarker places a catalog event on the series.
type EventMarker struct {
	Date  string  `json:"date"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SnapshotSummary is the point-in-time summary shown next to the charts.
type SnapshotSummary struct {
	Trend30dPct      *float64 `json:"trend30dPct"`
	VolatilityRegime Regime   `json:"volatilityRegime"`
	Observations     int      `json:"observations"`
	LatestDate       *string  `json:"latestDate"`
}

// KpiMetrics holds the headline figures. A nil field means there was not
// enough data to compute it.
type KpiMetrics struct {
	Latest            *float64 `json:"latest"`
	Change1d          *float64 `json:"change1d"`
	Change1w          *float64 `json:"change1w"`
	Change1m          *float64 `json:"change1m"`
	MA30              *float64 `json:"ma30"`
	Vol30LogReturnPct *float64 `json:"vol30LogReturnPct"`
	Min               *float64 `json:"min"`
	Max               *float64 `json:"max"`
}

func ptr[T any](v T) *T {
	return &v
}
