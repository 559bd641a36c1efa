package analytics

// Event is a scheduled release worth marking on the chart.
type Event struct {
	Date  string `json:"date" mapstructure:"date"`
	Label string `json:"label" mapstructure:"label"`
}

var defaultEvents = []Event{
	{Date: "2025-12-12", Label: "US CPI"},
	{Date: "2026-01-23", Label: "ECB Rate Decision"},
	{Date: "2026-02-06", Label: "US NFP"},
}

// DefaultEvents returns a copy of the bundled event catalog.
func DefaultEvents() []Event {
	return append([]Event(nil), defaultEvents...)
}

// EventMarkers places the bundled catalog on the series.
func EventMarkers(series []RatePoint, normalized bool) []EventMarker {
	return EventMarkersFrom(defaultEvents, series, normalized)
}

// EventMarkersFrom emits a marker for each catalog entry whose date is in the
// series, in catalog order. Missing dates are dropped. With normalized set the
// value is rebased to 100 at the first point.
func EventMarkersFrom(catalog []Event, series []RatePoint, normalized bool) []EventMarker {
	if len(series) == 0 {
		return []EventMarker{}
	}
	byDate := make(map[string]float64, len(series))
	for _, p := range series {
		byDate[p.Date] = p.Rate
	}
	base := series[0].Rate

	out := make([]EventMarker, 0, len(catalog))
	for _, ev := range catalog {
		rate, ok := byDate[ev.Date]
		if !ok {
			continue
		}
		value := rate
		if normalized {
			value = rate / base * 100
		}
		out = append(out, EventMarker{Date: ev.Date, Label: ev.Label, Value: value})
	}
	return out
}
