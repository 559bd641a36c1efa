package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMarkersDropsMissingDates(t *testing.T) {
	series := []RatePoint{
		{Date: "2026-01-22", Rate: 2.0},
		{Date: "2026-01-23", Rate: 2.2},
		{Date: "2026-02-06", Rate: 1.8},
	}

	markers := EventMarkers(series, false)
	require.Len(t, markers, 2)
	assert.Less(t, len(markers), len(DefaultEvents()))
	assert.Equal(t, EventMarker{Date: "2026-01-23", Label: "ECB Rate Decision", Value: 2.2}, markers[0])
	assert.Equal(t, "US NFP", markers[1].Label)

	normalized := EventMarkers(series, true)
	require.Len(t, normalized, 2)
	assert.InDelta(t, 110.0, normalized[0].Value, 1e-9)
	assert.InDelta(t, 90.0, normalized[1].Value, 1e-9)
}

func TestEventMarkersFollowCatalogOrder(t *testing.T) {
	catalog := []Event{
		{Date: "2026-01-03", Label: "late"},
		{Date: "2026-01-01", Label: "early"},
		{Date: "2027-01-01", Label: "absent"},
	}
	series := dailySeries(t, "2026-01-01", 1, 2, 3)

	markers := EventMarkersFrom(catalog, series, false)
	require.Len(t, markers, 2)
	assert.Equal(t, "late", markers[0].Label)
	assert.Equal(t, "early", markers[1].Label)

	assert.Empty(t, EventMarkersFrom(catalog, nil, true))
}

func TestDefaultEventsIsACopy(t *testing.T) {
	events := DefaultEvents()
	events[0].Label = "changed"
	assert.NotEqual(t, "changed", DefaultEvents()[0].Label)
}
