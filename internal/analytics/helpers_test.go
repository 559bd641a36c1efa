package analytics

import (
	"math"
	"testing"
	"time"
)

// dailySeries builds consecutive calendar days starting at start.
func dailySeries(t *testing.T, start string, rates ...float64) []RatePoint {
	t.Helper()
	day, err := time.Parse(DateLayout, start)
	if err != nil {
		t.Fatalf("bad start date: %v", err)
	}
	out := make([]RatePoint, len(rates))
	for i, r := range rates {
		out[i] = RatePoint{Date: day.AddDate(0, 0, i).Format(DateLayout), Rate: r}
	}
	return out
}

// wavySeries produces a deterministic non-flat series of n days.
func wavySeries(t *testing.T, n int) []RatePoint {
	t.Helper()
	rates := make([]float64, n)
	for i := range rates {
		rates[i] = 11 + 0.3*math.Sin(float64(i)/3) + 0.05*math.Cos(float64(i)*1.7) + float64(i)*0.001
	}
	return dailySeries(t, "2025-01-01", rates...)
}
