package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire layout of every date in a series.
const DateLayout = "2006-01-02"

// Range selects a trailing calendar window of a series.
type Range string

const (
	Range30D  Range = "30D"
	Range90D  Range = "90D"
	Range365D Range = "365D"
	RangeAll  Range = "ALL"
)

// Ranges lists the selectable windows in display order.
var Ranges = []Range{Range30D, Range90D, Range365D, RangeAll}

// ParseRange accepts 30D, 90D, 365D or ALL (case-insensitive).
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Ranges {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q", s)
}

// Days returns the window length in calendar days, 0 for ALL.
func (r Range) Days() int {
	switch r {
	case Range30D:
		return 30
	case Range90D:
		return 90
	case Range365D:
		return 365
	default:
		return 0
	}
}

// ShiftDate moves an ISO date by the given number of calendar days.
func ShiftDate(date string, days int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// FilterByRange keeps the points dated on or after the last date minus the
// range length. ALL and empty input are returned as is.
func FilterByRange(series []RatePoint, r Range) []RatePoint {
	days := r.Days()
	if days == 0 || len(series) == 0 {
		return series
	}
	threshold, err := ShiftDate(series[len(series)-1].Date, -days)
	if err != nil {
		return series
	}
	out := make([]RatePoint, 0, len(series))
	for _, p := range series {
		if p.Date >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// AsOf returns the most recent point dated on or before date. ISO dates sort
// lexically, so the series order doubles as string order.
func AsOf(series []RatePoint, date string) (RatePoint, bool) {
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date > date
	})
	if idx == 0 {
		return RatePoint{}, false
	}
	return series[idx-1], true
}

// Lookback resolves AsOf for a target N calendar days before the last point.
func Lookback(series []RatePoint, days int) (RatePoint, bool) {
	if len(series) == 0 {
		return RatePoint{}, false
	}
	target, err := ShiftDate(series[len(series)-1].Date, -days)
	if err != nil {
		return RatePoint{}, false
	}
	return AsOf(series, target)
}
