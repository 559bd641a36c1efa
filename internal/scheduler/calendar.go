package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// BusinessDays returns a DayFilter backed by the exchange calendar with the
// given MIC (for example "xfra"). An empty MIC disables filtering.
func BusinessDays(mic string) (DayFilter, error) {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		return nil, nil
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return nil, fmt.Errorf("unknown exchange calendar %q", mic)
	}
	return func(t time.Time) bool {
		if cal.Loc != nil {
			t = t.In(cal.Loc)
		}
		return cal.IsBusinessDay(t)
	}, nil
}

// Weekdays is the fallback filter: Monday to Friday in UTC.
func Weekdays(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}
