package schedule

import (
	"fmt"
	"time"
)

var (
	// MinDate substitutes for an unbounded window start.
	MinDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

	// MaxDate substitutes for an unbounded window end.
	MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Window is an inclusive date range to expand recurrence rules over. Bounds
// are normalized to bare dates; a nil bound means unbounded on that side.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from optional bounds. Datetimes are truncated to
// their date part; nil bounds become the min/max date sentinels.
func NewWindow(start, end *time.Time) Window {
	w := Window{Start: MinDate, End: MaxDate}
	if start != nil {
		w.Start = DateOf(*start)
	}
	if end != nil {
		w.End = DateOf(*end)
	}
	return w
}

// ParseBound parses an ISO-8601 date or datetime string into a window bound,
// keeping only the date part.
func ParseBound(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid window bound %q", s)
}

// Contains reports whether the date part of d falls within the window.
func (w Window) Contains(d time.Time) bool {
	day := DateOf(d)
	return !day.Before(w.Start) && !day.After(w.End)
}

// DateOf strips the clock from t, keeping year/month/day in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
