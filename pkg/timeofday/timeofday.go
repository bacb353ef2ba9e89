// Package timeofday is the single place clock strings from recurrence rules
// and completion records get parsed. Callers that tolerate malformed input
// use ParseOrMin so bad data degrades to the midnight sentinel instead of an
// error.
package timeofday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with no date or zone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Min is the midnight sentinel; date-only and unparseable times sort here.
var Min = TimeOfDay{}

// Parse parses "HH:MM" or "HH:MM:SS". The ok result is false for anything
// else, including out-of-range components.
func Parse(s string) (TimeOfDay, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Min, false
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return Min, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return Min, false
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil {
			return Min, false
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Min, false
	}

	return TimeOfDay{Hour: hour, Minute: minute, Second: second}, true
}

// ParseOrMin parses s, falling back to the midnight sentinel when s is empty
// or malformed.
func ParseOrMin(s string) TimeOfDay {
	t, ok := Parse(s)
	if !ok {
		return Min
	}
	return t
}

// Compare orders two times-of-day; the result follows the usual -1/0/+1
// convention.
func (t TimeOfDay) Compare(o TimeOfDay) int {
	a := t.Hour*3600 + t.Minute*60 + t.Second
	b := o.Hour*3600 + o.Minute*60 + o.Second
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether t is earlier than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Compare(o) < 0
}

// At combines t with the date portion of d, preserving d's location.
func (t TimeOfDay) At(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, d.Location())
}

// String renders the time as "HH:MM:SS".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}
