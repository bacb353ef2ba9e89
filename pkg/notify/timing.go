package notify

import (
	"time"

	"github.com/Ramsey-B/yarrow/pkg/timeofday"
)

// DefaultReminderTime is the sentinel time-of-day used for timing decisions
// when a dose has no expected time. The dose itself stays time-less; only the
// reminder math uses the sentinel.
var DefaultReminderTime = timeofday.TimeOfDay{Hour: 9}

// ScheduledAt returns the instant the dose is due, combining its date with
// its time-of-day. Doses with an absent or unparseable time fall back to
// DefaultReminderTime.
func (d ScheduledDose) ScheduledAt() time.Time {
	t, ok := timeofday.Parse(d.Time)
	if !ok {
		t = DefaultReminderTime
	}
	return t.At(d.Date)
}

// ShouldFire decides whether this worker invocation owns the reminder for the
// dose. For each offset, the target instant is the scheduled time plus the
// offset in minutes; the run that observes 0 <= target-now < checkInterval is
// the one that fires. The first matching offset wins so a dose produces at
// most one reminder per run; a dose whose offsets all miss stays pending for
// later runs.
func ShouldFire(dose ScheduledDose, offsetMinutes []int64, now time.Time, checkInterval time.Duration) (int64, bool) {
	scheduled := dose.ScheduledAt()
	for _, offset := range offsetMinutes {
		target := scheduled.Add(time.Duration(offset) * time.Minute)
		delta := target.Sub(now)
		if delta >= 0 && delta < checkInterval {
			return offset, true
		}
	}
	return 0, false
}
