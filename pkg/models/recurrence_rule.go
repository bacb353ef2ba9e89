package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RepeatType describes how a plan item repeats.
type RepeatType string

const (
	// RepeatOnce emits a single dated occurrence at the rule's start date.
	RepeatOnce RepeatType = "ONCE"
	// RepeatDaily emits occurrences every IntervalValue days.
	RepeatDaily RepeatType = "DAILY"
	// RepeatWeekly emits occurrences on the enabled weekdays.
	RepeatWeekly RepeatType = "WEEKLY"
	// RepeatPRN emits a single undated "as needed" occurrence.
	RepeatPRN RepeatType = "PRN"
)

// RecurrenceRule describes how a PlanItem repeats. Rules are replaced as a
// set whenever their parent item is updated, never patched individually.
type RecurrenceRule struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PlanItemID uuid.UUID  `db:"plan_item_id" json:"plan_item_id"`
	StartDate  time.Time  `db:"start_date" json:"start_date" validate:"required"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	RepeatType RepeatType `db:"repeat_type" json:"repeat_type" validate:"required,oneof=ONCE DAILY WEEKLY PRN"`

	// IntervalValue is the number of days between DAILY repetitions; nil or 1
	// means every day.
	IntervalValue *int `db:"interval_value" json:"interval_value,omitempty" validate:"omitempty,min=1"`

	Mon bool `db:"mon" json:"mon"`
	Tue bool `db:"tue" json:"tue"`
	Wed bool `db:"wed" json:"wed"`
	Thu bool `db:"thu" json:"thu"`
	Fri bool `db:"fri" json:"fri"`
	Sat bool `db:"sat" json:"sat"`
	Sun bool `db:"sun" json:"sun"`

	// Times holds "HH:MM" or "HH:MM:SS" times-of-day; empty means the rule is
	// date-only.
	Times pq.StringArray `db:"times" json:"times"`
}

// TableName returns the database table name
func (RecurrenceRule) TableName() string {
	return "plan_item_rules"
}

// Interval returns the DAILY step in days, defaulting to 1.
func (r *RecurrenceRule) Interval() int {
	if r.IntervalValue == nil || *r.IntervalValue < 1 {
		return 1
	}
	return *r.IntervalValue
}

// WeekdayEnabled reports whether the WEEKLY flag for the given weekday is set.
func (r *RecurrenceRule) WeekdayEnabled(wd time.Weekday) bool {
	switch wd {
	case time.Monday:
		return r.Mon
	case time.Tuesday:
		return r.Tue
	case time.Wednesday:
		return r.Wed
	case time.Thursday:
		return r.Thu
	case time.Friday:
		return r.Fri
	case time.Saturday:
		return r.Sat
	case time.Sunday:
		return r.Sun
	}
	return false
}
