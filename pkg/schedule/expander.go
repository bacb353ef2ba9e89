// Package schedule implements recurrence-rule expansion: turning plan items
// and their repeat rules into concrete dated dose occurrences.
package schedule

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/timeofday"
)

// Expand turns plan items and their recurrence rules into concrete dose
// occurrences within the window. The result is sorted by (date, time-of-day,
// plan item id); PRN occurrences carry a nil date and sort first, and
// occurrences whose time is empty or unparseable sort as midnight.
//
// Expand is pure: same inputs, same output, no I/O. Items with no entry in
// rulesByItem contribute nothing, as do rules with an unknown repeat type.
func Expand(items []models.PlanItem, rulesByItem map[uuid.UUID][]models.RecurrenceRule, window Window) []models.DoseOccurrence {
	var result []models.DoseOccurrence

	for i := range items {
		item := &items[i]
		for _, rule := range rulesByItem[item.ID] {
			result = append(result, expandRule(item, rule, window)...)
		}
	}

	sortOccurrences(result)
	return result
}

func expandRule(item *models.PlanItem, rule models.RecurrenceRule, window Window) []models.DoseOccurrence {
	switch rule.RepeatType {
	case models.RepeatOnce:
		return expandOnce(item, rule, window)
	case models.RepeatDaily:
		return expandInterval(item, rule, window, rule.Interval(), nil)
	case models.RepeatWeekly:
		return expandInterval(item, rule, window, 1, rule.WeekdayEnabled)
	case models.RepeatPRN:
		// A single undated template entry, regardless of window.
		return []models.DoseOccurrence{newOccurrence(item, rule, nil, "")}
	}
	// Unknown repeat types yield nothing rather than an error.
	return nil
}

func expandOnce(item *models.PlanItem, rule models.RecurrenceRule, window Window) []models.DoseOccurrence {
	day := DateOf(rule.StartDate)
	if !window.Contains(day) {
		return nil
	}
	return emitDay(item, rule, day)
}

// expandInterval walks the intersection of the rule's range and the window,
// stepping by step days and emitting on days the filter accepts. The
// effective end is the rule's end date when present, otherwise the window
// end.
func expandInterval(item *models.PlanItem, rule models.RecurrenceRule, window Window, step int, filter func(time.Weekday) bool) []models.DoseOccurrence {
	start := DateOf(rule.StartDate)
	if start.Before(window.Start) {
		start = window.Start
	}

	end := window.End
	if rule.EndDate != nil {
		end = DateOf(*rule.EndDate)
	}
	if end.After(window.End) {
		end = window.End
	}

	if start.After(end) {
		return nil
	}

	var out []models.DoseOccurrence
	for day := start; !day.After(end); day = day.AddDate(0, 0, step) {
		if filter != nil && !filter(day.Weekday()) {
			continue
		}
		out = append(out, emitDay(item, rule, day)...)
	}
	return out
}

// emitDay emits one occurrence per configured time-of-day, or a single
// date-only occurrence when the rule has no times.
func emitDay(item *models.PlanItem, rule models.RecurrenceRule, day time.Time) []models.DoseOccurrence {
	if len(rule.Times) == 0 {
		return []models.DoseOccurrence{newOccurrence(item, rule, &day, "")}
	}

	out := make([]models.DoseOccurrence, 0, len(rule.Times))
	for _, t := range rule.Times {
		out = append(out, newOccurrence(item, rule, &day, t))
	}
	return out
}

func newOccurrence(item *models.PlanItem, rule models.RecurrenceRule, day *time.Time, clock string) models.DoseOccurrence {
	var date *time.Time
	if day != nil {
		d := *day
		date = &d
	}
	r := rule
	return models.DoseOccurrence{
		PlanItemID:    item.ID,
		PlanID:        item.PlanID,
		DrugID:        item.DrugID,
		DrugName:      item.DrugName,
		Dosage:        item.Dosage,
		Unit:          item.Unit,
		AmountLiteral: item.AmountLiteral,
		Note:          item.Note,
		Date:          date,
		Time:          clock,
		Rule:          &r,
	}
}

func sortOccurrences(occurrences []models.DoseOccurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := &occurrences[i], &occurrences[j]

		ad, bd := MinDate, MinDate
		if a.Date != nil {
			ad = *a.Date
		}
		if b.Date != nil {
			bd = *b.Date
		}
		if !ad.Equal(bd) {
			return ad.Before(bd)
		}

		if c := timeofday.ParseOrMin(a.Time).Compare(timeofday.ParseOrMin(b.Time)); c != 0 {
			return c < 0
		}

		return bytes.Compare(a.PlanItemID[:], b.PlanItemID[:]) < 0
	})
}
