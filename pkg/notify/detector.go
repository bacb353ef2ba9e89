// Package notify implements missed-dose detection and the reminder worker
// that emails patients about doses they have not confirmed.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/timeofday"
)

// ScheduledDose is one expected dose for one user, flattened from a
// DoseOccurrence during reminder collection.
type ScheduledDose struct {
	UserID     uuid.UUID
	PlanItemID uuid.UUID

	// Date is the expected date (date part only, UTC).
	Date time.Time

	// Time is the raw time-of-day string; empty for date-only doses.
	Time string

	DrugName string
	Dosage   *float64
	Unit     *string
}

// doseKey is the natural key matching a completion record to a scheduled
// dose. Times are normalized through the shared parser so "09:00" and
// "09:00:00" agree; unparseable values compare verbatim.
type doseKey struct {
	userID     uuid.UUID
	planItemID uuid.UUID
	date       string
	clock      string
}

func normalizeClock(s string) string {
	if t, ok := timeofday.Parse(s); ok {
		return t.String()
	}
	return s
}

func keyFor(userID, planItemID uuid.UUID, date time.Time, clock string) doseKey {
	return doseKey{
		userID:     userID,
		planItemID: planItemID,
		date:       date.Format("2006-01-02"),
		clock:      normalizeClock(clock),
	}
}

// FindMissed returns every scheduled dose with no completion record sharing
// its exact (user, plan item, expected date, expected time) key. The match is
// a pure set difference; there is no time tolerance. Completion records
// without a plan item or expected date can never match.
func FindMissed(scheduled []ScheduledDose, completions []models.CompletionRecord) []ScheduledDose {
	completed := make(map[doseKey]struct{}, len(completions))
	for _, record := range completions {
		if record.PlanItemID == nil || record.ExpectedDate == nil {
			continue
		}
		clock := ""
		if record.ExpectedTime != nil {
			clock = *record.ExpectedTime
		}
		completed[keyFor(record.UserID, *record.PlanItemID, *record.ExpectedDate, clock)] = struct{}{}
	}

	var missed []ScheduledDose
	for _, dose := range scheduled {
		if _, ok := completed[keyFor(dose.UserID, dose.PlanItemID, dose.Date, dose.Time)]; !ok {
			missed = append(missed, dose)
		}
	}
	return missed
}
