package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func completionFor(dose ScheduledDose) models.CompletionRecord {
	itemID := dose.PlanItemID
	expectedDate := dose.Date
	return models.CompletionRecord{
		ID:           uuid.New(),
		UserID:       dose.UserID,
		PlanItemID:   &itemID,
		ExpectedDate: &expectedDate,
		ExpectedTime: strPtr(dose.Time),
		TakenAt:      dose.Date,
		Completed:    true,
	}
}

func TestFindMissed_CompletedDoseIsNotMissed(t *testing.T) {
	dose := ScheduledDose{
		UserID:     uuid.New(),
		PlanItemID: uuid.New(),
		Date:       date(2025, time.March, 3),
		Time:       "09:00:00",
		DrugName:   "Lisinopril",
	}

	missed := FindMissed([]ScheduledDose{dose}, []models.CompletionRecord{completionFor(dose)})
	assert.Empty(t, missed)
}

func TestFindMissed_NoCompletionsMeansAllMissed(t *testing.T) {
	doses := []ScheduledDose{
		{UserID: uuid.New(), PlanItemID: uuid.New(), Date: date(2025, time.March, 3), Time: "09:00:00"},
		{UserID: uuid.New(), PlanItemID: uuid.New(), Date: date(2025, time.March, 3), Time: "21:00:00"},
	}

	missed := FindMissed(doses, nil)
	assert.Equal(t, doses, missed)
}

func TestFindMissed_KeyIsExact(t *testing.T) {
	dose := ScheduledDose{
		UserID:     uuid.New(),
		PlanItemID: uuid.New(),
		Date:       date(2025, time.March, 3),
		Time:       "09:00:00",
	}

	tests := []struct {
		name    string
		mutate  func(*models.CompletionRecord)
		matches bool
	}{
		{
			name:    "identical key matches",
			mutate:  func(_ *models.CompletionRecord) {},
			matches: true,
		},
		{
			name: "different user",
			mutate: func(r *models.CompletionRecord) {
				r.UserID = uuid.New()
			},
		},
		{
			name: "different plan item",
			mutate: func(r *models.CompletionRecord) {
				other := uuid.New()
				r.PlanItemID = &other
			},
		},
		{
			name: "different date",
			mutate: func(r *models.CompletionRecord) {
				other := date(2025, time.March, 4)
				r.ExpectedDate = &other
			},
		},
		{
			name: "different time",
			mutate: func(r *models.CompletionRecord) {
				r.ExpectedTime = strPtr("21:00:00")
			},
		},
		{
			name: "nil plan item never matches",
			mutate: func(r *models.CompletionRecord) {
				r.PlanItemID = nil
			},
		},
		{
			name: "nil expected date never matches",
			mutate: func(r *models.CompletionRecord) {
				r.ExpectedDate = nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := completionFor(dose)
			tt.mutate(&record)

			missed := FindMissed([]ScheduledDose{dose}, []models.CompletionRecord{record})
			if tt.matches {
				assert.Empty(t, missed)
			} else {
				require.Len(t, missed, 1)
				assert.Equal(t, dose, missed[0])
			}
		})
	}
}

func TestFindMissed_TimeFormatsAreNormalized(t *testing.T) {
	dose := ScheduledDose{
		UserID:     uuid.New(),
		PlanItemID: uuid.New(),
		Date:       date(2025, time.March, 3),
		Time:       "09:00",
	}

	// Stored as HH:MM:SS, scheduled as HH:MM; still the same dose.
	record := completionFor(dose)
	record.ExpectedTime = strPtr("09:00:00")

	missed := FindMissed([]ScheduledDose{dose}, []models.CompletionRecord{record})
	assert.Empty(t, missed)
}

func TestFindMissed_MalformedTimesCompareVerbatim(t *testing.T) {
	dose := ScheduledDose{
		UserID:     uuid.New(),
		PlanItemID: uuid.New(),
		Date:       date(2025, time.March, 3),
		Time:       "25:99",
	}

	match := completionFor(dose)

	mismatch := completionFor(dose)
	mismatch.ExpectedTime = strPtr("25:98")

	assert.Empty(t, FindMissed([]ScheduledDose{dose}, []models.CompletionRecord{match}))
	assert.Len(t, FindMissed([]ScheduledDose{dose}, []models.CompletionRecord{mismatch}), 1)
}

func TestFindMissed_OnlyUnmatchedDosesReturned(t *testing.T) {
	userID := uuid.New()
	taken := ScheduledDose{UserID: userID, PlanItemID: uuid.New(), Date: date(2025, time.March, 3), Time: "09:00:00"}
	skipped := ScheduledDose{UserID: userID, PlanItemID: uuid.New(), Date: date(2025, time.March, 3), Time: "21:00:00"}

	missed := FindMissed([]ScheduledDose{taken, skipped}, []models.CompletionRecord{completionFor(taken)})

	require.Len(t, missed, 1)
	assert.Equal(t, skipped, missed[0])
}
