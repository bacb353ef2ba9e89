package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedDose(clock string) ScheduledDose {
	return ScheduledDose{
		UserID:     uuid.New(),
		PlanItemID: uuid.New(),
		Date:       date(2025, time.March, 3),
		Time:       clock,
	}
}

func TestScheduledAt(t *testing.T) {
	dose := timedDose("09:30:15")
	assert.Equal(t, time.Date(2025, time.March, 3, 9, 30, 15, 0, time.UTC), dose.ScheduledAt())
}

func TestScheduledAt_MissingTimeUsesDefault(t *testing.T) {
	dose := timedDose("")
	assert.Equal(t, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), dose.ScheduledAt())
}

func TestScheduledAt_MalformedTimeUsesDefault(t *testing.T) {
	dose := timedDose("25:99")
	assert.Equal(t, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), dose.ScheduledAt())
}

func TestShouldFire_WindowBoundaries(t *testing.T) {
	// Dose at 09:00 with a +30 minute offset targets 09:30. A 60 second
	// check interval owns exactly [09:30:00, 09:31:00).
	dose := timedDose("09:00")
	offsets := []int64{30}
	interval := 60 * time.Second

	tests := []struct {
		name  string
		now   time.Time
		fires bool
	}{
		{"well before target", time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), false},
		{"just inside window", time.Date(2025, time.March, 3, 9, 29, 40, 0, time.UTC), true},
		{"window start", time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC), true},
		{"last instant of window", time.Date(2025, time.March, 3, 9, 30, 59, 0, time.UTC), true},
		{"window end is exclusive", time.Date(2025, time.March, 3, 9, 31, 0, 0, time.UTC), false},
		{"after target", time.Date(2025, time.March, 3, 9, 45, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, fires := ShouldFire(dose, offsets, tt.now, interval)
			assert.Equal(t, tt.fires, fires)
			if tt.fires {
				assert.Equal(t, int64(30), offset)
			}
		})
	}
}

func TestShouldFire_NegativeOffsetFiresBeforeDose(t *testing.T) {
	dose := timedDose("09:00")
	now := time.Date(2025, time.March, 3, 8, 30, 10, 0, time.UTC)

	offset, fires := ShouldFire(dose, []int64{-30}, now, time.Minute)
	require.True(t, fires)
	assert.Equal(t, int64(-30), offset)
}

func TestShouldFire_FirstMatchingOffsetWins(t *testing.T) {
	dose := timedDose("09:00")
	now := time.Date(2025, time.March, 3, 9, 0, 30, 0, time.UTC)

	// Both 0 and an equivalent duplicate target 09:00; only the first fires.
	offset, fires := ShouldFire(dose, []int64{0, 0, 30}, now, time.Minute)
	require.True(t, fires)
	assert.Equal(t, int64(0), offset)
}

func TestShouldFire_NoOffsets(t *testing.T) {
	dose := timedDose("09:00")
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	_, fires := ShouldFire(dose, nil, now, time.Minute)
	assert.False(t, fires)
}

func TestShouldFire_TimelessDoseUsesDefaultReminderTime(t *testing.T) {
	dose := timedDose("")
	now := time.Date(2025, time.March, 3, 9, 0, 20, 0, time.UTC)

	offset, fires := ShouldFire(dose, []int64{0}, now, time.Minute)
	require.True(t, fires)
	assert.Equal(t, int64(0), offset)
}
