package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func TestBuildReminderBody(t *testing.T) {
	dose := timedDose("09:00")
	dose.DrugName = "Lisinopril"
	dose.Dosage = floatPtr(10)
	dose.Unit = strPtr("mg")

	body := BuildReminderBody(dose, "alice", time.UTC)

	assert.Contains(t, body, "Hello alice,")
	assert.Contains(t, body, "Medication: Lisinopril (Dosage: 10 mg)")
	assert.Contains(t, body, "Scheduled time: 2025-03-03 09:00")
	assert.Contains(t, body, "The Yarrow Team")
}

func TestBuildReminderBody_Fallbacks(t *testing.T) {
	dose := timedDose("09:00")

	body := BuildReminderBody(dose, "", time.UTC)

	assert.Contains(t, body, "Hello User,")
	assert.Contains(t, body, "Medication: Unknown medication\n")
	assert.NotContains(t, body, "Dosage:")
}

func TestBuildReminderBody_NoDosageWhenUnitMissing(t *testing.T) {
	dose := timedDose("09:00")
	dose.DrugName = "Metformin"
	dose.Dosage = floatPtr(500)

	body := BuildReminderBody(dose, "bob", time.UTC)
	assert.NotContains(t, body, "Dosage:")
}

func TestBuildReminderBody_TimezoneFormatting(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	dose := timedDose("14:00")
	dose.DrugName = "Lisinopril"

	body := BuildReminderBody(dose, "alice", loc)
	assert.Contains(t, body, "Scheduled time: 2025-03-03 09:00")
}

func TestBuildReminderBody_DateOnlyDose(t *testing.T) {
	dose := timedDose("")
	dose.DrugName = "Lisinopril"

	body := BuildReminderBody(dose, "alice", time.UTC)
	assert.Contains(t, body, "Scheduled time: 2025-03-03\n")
}
