package notify

import (
	"fmt"
	"time"

	"github.com/Ramsey-B/yarrow/pkg/timeofday"
)

// ReminderSubject is the subject line for every reminder email.
const ReminderSubject = "Yarrow Medication Reminder"

// BuildReminderBody renders the reminder email for a missed dose. The
// scheduled time is formatted in loc (the user's configured timezone);
// displayName falls back to a generic greeting when empty.
func BuildReminderBody(dose ScheduledDose, displayName string, loc *time.Location) string {
	if displayName == "" {
		displayName = "User"
	}

	drugName := dose.DrugName
	if drugName == "" {
		drugName = "Unknown medication"
	}

	dosagePart := ""
	if dose.Dosage != nil && dose.Unit != nil {
		dosagePart = fmt.Sprintf(" (Dosage: %g %s)", *dose.Dosage, *dose.Unit)
	}

	return fmt.Sprintf(
		"Hello %s,\n\n"+
			"This is a medication reminder from Yarrow:\n"+
			"- Medication: %s%s\n"+
			"- Scheduled time: %s\n\n"+
			"Please confirm whether you have taken this medication as instructed.\n"+
			"If you have already taken it, you can safely ignore this email.\n\n"+
			"To adjust or disable medication reminders, please visit your "+
			"Yarrow notification settings.\n\n"+
			"— The Yarrow Team",
		displayName, drugName, dosagePart, formatScheduled(dose, loc),
	)
}

func formatScheduled(dose ScheduledDose, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if _, ok := timeofday.Parse(dose.Time); !ok {
		return dose.Date.Format("2006-01-02")
	}
	return dose.ScheduledAt().In(loc).Format("2006-01-02 15:04")
}
