package models

import (
	"time"

	"github.com/google/uuid"
)

// DoseOccurrence is one concrete dated (and optionally timed) instantiation
// of a PlanItem produced by rule expansion. Occurrences are computed on every
// query and never persisted; many occurrences share the same PlanItemID.
type DoseOccurrence struct {
	PlanItemID    uuid.UUID `json:"plan_item_id"`
	PlanID        uuid.UUID `json:"plan_id"`
	DrugID        uuid.UUID `json:"drug_id"`
	DrugName      string    `json:"drug_name,omitempty"`
	Dosage        *float64  `json:"dosage,omitempty"`
	Unit          *string   `json:"unit,omitempty"`
	AmountLiteral *string   `json:"amount_literal,omitempty"`
	Note          *string   `json:"note,omitempty"`

	// Date is nil for PRN ("as needed") occurrences.
	Date *time.Time `json:"date,omitempty"`

	// Time is the raw time-of-day string from the rule ("HH:MM" or
	// "HH:MM:SS"); empty for date-only occurrences. Malformed values are
	// preserved as-is and sort as midnight.
	Time string `json:"time,omitempty"`

	// Rule is the recurrence rule the occurrence was generated from.
	Rule *RecurrenceRule `json:"rule,omitempty"`
}
