package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a patient's treatment plan, authored by a doctor.
type Plan struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	DoctorName  string    `db:"doctor_name" json:"doctor_name"`
	Name        string    `db:"name" json:"name"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Items is populated by reads, never stored on the plan row.
	Items []PlanItem `db:"-" json:"items,omitempty"`
}

// TableName returns the database table name
func (Plan) TableName() string {
	return "plans"
}

// PlanItem is one prescribed medication entry within a plan.
type PlanItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PlanID        uuid.UUID `db:"plan_id" json:"plan_id"`
	DrugID        uuid.UUID `db:"drug_id" json:"drug_id"`
	Dosage        *float64  `db:"dosage" json:"dosage,omitempty"`
	Unit          *string   `db:"unit" json:"unit,omitempty"`
	AmountLiteral *string   `db:"amount_literal" json:"amount_literal,omitempty"`
	Note          *string   `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// DrugName is resolved from the drug catalog, never stored on the item row.
	DrugName string `db:"-" json:"drug_name,omitempty"`

	// Rule is the item's first recurrence rule, bound on raw plan reads.
	Rule *RecurrenceRule `db:"-" json:"rule,omitempty"`
}

// TableName returns the database table name
func (PlanItem) TableName() string {
	return "plan_items"
}
