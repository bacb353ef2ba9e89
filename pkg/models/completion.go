package models

import (
	"time"

	"github.com/google/uuid"
)

// CompletionRecord is a logged event stating a patient took a dose they were
// expected to take. The tuple (user id, plan item id, expected date, expected
// time) is the natural key matching a record to a scheduled dose.
type CompletionRecord struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	PlanItemID   *uuid.UUID `db:"plan_item_id" json:"plan_item_id,omitempty"`
	ExpectedDate *time.Time `db:"expected_date" json:"expected_date,omitempty"`
	ExpectedTime *string    `db:"expected_time" json:"expected_time,omitempty"`
	TakenAt      time.Time  `db:"taken_at" json:"taken_at"`
	Completed    bool       `db:"completed" json:"completed"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (CompletionRecord) TableName() string {
	return "drug_records"
}
