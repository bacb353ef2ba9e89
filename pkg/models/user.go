package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the account record the reminder pipeline needs:
// identity, address, and a display name.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (User) TableName() string {
	return "users"
}
