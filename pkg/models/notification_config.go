package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NotificationConfig holds a user's reminder settings.
type NotificationConfig struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Enabled      bool      `db:"enabled" json:"enabled"`
	EmailEnabled bool      `db:"email_enabled" json:"email_enabled"`

	// NotifyMinutes are literal minute offsets added to a dose's scheduled
	// instant: a negative offset fires before the dose, positive after, zero
	// at the scheduled time. Bounded to [-1440, 1440].
	NotifyMinutes pq.Int64Array `db:"notify_minutes" json:"notify_minutes" validate:"dive,min=-1440,max=1440"`

	// Timezone is an IANA zone name used to format scheduled times in
	// reminder messages.
	Timezone string `db:"timezone" json:"timezone" validate:"required"`
}

// TableName returns the database table name
func (NotificationConfig) TableName() string {
	return "notification_configs"
}

// DefaultNotificationConfig is the configuration assigned to new users:
// reminders lead the dose by 30 and 10 minutes, fire at the scheduled time,
// and follow it by 10 and 30 minutes.
func DefaultNotificationConfig(userID uuid.UUID) *NotificationConfig {
	return &NotificationConfig{
		UserID:        userID,
		Enabled:       true,
		EmailEnabled:  true,
		NotifyMinutes: pq.Int64Array{-30, -10, 0, 10, 30},
		Timezone:      "UTC",
	}
}
