// Package events handles event emission for adherence lifecycle changes so
// downstream consumers (dashboards, the patient-facing app) can react to
// missed doses and sent reminders.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/kafka"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// AdherenceEvent describes a missed dose or a sent reminder.
type AdherenceEvent struct {
	EventType     string    `json:"event_type"` // dose.missed, reminder.sent
	UserID        uuid.UUID `json:"user_id"`
	PlanItemID    uuid.UUID `json:"plan_item_id"`
	DrugName      string    `json:"drug_name,omitempty"`
	ExpectedDate  string    `json:"expected_date"`
	ExpectedTime  string    `json:"expected_time,omitempty"`
	OffsetMinutes int64     `json:"offset_minutes,omitempty"`
	Version       string    `json:"version"`
	Timestamp     time.Time `json:"timestamp"`
}

// Emitter publishes adherence events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitDoseMissed emits a dose.missed event
func (e *Emitter) EmitDoseMissed(ctx context.Context, event AdherenceEvent) error {
	return e.emit(ctx, "dose.missed", event)
}

// EmitReminderSent emits a reminder.sent event
func (e *Emitter) EmitReminderSent(ctx context.Context, event AdherenceEvent) error {
	return e.emit(ctx, "reminder.sent", event)
}

func (e *Emitter) emit(ctx context.Context, eventType string, event AdherenceEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	event.EventType = eventType
	event.Version = SchemaVersion
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if err := e.producer.Publish(ctx, eventType, event.UserID.String(), event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}

	return nil
}
