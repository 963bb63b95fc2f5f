package domain

import "time"

// OutboxEventType enumerates the appointment lifecycle events the
// BookingEngine emits transactionally alongside the appointment write.
type OutboxEventType string

const (
	EventApptCreated  OutboxEventType = "APPT_CREATED"
	EventApptCanceled OutboxEventType = "APPT_CANCELED"
)

// OutboxEvent is appended by BookingEngine in the same transaction as the
// appointment write it describes, and later drained by OutboxRelay.
// Retained indefinitely for audit; published_at is set exactly once.
type OutboxEvent struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     OutboxEventType `json:"event_type"`
	Payload       map[string]any  `json:"payload"`
	Headers       map[string]any  `json:"headers,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}
