package repository

import (
	"context"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// AppointmentStore defines all persistence operations for appointments.
// The pgx implementation is in pg_appointment_store.go; tests use the
// hand-written mock in mock_appointment_store.go.
//
// InsertPending is the single reliable mechanism for per-slot uniqueness:
// it MUST be backed by a database-enforced partial unique index on
// (provider_id, starts_at) WHERE status IN ('PENDING','CONFIRMED'), not an
// advisory application-level read.
type AppointmentStore interface {
	InsertPending(ctx context.Context, tx Tx, appt *domain.Appointment) error
	Get(ctx context.Context, id string) (*domain.Appointment, error)
	Cancel(ctx context.Context, tx Tx, id string) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Appointment, error)
	SlotsTaken(ctx context.Context, providerID string, from, to time.Time) (map[time.Time]struct{}, error)
}
