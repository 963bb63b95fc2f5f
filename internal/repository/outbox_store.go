package repository

import (
	"context"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// OutboxStore appends events within the producing write's transaction and
// lets OutboxRelay drain them later. Append MUST be called with the same
// Tx the caller used for its business-state write, or the outbox pattern's
// atomicity guarantee does not hold.
type OutboxStore interface {
	Append(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	PullUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx Tx, id string, at time.Time) error
}
