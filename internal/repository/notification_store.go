package repository

import (
	"context"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// NotificationStore defines all persistence operations for notification
// messages. OutboxRelay owns row creation; NotificationDispatcher owns
// attempt updates; StuckRequeuer may reset status but never attempts.
type NotificationStore interface {
	InsertQueued(ctx context.Context, msg *domain.NotificationMessage) (int64, error)
	// InsertQueuedTx is the same insert run inside the caller's transaction,
	// used by OutboxRelay so the new NotificationMessage row and the
	// outbox.published_at update commit or fail together.
	InsertQueuedTx(ctx context.Context, tx Tx, msg *domain.NotificationMessage) (int64, error)
	Get(ctx context.Context, id int64) (*domain.NotificationMessage, error)
	Update(ctx context.Context, msg *domain.NotificationMessage) error
	FindStuckQueued(ctx context.Context, cutoffCreatedAt time.Time, limit int) ([]*domain.NotificationMessage, error)
	FindRetryableFailed(ctx context.Context, maxAttempts int, limit int) ([]*domain.NotificationMessage, error)
}
