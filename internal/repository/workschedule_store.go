package repository

import (
	"context"

	"github.com/ricirt/booking-backend/internal/domain"
)

// WorkScheduleStore reads per-provider weekly work-hour blocks. Writing
// these rows is the admin surface's job; this store only ever reads.
type WorkScheduleStore interface {
	// BlocksFor returns all work-hour blocks for providerID on the given
	// weekday (0=Sunday..6=Saturday). Returns domain.ErrNotFound only if the
	// provider itself does not exist; callers that already validated the
	// provider may treat an empty result as "no work" without checking the
	// error.
	BlocksFor(ctx context.Context, providerID string, weekday int) ([]domain.WorkHourBlock, error)
}

// ProviderExistence is the single reader WorkScheduleStore borrows from the
// (out-of-scope) AdminStore to distinguish "provider has no hours today"
// from "provider does not exist".
type ProviderExistence interface {
	Exists(ctx context.Context, providerID string) (bool, error)
}
