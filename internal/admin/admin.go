// Package admin implements the narrow set of readers the core depends on
// from the out-of-scope AdminStore collaborator: provider existence checks
// and appointment-to-recipient resolution. CRUD over providers,
// establishments, and work-hour rows lives in the admin service; only its
// read contract matters here.
package admin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/booking-backend/internal/domain"
)

// ProviderExistence implements repository.ProviderExistence against the
// providers table.
type ProviderExistence struct {
	pool *pgxpool.Pool
}

func NewProviderExistence(pool *pgxpool.Pool) *ProviderExistence {
	return &ProviderExistence{pool: pool}
}

func (p *ProviderExistence) Exists(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM providers WHERE id = $1)`, providerID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RecipientResolver implements outboxrelay.RecipientResolver by joining the
// appointment's owning user to their contact phone number. Callers fall back
// to a configured placeholder on any resolution failure.
type RecipientResolver struct {
	pool *pgxpool.Pool
}

func NewRecipientResolver(pool *pgxpool.Pool) *RecipientResolver {
	return &RecipientResolver{pool: pool}
}

func (r *RecipientResolver) Resolve(ctx context.Context, appointmentID string) (string, error) {
	var phone string
	err := r.pool.QueryRow(ctx, `
		SELECT u.phone
		FROM appointments a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`, appointmentID).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return phone, nil
}
