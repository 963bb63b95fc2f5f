package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/booking-backend/internal/domain"
)

// appointmentSlotIndex is the name of the partial unique index that enforces
// "at most one PENDING/CONFIRMED row per (provider_id, starts_at)". Its
// violation is the only signal InsertPending trusts for SlotTaken — no
// advisory read-then-write check is performed anywhere in this store.
const appointmentSlotIndex = "appointments_provider_slot_uniq"

type pgAppointmentStore struct {
	pool *pgxpool.Pool
}

func NewPgAppointmentStore(pool *pgxpool.Pool) AppointmentStore {
	return &pgAppointmentStore{pool: pool}
}

func (r *pgAppointmentStore) InsertPending(ctx context.Context, tx Tx, appt *domain.Appointment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO appointments (id, user_id, provider_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		appt.ID, appt.UserID, appt.ProviderID, appt.StartsAt, appt.EndsAt, appt.Status, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == appointmentSlotIndex {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *pgAppointmentStore) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, provider_id, starts_at, ends_at, status, created_at, updated_at
		FROM appointments WHERE id = $1`, id)

	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *pgAppointmentStore) Cancel(ctx context.Context, tx Tx, id string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`,
		domain.AppointmentCanceled, time.Now().UTC(), id,
	)
	return err
}

func (r *pgAppointmentStore) ListByUser(ctx context.Context, userID string) ([]*domain.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, provider_id, starts_at, ends_at, status, created_at, updated_at
		FROM appointments WHERE user_id = $1 ORDER BY starts_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var result []*domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// SlotsTaken returns the set of starts_at instants with a PENDING or
// CONFIRMED row for providerID within the half-open window [from, to).
// Callers (AvailabilityEngine) widen the window beyond a strict 24h local
// day to stay correct across DST transitions; this query itself is a plain
// range scan.
func (r *pgAppointmentStore) SlotsTaken(ctx context.Context, providerID string, from, to time.Time) (map[time.Time]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT starts_at FROM appointments
		WHERE provider_id = $1
		  AND status IN ('PENDING','CONFIRMED')
		  AND starts_at >= $2 AND starts_at < $3`,
		providerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("slots taken: %w", err)
	}
	defer rows.Close()

	taken := make(map[time.Time]struct{})
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		taken[t.UTC()] = struct{}{}
	}
	return taken, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.ProviderID, &a.StartsAt, &a.EndsAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.StartsAt = a.StartsAt.UTC()
	a.EndsAt = a.EndsAt.UTC()
	return &a, nil
}
