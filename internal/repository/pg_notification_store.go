package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/booking-backend/internal/domain"
)

type pgNotificationStore struct {
	pool *pgxpool.Pool
}

// NewPgNotificationStore returns a NotificationStore backed by PostgreSQL.
func NewPgNotificationStore(pool *pgxpool.Pool) NotificationStore {
	return &pgNotificationStore{pool: pool}
}

func (r *pgNotificationStore) InsertQueued(ctx context.Context, msg *domain.NotificationMessage) (int64, error) {
	variables, err := json.Marshal(msg.Variables)
	if err != nil {
		return 0, fmt.Errorf("marshal notification variables: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO notification_messages
			(channel, recipient, template, variables, status, attempts, appointment_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		msg.Channel, msg.Recipient, msg.Template, variables, msg.Status, msg.Attempts, msg.AppointmentID, msg.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert notification message: %w", err)
	}
	return id, nil
}

func (r *pgNotificationStore) InsertQueuedTx(ctx context.Context, tx Tx, msg *domain.NotificationMessage) (int64, error) {
	variables, err := json.Marshal(msg.Variables)
	if err != nil {
		return 0, fmt.Errorf("marshal notification variables: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO notification_messages
			(channel, recipient, template, variables, status, attempts, appointment_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		msg.Channel, msg.Recipient, msg.Template, variables, msg.Status, msg.Attempts, msg.AppointmentID, msg.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert notification message: %w", err)
	}
	return id, nil
}

func (r *pgNotificationStore) Get(ctx context.Context, id int64) (*domain.NotificationMessage, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, channel, recipient, template, variables, status, attempts,
		       last_error, appointment_id, created_at, sent_at
		FROM notification_messages WHERE id = $1`, id)

	msg, err := scanNotificationMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return msg, err
}

// Update writes back status/attempts/last_error/sent_at. Last-write-wins:
// the Dispatcher is the only caller; the StuckRequeuer only resubmits ids
// and never writes a row.
func (r *pgNotificationStore) Update(ctx context.Context, msg *domain.NotificationMessage) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_messages
		SET status = $1, attempts = $2, last_error = $3, sent_at = $4
		WHERE id = $5`,
		msg.Status, msg.Attempts, msg.LastError, msg.SentAt, msg.ID,
	)
	if err != nil {
		return fmt.Errorf("update notification message: %w", err)
	}
	return nil
}

func (r *pgNotificationStore) FindStuckQueued(ctx context.Context, cutoffCreatedAt time.Time, limit int) ([]*domain.NotificationMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel, recipient, template, variables, status, attempts,
		       last_error, appointment_id, created_at, sent_at
		FROM notification_messages
		WHERE status = 'QUEUED' AND created_at < $1
		ORDER BY created_at DESC
		LIMIT $2`, cutoffCreatedAt, limit)
	if err != nil {
		return nil, fmt.Errorf("find stuck queued: %w", err)
	}
	defer rows.Close()
	return scanNotificationMessages(rows)
}

func (r *pgNotificationStore) FindRetryableFailed(ctx context.Context, maxAttempts int, limit int) ([]*domain.NotificationMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel, recipient, template, variables, status, attempts,
		       last_error, appointment_id, created_at, sent_at
		FROM notification_messages
		WHERE status = 'FAILED' AND (attempts IS NULL OR attempts < $1)
		ORDER BY created_at DESC
		LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("find retryable failed: %w", err)
	}
	defer rows.Close()
	return scanNotificationMessages(rows)
}

func scanNotificationMessage(row pgx.Row) (*domain.NotificationMessage, error) {
	var msg domain.NotificationMessage
	var variables []byte
	err := row.Scan(
		&msg.ID, &msg.Channel, &msg.Recipient, &msg.Template, &variables,
		&msg.Status, &msg.Attempts, &msg.LastError, &msg.AppointmentID,
		&msg.CreatedAt, &msg.SentAt,
	)
	if err != nil {
		return nil, err
	}
	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &msg.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal notification variables: %w", err)
		}
	}
	return &msg, nil
}

func scanNotificationMessages(rows pgx.Rows) ([]*domain.NotificationMessage, error) {
	var result []*domain.NotificationMessage
	for rows.Next() {
		msg, err := scanNotificationMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
