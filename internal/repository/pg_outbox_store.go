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

type pgOutboxStore struct {
	pool *pgxpool.Pool
}

func NewPgOutboxStore(pool *pgxpool.Pool) OutboxStore {
	return &pgOutboxStore{pool: pool}
}

func (r *pgOutboxStore) Append(ctx context.Context, tx Tx, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	var headers []byte
	if event.Headers != nil {
		headers, err = json.Marshal(event.Headers)
		if err != nil {
			return fmt.Errorf("marshal outbox headers: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, headers, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		event.ID, event.AggregateType, event.AggregateID, event.EventType, payload, headers, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}

func (r *pgOutboxStore) PullUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, headers, created_at, published_at
		FROM outbox WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull unpublished outbox events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		e, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *pgOutboxStore) MarkPublished(ctx context.Context, tx Tx, id string, at time.Time) error {
	_, err := tx.Exec(ctx, `UPDATE outbox SET published_at = $1 WHERE id = $2`, at, id)
	return err
}

func scanOutboxEvent(row pgx.Row) (*domain.OutboxEvent, error) {
	var e domain.OutboxEvent
	var payload, headers []byte
	err := row.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &headers, &e.CreatedAt, &e.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
	}
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &e.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal outbox headers: %w", err)
		}
	}
	return &e, nil
}
