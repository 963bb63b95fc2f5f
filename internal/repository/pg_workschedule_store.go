package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/booking-backend/internal/domain"
)

type pgWorkScheduleStore struct {
	pool     *pgxpool.Pool
	existing ProviderExistence
}

func NewPgWorkScheduleStore(pool *pgxpool.Pool, existing ProviderExistence) WorkScheduleStore {
	return &pgWorkScheduleStore{pool: pool, existing: existing}
}

func (r *pgWorkScheduleStore) BlocksFor(ctx context.Context, providerID string, weekday int) ([]domain.WorkHourBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT provider_id, weekday, start_time, end_time
		FROM work_hours WHERE provider_id = $1 AND weekday = $2`, providerID, weekday)
	if err != nil {
		return nil, fmt.Errorf("list work hours: %w", err)
	}
	defer rows.Close()

	var blocks []domain.WorkHourBlock
	for rows.Next() {
		b, err := scanWorkHourBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(blocks) == 0 && r.existing != nil {
		ok, err := r.existing.Exists(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("check provider existence: %w", err)
		}
		if !ok {
			return nil, domain.ErrNotFound
		}
	}
	return blocks, nil
}

func scanWorkHourBlock(row pgx.Row) (domain.WorkHourBlock, error) {
	var b domain.WorkHourBlock
	var startMin, endMin int
	if err := row.Scan(&b.ProviderID, &b.Weekday, &startMin, &endMin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkHourBlock{}, domain.ErrNotFound
		}
		return domain.WorkHourBlock{}, err
	}
	b.StartTime = domain.LocalTime{Hour: startMin / 60, Minute: startMin % 60}
	b.EndTime = domain.LocalTime{Hour: endMin / 60, Minute: endMin % 60}
	return b, nil
}
