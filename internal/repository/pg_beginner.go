package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxBeginner adapts *pgxpool.Pool to Beginner. pgx.Tx's method set already
// satisfies Tx; this wrapper exists only to match Beginner's narrower return
// type.
type pgxBeginner struct {
	pool *pgxpool.Pool
}

func NewBeginner(pool *pgxpool.Pool) Beginner {
	return &pgxBeginner{pool: pool}
}

func (b *pgxBeginner) Begin(ctx context.Context) (Tx, error) {
	return b.pool.Begin(ctx)
}
