package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Tx is the subset of pgx.Tx that store methods and callers need when work
// must run inside a caller-owned transaction (AppointmentStore.InsertPending/
// Cancel, OutboxStore.Append, NotificationStore.InsertQueuedTx). BookingEngine
// and OutboxRelay open the transaction and pass it down so their respective
// writes commit or fail together.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Beginner opens a new transaction. *pgxpool.Pool does not satisfy it
// directly (its Begin returns pgx.Tx); NewBeginner wraps the pool, and
// pgx.Tx implements Tx structurally.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}
