package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockBeginner is a hand-written Beginner for tests that run BookingEngine or
// OutboxRelay without a database: it hands out a no-op Tx. Commit/Rollback
// only set flags on that Tx, which nothing reads back, so a rolled-back batch
// still leaves the mock stores' writes visible.
type MockBeginner struct {
	BeginErr error
}

func NewMockBeginner() *MockBeginner { return &MockBeginner{} }

func (b *MockBeginner) Begin(_ context.Context) (Tx, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	return &mockTx{}, nil
}

// mockTx is a Tx that performs no real transactional isolation: the mock
// stores it wraps (MockAppointmentStore, MockOutboxStore, ...) apply writes
// immediately and ignore the Tx argument, so correctness here rests on the
// stores' own atomicity within a single Go call, not on this type. It exists
// so BookingEngine and OutboxRelay compile and run against mocks exactly as
// they would against pgx.Tx.
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (t *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

func (t *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *mockTx) Commit(_ context.Context) error {
	t.committed = true
	return nil
}

func (t *mockTx) Rollback(_ context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
