package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// MockOutboxStore is a hand-written in-memory OutboxStore for tests.
type MockOutboxStore struct {
	mu     sync.Mutex
	events map[string]*domain.OutboxEvent
}

func NewMockOutboxStore() *MockOutboxStore {
	return &MockOutboxStore{events: make(map[string]*domain.OutboxEvent)}
}

func (m *MockOutboxStore) Append(_ context.Context, _ Tx, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *event
	m.events[event.ID] = &clone
	return nil
}

func (m *MockOutboxStore) PullUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if e.PublishedAt == nil {
			clone := *e
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockOutboxStore) MarkPublished(_ context.Context, _ Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[id]; ok {
		published := at
		e.PublishedAt = &published
	}
	return nil
}

// CountByAggregateAndType is a test helper asserting the "exactly one
// outbox event per committed create" invariant.
func (m *MockOutboxStore) CountByAggregateAndType(aggregateID string, eventType domain.OutboxEventType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.AggregateID == aggregateID && e.EventType == eventType {
			n++
		}
	}
	return n
}
