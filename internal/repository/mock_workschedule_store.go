package repository

import (
	"context"
	"sync"

	"github.com/ricirt/booking-backend/internal/domain"
)

// MockWorkScheduleStore is a hand-written in-memory WorkScheduleStore for tests.
type MockWorkScheduleStore struct {
	mu     sync.Mutex
	blocks map[string][]domain.WorkHourBlock // key: providerID|weekday
	known  map[string]bool                   // providers that "exist" for the NotFound case
}

func NewMockWorkScheduleStore() *MockWorkScheduleStore {
	return &MockWorkScheduleStore{
		blocks: make(map[string][]domain.WorkHourBlock),
		known:  make(map[string]bool),
	}
}

func (m *MockWorkScheduleStore) key(providerID string, weekday int) string {
	return providerID + "|" + string(rune('0'+weekday))
}

func (m *MockWorkScheduleStore) AddProvider(providerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[providerID] = true
}

func (m *MockWorkScheduleStore) AddBlock(b domain.WorkHourBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[b.ProviderID] = true
	k := m.key(b.ProviderID, b.Weekday)
	m.blocks[k] = append(m.blocks[k], b)
}

func (m *MockWorkScheduleStore) BlocksFor(_ context.Context, providerID string, weekday int) ([]domain.WorkHourBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blocks := m.blocks[m.key(providerID, weekday)]
	if len(blocks) == 0 && !m.known[providerID] {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.WorkHourBlock, len(blocks))
	copy(out, blocks)
	return out, nil
}
