package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// MockNotificationStore is a hand-written, in-memory NotificationStore used
// in unit tests.
type MockNotificationStore struct {
	mu       sync.Mutex
	messages map[int64]*domain.NotificationMessage
	nextID   int64
}

func NewMockNotificationStore() *MockNotificationStore {
	return &MockNotificationStore{messages: make(map[int64]*domain.NotificationMessage)}
}

func (m *MockNotificationStore) InsertQueued(_ context.Context, msg *domain.NotificationMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	clone := *msg
	clone.ID = m.nextID
	m.messages[clone.ID] = &clone
	return clone.ID, nil
}

func (m *MockNotificationStore) InsertQueuedTx(_ context.Context, _ Tx, msg *domain.NotificationMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	clone := *msg
	clone.ID = m.nextID
	m.messages[clone.ID] = &clone
	return clone.ID, nil
}

func (m *MockNotificationStore) Get(_ context.Context, id int64) (*domain.NotificationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (m *MockNotificationStore) Update(_ context.Context, msg *domain.NotificationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[msg.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *msg
	m.messages[msg.ID] = &clone
	return nil
}

func (m *MockNotificationStore) FindStuckQueued(_ context.Context, cutoffCreatedAt time.Time, limit int) ([]*domain.NotificationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.NotificationMessage
	for _, msg := range m.messages {
		if msg.Status == domain.NotificationQueued && msg.CreatedAt.Before(cutoffCreatedAt) {
			clone := *msg
			result = append(result, &clone)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockNotificationStore) FindRetryableFailed(_ context.Context, maxAttempts int, limit int) ([]*domain.NotificationMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.NotificationMessage
	for _, msg := range m.messages {
		if msg.Status == domain.NotificationFailed && msg.Attempts < maxAttempts {
			clone := *msg
			result = append(result, &clone)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}
