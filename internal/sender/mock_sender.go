package sender

import (
	"context"
	"sync"
)

// MockSender is a hand-written in-memory ExternalSender for unit tests.
// SendFunc, when set, overrides the default success behavior — tests use it
// to script a sequence of failures (e.g. N consecutive 500s to trip a
// circuit breaker).
type MockSender struct {
	mu       sync.Mutex
	Sent     []SendRequest
	SendFunc func(channel, recipient, template string, variables map[string]any) error
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, channel string, recipient string, template string, variables map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SendRequest{To: recipient, Template: template, Variables: variables})
	if m.SendFunc != nil {
		return m.SendFunc(channel, recipient, template, variables)
	}
	return nil
}

func (m *MockSender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
