package dispatcher_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/config"
	"github.com/ricirt/booking-backend/internal/dispatcher"
	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/ratelimiter"
	"github.com/ricirt/booking-backend/internal/repository"
	"github.com/ricirt/booking-backend/internal/sender"
)

func testConfig() *config.Config {
	return &config.Config{
		DispatchWorkers:   2,
		RateLimitPerSec:   1000,
		CircuitFailMax:    3,
		CircuitResetSec:   time.Hour,
		RetryMaxAttempts:  1,
		RetryBackoffBase:  time.Millisecond,
		RetryBackoffMax:   10 * time.Millisecond,
		RequeueStaleSec:   5 * time.Minute,
		FailedMaxAttempts: 8,
	}
}

func waitForStatus(t *testing.T, store repository.NotificationStore, id int64, want domain.NotificationStatus, timeout time.Duration) *domain.NotificationMessage {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg, err := store.Get(context.Background(), id)
		if err == nil && msg.Status == want {
			return msg
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("message %d never reached status %s", id, want)
	return nil
}

func newTestMessage(store repository.NotificationStore) int64 {
	id, _ := store.InsertQueued(context.Background(), &domain.NotificationMessage{
		Channel:   domain.ChannelWhatsApp,
		Recipient: "+15550000000",
		Template:  "appt_created",
		Variables: map[string]any{"provider_id": "p1"},
		Status:    domain.NotificationQueued,
		CreatedAt: time.Now().UTC(),
	})
	return id
}

func TestDispatcher_SuccessMarksSent(t *testing.T) {
	store := repository.NewMockNotificationStore()
	id := newTestMessage(store)

	snd := sender.NewMockSender()
	d := dispatcher.New(testConfig(), store, snd, ratelimiter.New(1000), zap.NewNop(), dispatcher.Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if err := d.Submit(id); err != nil {
		t.Fatal(err)
	}

	msg := waitForStatus(t, store, id, domain.NotificationSent, time.Second)
	if msg.SentAt == nil {
		t.Fatal("expected sent_at to be set")
	}
	if msg.Attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", msg.Attempts)
	}
}

func TestDispatcher_UpstreamRejectedFailsWithoutRetry(t *testing.T) {
	store := repository.NewMockNotificationStore()
	id := newTestMessage(store)

	snd := sender.NewMockSender()
	snd.SendFunc = func(channel, recipient, template string, variables map[string]any) error {
		return domain.ErrUpstreamRejected
	}

	cfg := testConfig()
	cfg.RetryMaxAttempts = 3 // leave room for retries so a single send shows none happened

	d := dispatcher.New(cfg, store, snd, ratelimiter.New(1000), zap.NewNop(), dispatcher.Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_ = d.Submit(id)

	msg := waitForStatus(t, store, id, domain.NotificationFailed, time.Second)
	if msg.Attempts != 1 {
		t.Fatalf("expected attempts=1 after one dispatch, got %d", msg.Attempts)
	}
	if snd.Calls() != 1 {
		t.Fatalf("expected exactly one sender call (no retry on rejection), got %d", snd.Calls())
	}
}

func TestDispatcher_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	store := repository.NewMockNotificationStore()

	snd := sender.NewMockSender()
	snd.SendFunc = func(channel, recipient, template string, variables map[string]any) error {
		return domain.ErrUpstreamRetryable
	}

	cfg := testConfig()
	cfg.DispatchWorkers = 1 // serialize submissions so consecutive-failure counting is deterministic

	d := dispatcher.New(cfg, store, snd, ratelimiter.New(1000), zap.NewNop(), dispatcher.Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < cfg.CircuitFailMax; i++ {
		id := newTestMessage(store)
		_ = d.Submit(id)
		waitForStatus(t, store, id, domain.NotificationFailed, 2*time.Second)
	}

	// One more submission should now observe the open breaker. The row is
	// QUEUED from the start, so wait on last_error, not status.
	openID := newTestMessage(store)
	callsBefore := snd.Calls()
	_ = d.Submit(openID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		msg, err := store.Get(context.Background(), openID)
		if err == nil && msg.LastError != nil {
			if !strings.HasPrefix(*msg.LastError, "circuit-open") {
				t.Fatalf("expected last_error to start with circuit-open, got %q", *msg.LastError)
			}
			if msg.Status != domain.NotificationQueued {
				t.Fatalf("expected status QUEUED behind an open breaker, got %s", msg.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("message never recorded a circuit-open outcome")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The breaker must have rejected the call before it reached the sender.
	if snd.Calls() != callsBefore {
		t.Fatalf("expected no sender call while the breaker is open, got %d extra", snd.Calls()-callsBefore)
	}
}

func TestDispatcher_BreakerClosesAfterSuccessfulProbe(t *testing.T) {
	store := repository.NewMockNotificationStore()

	snd := sender.NewMockSender()
	var failing atomic.Bool
	failing.Store(true)
	snd.SendFunc = func(channel, recipient, template string, variables map[string]any) error {
		if failing.Load() {
			return domain.ErrUpstreamRetryable
		}
		return nil
	}

	cfg := testConfig()
	cfg.DispatchWorkers = 1
	cfg.CircuitResetSec = 100 * time.Millisecond

	d := dispatcher.New(cfg, store, snd, ratelimiter.New(1000), zap.NewNop(), dispatcher.Hooks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < cfg.CircuitFailMax; i++ {
		id := newTestMessage(store)
		_ = d.Submit(id)
		waitForStatus(t, store, id, domain.NotificationFailed, 2*time.Second)
	}

	// Let the cool-down elapse, then heal the sender: the next submission is
	// the half-open probe and must succeed and close the breaker.
	failing.Store(false)
	time.Sleep(2 * cfg.CircuitResetSec)

	probe := newTestMessage(store)
	_ = d.Submit(probe)
	waitForStatus(t, store, probe, domain.NotificationSent, 2*time.Second)

	after := newTestMessage(store)
	_ = d.Submit(after)
	waitForStatus(t, store, after, domain.NotificationSent, 2*time.Second)
}
