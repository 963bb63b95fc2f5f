package outboxrelay

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

type fakeSubmitter struct {
	mu  sync.Mutex
	ids []int64
}

func (f *fakeSubmitter) Submit(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func (f *fakeSubmitter) SubmitDelayed(_ context.Context, id int64, _ time.Duration) {
	_ = f.Submit(id)
}

func (f *fakeSubmitter) submitted() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out
}

type staticResolver struct {
	contact string
	err     error
}

func (r *staticResolver) Resolve(context.Context, string) (string, error) {
	return r.contact, r.err
}

const placeholder = "+10000000000"

func newRelay(outbox *repository.MockOutboxStore, notifications *repository.MockNotificationStore, resolver RecipientResolver, sub Submitter) *Relay {
	return New(repository.NewMockBeginner(), outbox, notifications, resolver, sub, placeholder, 50, zap.NewNop())
}

func appendEvent(t *testing.T, outbox *repository.MockOutboxStore, id, aggregateID string, eventType domain.OutboxEventType, at time.Time) {
	t.Helper()
	err := outbox.Append(context.Background(), nil, &domain.OutboxEvent{
		ID:            id,
		AggregateType: "Appointment",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       map[string]any{"provider_id": "p1", "starts_at": "2099-11-02T12:00:00Z"},
		CreatedAt:     at,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRelay_DrainsEventsIntoQueuedMessages(t *testing.T) {
	outbox := repository.NewMockOutboxStore()
	notifications := repository.NewMockNotificationStore()
	sub := &fakeSubmitter{}
	relay := newRelay(outbox, notifications, &staticResolver{contact: "+15551234567"}, sub)

	now := time.Now().UTC()
	appendEvent(t, outbox, "e1", "appt-1", domain.EventApptCreated, now)
	appendEvent(t, outbox, "e2", "appt-1", domain.EventApptCanceled, now.Add(time.Second))

	relay.tick(context.Background())

	ids := sub.submitted()
	if len(ids) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(ids))
	}

	first, err := notifications.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if first.Template != "appt_created" {
		t.Fatalf("expected template appt_created, got %s", first.Template)
	}
	if first.Recipient != "+15551234567" {
		t.Fatalf("expected resolved recipient, got %s", first.Recipient)
	}
	if first.Status != domain.NotificationQueued {
		t.Fatalf("expected QUEUED, got %s", first.Status)
	}
	if first.AppointmentID == nil || *first.AppointmentID != "appt-1" {
		t.Fatalf("expected appointment back-reference, got %v", first.AppointmentID)
	}

	second, err := notifications.Get(context.Background(), ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if second.Template != "appt_canceled" {
		t.Fatalf("expected template appt_canceled, got %s", second.Template)
	}

	// Both events must now be published; a second tick is a no-op.
	remaining, err := outbox.PullUnpublished(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no unpublished events, got %d", len(remaining))
	}
	relay.tick(context.Background())
	if got := sub.submitted(); len(got) != 2 {
		t.Fatalf("second tick must not resubmit, got %d submissions", len(got))
	}
}

func TestRelay_PlaceholderRecipientOnResolutionFailure(t *testing.T) {
	outbox := repository.NewMockOutboxStore()
	notifications := repository.NewMockNotificationStore()
	sub := &fakeSubmitter{}
	relay := newRelay(outbox, notifications, &staticResolver{err: domain.ErrNotFound}, sub)

	appendEvent(t, outbox, "e1", "appt-1", domain.EventApptCreated, time.Now().UTC())
	relay.tick(context.Background())

	ids := sub.submitted()
	if len(ids) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(ids))
	}
	msg, err := notifications.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if msg.Recipient != placeholder {
		t.Fatalf("expected placeholder recipient, got %s", msg.Recipient)
	}
}

func TestRelay_UnknownEventTypePublishedWithoutMessage(t *testing.T) {
	outbox := repository.NewMockOutboxStore()
	notifications := repository.NewMockNotificationStore()
	sub := &fakeSubmitter{}
	relay := newRelay(outbox, notifications, &staticResolver{contact: "+15551234567"}, sub)

	appendEvent(t, outbox, "e1", "appt-1", domain.OutboxEventType("APPT_REMINDED"), time.Now().UTC())
	relay.tick(context.Background())

	if got := sub.submitted(); len(got) != 0 {
		t.Fatalf("expected no submissions for unknown event type, got %d", len(got))
	}
	remaining, err := outbox.PullUnpublished(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatal("unknown event types must still be marked published")
	}
}

func TestRelay_DrainsInCreatedAtOrder(t *testing.T) {
	outbox := repository.NewMockOutboxStore()
	notifications := repository.NewMockNotificationStore()
	sub := &fakeSubmitter{}
	relay := newRelay(outbox, notifications, &staticResolver{contact: "+15551234567"}, sub)

	now := time.Now().UTC()
	// Append out of order; the pull must come back created_at ascending.
	appendEvent(t, outbox, "late", "appt-2", domain.EventApptCreated, now.Add(time.Minute))
	appendEvent(t, outbox, "early", "appt-1", domain.EventApptCreated, now)

	relay.tick(context.Background())

	ids := sub.submitted()
	if len(ids) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(ids))
	}
	first, _ := notifications.Get(context.Background(), ids[0])
	if first.AppointmentID == nil || *first.AppointmentID != "appt-1" {
		t.Fatalf("expected the older event first, got %v", first.AppointmentID)
	}
}
