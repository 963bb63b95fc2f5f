// Package outboxrelay drains committed OutboxEvents into NotificationMessage
// rows and hands the new ids off to the dispatcher. It is the only
// component that turns a business-state change into an outbound
// notification, keeping the booking path itself free of any I/O to the
// notification pipeline.
package outboxrelay

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

// RecipientResolver resolves the WhatsApp-reachable contact for an
// appointment's owning user. Injected because the contact table belongs to
// the admin service; the relay only needs the lookup, not the schema.
type RecipientResolver interface {
	Resolve(ctx context.Context, appointmentID string) (string, error)
}

// Submitter is the subset of the dispatcher the relay needs.
type Submitter interface {
	Submit(id int64) error
	SubmitDelayed(ctx context.Context, id int64, delay time.Duration)
}

// Relay is the OutboxRelay component: it runs on a cron schedule, pulls
// unpublished events, and converts APPT_CREATED/APPT_CANCELED events into
// queued NotificationMessage rows.
type Relay struct {
	beginner      repository.Beginner
	outbox        repository.OutboxStore
	notifications repository.NotificationStore
	resolver      RecipientResolver
	dispatcher    Submitter
	placeholder   string
	batchSize     int
	logger        *zap.Logger

	cron *cron.Cron
}

func New(
	beginner repository.Beginner,
	outbox repository.OutboxStore,
	notifications repository.NotificationStore,
	resolver RecipientResolver,
	dispatcher Submitter,
	placeholder string,
	batchSize int,
	logger *zap.Logger,
) *Relay {
	return &Relay{
		beginner:      beginner,
		outbox:        outbox,
		notifications: notifications,
		resolver:      resolver,
		dispatcher:    dispatcher,
		placeholder:   placeholder,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// Start schedules the relay tick at the given interval on the cron
// scheduler.
func (r *Relay) Start(ctx context.Context, interval time.Duration) error {
	r.cron = cron.New(cron.WithSeconds())
	_, err := r.cron.AddFunc(everySpec(interval), func() {
		r.tick(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop blocks until the running tick (if any) completes, then stops the
// cron scheduler. An in-flight batch always runs to completion or rolls
// back fully — it is never left half-applied.
func (r *Relay) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

func (r *Relay) tick(ctx context.Context) {
	events, err := r.outbox.PullUnpublished(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("outbox pull failed", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	newIDs, err := r.applyBatch(ctx, events)
	if err != nil {
		r.logger.Error("outbox batch failed, will retry next tick", zap.Error(err))
		return
	}

	r.logger.Info("outbox batch published", zap.Int("events", len(events)), zap.Int("messages", len(newIDs)))

	// Submission happens after commit, with a small delay to absorb
	// read-replica / visibility races.
	for _, id := range newIDs {
		r.dispatcher.SubmitDelayed(ctx, id, time.Second)
	}
}

// applyBatch commits event.published_at updates and any new
// NotificationMessage inserts as a single transaction. Partial batch commit
// is forbidden: either every event in the batch is marked published and its
// message (if any) inserted, or none are.
func (r *Relay) applyBatch(ctx context.Context, events []*domain.OutboxEvent) ([]int64, error) {
	tx, err := r.beginner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var newIDs []int64
	now := time.Now().UTC()

	for _, event := range events {
		if msg := r.toNotification(ctx, event, now); msg != nil {
			id, err := r.notifications.InsertQueuedTx(ctx, tx, msg)
			if err != nil {
				return nil, err
			}
			newIDs = append(newIDs, id)
		}

		if err := r.outbox.MarkPublished(ctx, tx, event.ID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return newIDs, nil
}

// toNotification builds the queued message for an event. Returns nil for
// event types that carry no notification (none defined today beyond
// APPT_CREATED / APPT_CANCELED, but the switch leaves room for future event
// types without generating a message).
func (r *Relay) toNotification(ctx context.Context, event *domain.OutboxEvent, now time.Time) *domain.NotificationMessage {
	switch event.EventType {
	case domain.EventApptCreated, domain.EventApptCanceled:
	default:
		return nil
	}

	recipient, err := r.resolver.Resolve(ctx, event.AggregateID)
	if err != nil || recipient == "" {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("recipient resolution failed, using placeholder",
				zap.String("appointment_id", event.AggregateID), zap.Error(err))
		}
		recipient = r.placeholder
	}

	return &domain.NotificationMessage{
		Channel:       domain.ChannelWhatsApp,
		Recipient:     recipient,
		Template:      strings.ToLower(string(event.EventType)),
		Variables:     event.Payload,
		Status:        domain.NotificationQueued,
		AppointmentID: &event.AggregateID,
		CreatedAt:     now,
	}
}
