// Package requeuer implements the StuckRequeuer component: a periodic
// janitor that revives NotificationMessage rows the dispatcher never got
// back to, either because a post-commit submission never arrived or because
// a prior FAILED attempt still has retries budget left.
package requeuer

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/repository"
)

const batchSize = 200

// Submitter is the subset of the dispatcher the requeuer needs.
type Submitter interface {
	Submit(id int64) error
	SubmitDelayed(ctx context.Context, id int64, delay time.Duration)
}

type Requeuer struct {
	store       repository.NotificationStore
	dispatcher  Submitter
	staleAfter  time.Duration
	maxAttempts int
	logger      *zap.Logger

	cron *cron.Cron
}

func New(
	store repository.NotificationStore,
	dispatcher Submitter,
	staleAfter time.Duration,
	maxAttempts int,
	logger *zap.Logger,
) *Requeuer {
	return &Requeuer{
		store:       store,
		dispatcher:  dispatcher,
		staleAfter:  staleAfter,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Start schedules the requeue tick on the cron scheduler.
func (r *Requeuer) Start(ctx context.Context, interval time.Duration) error {
	r.cron = cron.New(cron.WithSeconds())
	_, err := r.cron.AddFunc("@every "+interval.String(), func() {
		r.tick(ctx)
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

func (r *Requeuer) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

func (r *Requeuer) tick(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)

	stuck, err := r.store.FindStuckQueued(ctx, cutoff, batchSize)
	if err != nil {
		r.logger.Error("find stuck queued failed", zap.Error(err))
	} else {
		for _, msg := range stuck {
			r.dispatcher.SubmitDelayed(ctx, msg.ID, 0)
		}
		if len(stuck) > 0 {
			r.logger.Info("requeued stuck queued messages", zap.Int("count", len(stuck)))
		}
	}

	// Failed rows whose attempts >= maxAttempts are left untouched: terminal
	// DLQ.
	retryable, err := r.store.FindRetryableFailed(ctx, r.maxAttempts, batchSize)
	if err != nil {
		r.logger.Error("find retryable failed failed", zap.Error(err))
		return
	}
	for _, msg := range retryable {
		if msg.Status != domain.NotificationFailed {
			continue
		}
		r.dispatcher.SubmitDelayed(ctx, msg.ID, 0)
	}
	if len(retryable) > 0 {
		r.logger.Info("resubmitted retryable failed messages", zap.Int("count", len(retryable)))
	}
}
