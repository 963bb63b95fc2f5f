package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/clock"
	"github.com/ricirt/booking-backend/internal/config"
	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/queue"
	"github.com/ricirt/booking-backend/internal/ratelimiter"
	"github.com/ricirt/booking-backend/internal/repository"
	"github.com/ricirt/booking-backend/internal/sender"
)

// Hooks carries the metric callback functions injected by main.
// A struct keeps the constructor signature short.
type Hooks struct {
	OnSent        func(latency time.Duration)
	OnFailed      func()
	OnCircuitOpen func()
}

// Dispatcher owns the submission queue, the per-process circuit breaker, and
// a pool of worker goroutines that pull items off the queue and deliver them
// through the ExternalSender.
type Dispatcher struct {
	cfg     *config.Config
	store   repository.NotificationStore
	sender  sender.ExternalSender
	limiter *ratelimiter.Limiter
	breaker *gobreaker.CircuitBreaker
	q       *queue.Queue
	clock   *clock.ClockTZ
	logger  *zap.Logger
	hooks   Hooks

	wg sync.WaitGroup
}

func New(
	cfg *config.Config,
	store repository.NotificationStore,
	snd sender.ExternalSender,
	limiter *ratelimiter.Limiter,
	logger *zap.Logger,
	hooks Hooks,
) *Dispatcher {
	if hooks.OnSent == nil {
		hooks.OnSent = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	if hooks.OnCircuitOpen == nil {
		hooks.OnCircuitOpen = func() {}
	}

	d := &Dispatcher{
		cfg:     cfg,
		store:   store,
		sender:  snd,
		limiter: limiter,
		q:       queue.New(),
		clock:   clock.New(),
		logger:  logger,
		hooks:   hooks,
	}

	settings := gobreaker.Settings{
		Name:        "external-sender",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.CircuitResetSec,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.CircuitFailMax)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			if to == gobreaker.StateOpen {
				d.hooks.OnCircuitOpen()
			}
		},
	}
	d.breaker = gobreaker.NewCircuitBreaker(settings)

	return d
}

// Start launches the configured number of dispatch workers as goroutines.
// Cancelling ctx triggers a graceful shutdown of the whole pool.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.cfg.DispatchWorkers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.runWorker(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Depth returns the current dispatch queue depth, reported by the JSON
// metrics handler.
func (d *Dispatcher) Depth() int {
	return d.q.Depth()
}

// Submit enqueues a message id for immediate dispatch.
func (d *Dispatcher) Submit(id int64) error {
	return d.q.Enqueue(queue.Item{NotificationID: id})
}

// SubmitDelayed submits id after delay has elapsed, used to absorb
// read-visibility races after an outbox commit and to schedule circuit-open
// and coarse-unexpected-error resubmissions.
func (d *Dispatcher) SubmitDelayed(ctx context.Context, id int64, delay time.Duration) {
	time.AfterFunc(delay, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := d.Submit(id); err != nil {
			d.logger.Warn("delayed submission dropped, queue full",
				zap.Int64("notification_id", id), zap.Error(err))
		}
	})
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	log := d.logger.With(zap.Int("worker_id", id))
	log.Info("dispatcher worker started")
	for {
		item, ok := d.q.Dequeue(ctx)
		if !ok {
			log.Info("dispatcher worker stopping")
			return
		}
		d.process(ctx, item, log)
	}
}

// process loads the message, attempts delivery with retry and circuit
// breaking, and persists the outcome.
func (d *Dispatcher) process(ctx context.Context, item queue.Item, log *zap.Logger) {
	start := time.Now()
	log = log.With(zap.Int64("notification_id", item.NotificationID))

	msg, err := d.loadWithTolerance(ctx, item.NotificationID)
	if err != nil {
		log.Warn("dropping submission, message never became visible", zap.Error(err))
		return
	}
	if msg == nil {
		return
	}

	if msg.Status == domain.NotificationSent {
		return
	}

	sendErr := d.attemptWithRetry(ctx, msg)
	d.applyOutcome(ctx, msg, sendErr, time.Since(start), log)
}

// loadWithTolerance absorbs read-replica / visibility lag: a small bounded
// number of retries before giving up on a submission that never becomes
// visible.
func (d *Dispatcher) loadWithTolerance(ctx context.Context, id int64) (*domain.NotificationMessage, error) {
	const maxLoadAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		msg, err := d.store.Get(ctx, id)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		lastErr = err
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// attemptWithRetry retries Transport/UpstreamRetryable/CircuitOpen failures
// with exponential backoff plus jitter, up to RetryMaxAttempts. Any other
// error (including UpstreamRejected) fails immediately.
func (d *Dispatcher) attemptWithRetry(ctx context.Context, msg *domain.NotificationMessage) error {
	var lastErr error
	for attempt := 0; attempt < d.cfg.RetryMaxAttempts; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		_, err := d.breaker.Execute(func() (interface{}, error) {
			return nil, d.sender.Send(ctx, string(msg.Channel), msg.Recipient, msg.Template, msg.Variables)
		})
		lastErr = classify(err)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == d.cfg.RetryMaxAttempts-1 {
			break
		}

		wait := backoff(d.cfg.RetryBackoffBase, d.cfg.RetryBackoffMax, attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// classify maps gobreaker's sentinel errors onto domain.ErrCircuitOpen;
// every other error already carries a domain sentinel from the sender.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.ErrCircuitOpen
	}
	return err
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransport) ||
		errors.Is(err, domain.ErrUpstreamRetryable) ||
		errors.Is(err, domain.ErrCircuitOpen)
}

// applyOutcome persists one of four outcomes: sent, requeued behind an open
// circuit, failed for the janitor to revive, or failed-unexpected with a
// coarse scheduled resubmission.
func (d *Dispatcher) applyOutcome(ctx context.Context, msg *domain.NotificationMessage, sendErr error, elapsed time.Duration, log *zap.Logger) {
	now := d.clock.NowUTC()

	switch {
	case sendErr == nil:
		msg.Status = domain.NotificationSent
		msg.SentAt = &now
		msg.Attempts++
		msg.LastError = nil
		d.hooks.OnSent(elapsed)
		log.Info("notification sent", zap.Duration("latency", elapsed))

	case errors.Is(sendErr, domain.ErrCircuitOpen):
		msg.Status = domain.NotificationQueued
		msg.Attempts++
		errStr := "circuit-open: " + sendErr.Error()
		msg.LastError = &errStr
		d.SubmitDelayed(ctx, msg.ID, d.cfg.CircuitResetSec)
		log.Warn("circuit open, message requeued")

	case errors.Is(sendErr, domain.ErrTransport), errors.Is(sendErr, domain.ErrUpstreamRetryable), errors.Is(sendErr, domain.ErrUpstreamRejected):
		msg.Status = domain.NotificationFailed
		msg.Attempts++
		errStr := sendErr.Error()
		msg.LastError = &errStr
		d.hooks.OnFailed()
		log.Warn("notification delivery failed", zap.Error(sendErr))

	default:
		msg.Status = domain.NotificationFailed
		msg.Attempts++
		errStr := "unexpected: " + sendErr.Error()
		msg.LastError = &errStr
		d.hooks.OnFailed()
		d.SubmitDelayed(ctx, msg.ID, 30*time.Second)
		log.Error("unexpected dispatch error", zap.Error(sendErr))
	}

	if err := d.store.Update(ctx, msg); err != nil {
		log.Error("failed to persist dispatch outcome", zap.Error(err))
	}
}
