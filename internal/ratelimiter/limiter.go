package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter enforces a steady-state rate on outbound sends to the external
// sender. Burst is set equal to the rate so no extra burst capacity is
// allowed beyond the configured per-second maximum.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter admitting ratePerSec sends per second.
func New(ratePerSec int) *Limiter {
	r := rate.Limit(ratePerSec)
	return &Limiter{limiter: rate.NewLimiter(r, ratePerSec)}
}

// Wait blocks until a token is available. Called by the dispatcher
// immediately before calling ExternalSender.Send.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
