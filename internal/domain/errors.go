package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function
// (see internal/api/handler/respond.go); the dispatcher translates the
// Transport/Upstream/CircuitOpen family into retry decisions.
var (
	ErrBadInput          = errors.New("bad input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrSlotTaken         = errors.New("slot already taken")
	ErrQueueFull         = errors.New("queue is at capacity, try again later")
	ErrTransport         = errors.New("transport error contacting external sender")
	ErrUpstreamRetryable = errors.New("external sender returned a retryable error")
	ErrUpstreamRejected  = errors.New("external sender rejected the message")
	ErrCircuitOpen       = errors.New("circuit open")
	ErrInternal          = errors.New("internal error")
)
