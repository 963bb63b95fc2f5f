package sender

import (
	"context"
)

// SendRequest is the JSON body posted to ExternalSender.
type SendRequest struct {
	To        string         `json:"to"`
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables"`
}

// ExternalSender abstracts delivery to the downstream notification provider.
// Mocking this interface in tests gives full control over provider behaviour
// without making real HTTP calls.
type ExternalSender interface {
	Send(ctx context.Context, channel string, recipient string, template string, variables map[string]any) error
}
