package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// HTTPSender delivers notifications by POSTing to the downstream provider's
// whatsapp endpoint: POST {base}/whatsapp/send, bearer auth, JSON body
// {to, template, variables}.
//
// Connect/read/write timeouts are configured independently, per the
// provider's own connect/read/write split: connect is enforced by the
// dialer, read bounds the wait for response headers, and the client's
// overall timeout is read+write, since net/http has no separate write
// timeout on the client side.
type HTTPSender struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPSender(baseURL, apiKey string, connectTimeout, readTimeout, writeTimeout time.Duration) *HTTPSender {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: readTimeout,
	}
	return &HTTPSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   readTimeout + writeTimeout,
		},
	}
}

// Send posts to {base}/whatsapp/send and classifies the result per the
// outbound protocol: 2xx is success; 429 and 5xx are UpstreamRetryable;
// any other 4xx is UpstreamRejected; network-level failures are Transport.
func (s *HTTPSender) Send(ctx context.Context, channel string, recipient string, template string, variables map[string]any) error {
	body, err := json.Marshal(SendRequest{To: recipient, Template: template, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/send", s.baseURL, channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamRetryable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamRejected, resp.StatusCode)
	}
}

var _ ExternalSender = (*HTTPSender)(nil)
