package accounting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
)

// Forwarder delivers outbox events to the accounting service over HTTP.
// It implements postgres.OutboxHandler and runs in the background worker.
type Forwarder struct {
	endpoint string
	client   *http.Client
}

// NewForwarder creates a forwarder for the accounting endpoint.
func NewForwarder(endpoint string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

var _ postgres.OutboxHandler = (*Forwarder)(nil)

// Handle posts one outbox message to the accounting service. Any non-2xx
// response is an error so the relay retries with backoff.
func (f *Forwarder) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(msg.Payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", msg.EventType)
	req.Header.Set("X-Event-ID", msg.ID.String())

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("accounting returned %d for event %s", resp.StatusCode, msg.ID)
	}

	logger.Debug(ctx, "valuation event delivered",
		"event_id", msg.ID, "event_type", msg.EventType)
	return nil
}
