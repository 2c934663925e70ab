package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/speakscore/internal/webhook"
)

const (
	sendTimeout = 10 * time.Second

	eventHeader          = "X-Speakscore-Event"
	idempotencyHeader    = "Idempotency-Key"
	assessmentDoneEvent  = "assessment.completed"
	defaultMaxAttempts   = 3
	defaultRetryInterval = 500 * time.Millisecond
)

// HTTPSender posts completed assessments to a single endpoint. Server errors
// and transport failures are retried; 4xx responses are not.
type HTTPSender struct {
	webhookURL    string
	client        *http.Client
	maxAttempts   int
	retryInterval time.Duration
}

type Option func(*HTTPSender)

func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSender) { s.client = c }
}

// WithRetry sets how many times a delivery is attempted and the base wait
// between attempts, which doubles after each failure.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(s *HTTPSender) {
		s.maxAttempts = max(1, attempts)
		s.retryInterval = interval
	}
}

func NewHTTPSender(webhookURL string, opts ...Option) webhook.Sender {
	s := &HTTPSender{
		webhookURL:    webhookURL,
		client:        &http.Client{Timeout: sendTimeout},
		maxAttempts:   defaultMaxAttempts,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type deliveryError struct {
	status    int
	retryable bool
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.status)
}

// SendResults posts the payload as JSON. It does nothing when no URL is configured.
func (s *HTTPSender) SendResults(ctx context.Context, payload webhook.ResultWebhookPayload) error {
	if s.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	wait := s.retryInterval
	for attempt := 1; ; attempt++ {
		err = s.post(ctx, payload.SessionID, body)
		if err == nil {
			return nil
		}
		if de, ok := err.(*deliveryError); ok && !de.retryable {
			return err
		}
		if attempt >= s.maxAttempts {
			return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempt, err)
		}
		slog.Warn("webhook delivery failed; retrying", "error", err, "session_id", payload.SessionID, "attempt", attempt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (s *HTTPSender) post(ctx context.Context, sessionID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, assessmentDoneEvent)
	// Receivers dedupe retried deliveries on this key.
	req.Header.Set(idempotencyHeader, sessionID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &deliveryError{
		status:    resp.StatusCode,
		retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
	}
}
