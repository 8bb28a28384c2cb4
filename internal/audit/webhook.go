package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"socialwatch/internal/resilience/circuitbreaker"
	"socialwatch/internal/resilience/retry"
)

// WebhookConfig contains configuration for webhook alert delivery.
type WebhookConfig struct {
	// Enabled indicates whether webhook alerting is enabled
	Enabled bool

	// URL is the webhook endpoint (includes any authentication token)
	URL string

	// Timeout is the HTTP request timeout for webhook calls
	Timeout time.Duration

	// RequestsPerSecond is the sustained delivery rate. Default: 0.5
	// (most chat webhook services allow roughly 30 requests per minute).
	RequestsPerSecond float64

	// Burst is the token bucket burst capacity. Default: 3.
	Burst int
}

// ApplyDefaults fills zero values with safe defaults.
func (c *WebhookConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 0.5
	}
	if c.Burst == 0 {
		c.Burst = 3
	}
}

// WebhookNotifier delivers alerts to an HTTP webhook endpoint.
//
// Delivery is paced with a token bucket so an alert storm (one circuit
// opening across many resource keys at once) does not trip the webhook
// service's own limits, and transient failures are retried with backoff.
// A persistently failing endpoint trips the notifier's own circuit so the
// queue drains without burning a retry cycle per alert.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	retry      retry.Config
	logger     *slog.Logger
}

// NewWebhookNotifier creates a webhook notifier with the given
// configuration. A nil logger falls back to slog.Default.
func NewWebhookNotifier(config WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	config.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		breaker:    circuitbreaker.New(circuitbreaker.WebhookConfig()),
		retry:      retry.WebhookConfig(),
		logger:     logger,
	}
}

// NotifyAlert implements the Notifier interface.
//
// It waits for a pacing token, then posts the alert as JSON with retry on
// transient failures (5xx, 429, network errors). 4xx responses fail
// immediately: a misconfigured webhook URL will not fix itself. Enough
// consecutive delivery failures open the notifier circuit, after which
// alerts fail fast until the recovery timeout elapses.
func (n *WebhookNotifier) NotifyAlert(ctx context.Context, alert Alert) error {
	if !n.config.Enabled {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook pacing wait: %w", err)
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		return nil, retry.WithBackoff(ctx, n.retry, func() error {
			return n.post(ctx, payload)
		})
	})
	if err != nil {
		return fmt.Errorf("webhook delivery for event %s: %w", alert.ID, err)
	}

	n.logger.Info("alert delivered",
		slog.String("event_id", alert.ID),
		slog.String("event_type", alert.Type),
		slog.String("provider", alert.Provider))
	return nil
}

// post sends one webhook request. Non-2xx statuses become retry.HTTPError
// so the retry layer can classify them.
func (n *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute webhook request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &retry.HTTPError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
