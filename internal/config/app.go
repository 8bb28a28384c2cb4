// Package config loads application configuration from environment
// variables and the provider definition file.
package config

import (
	"fmt"
	"time"

	pkgconfig "socialwatch/pkg/config"
)

// AppConfig holds configuration for the API server process.
type AppConfig struct {
	// Server configures the HTTP listener.
	Server ServerConfig

	// Webhook configures alert delivery.
	Webhook WebhookConfig

	// Scrape configures the alternate scrape path invoker.
	Scrape ScrapeConfig

	// AuditQueueSize bounds the alert delivery queue.
	// Default: 64
	AuditQueueSize int

	// ProvidersFile is the path to the provider definition YAML.
	// When empty, built-in provider defaults are used.
	ProvidersFile string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string

	// ReadTimeout for incoming requests. Default: 10s
	ReadTimeout time.Duration

	// WriteTimeout for responses. Default: 30s
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 15s
	ShutdownTimeout time.Duration
}

// ScrapeConfig holds settings for the scrape sidecar that backs the last
// fallback rung. An empty BaseURL disables the scrape path entirely, even
// for providers configured with scrape_fallback.
type ScrapeConfig struct {
	// BaseURL is the scrape service endpoint root.
	BaseURL string

	// Timeout is the per-invocation HTTP timeout. Default: 20s
	Timeout time.Duration
}

// WebhookConfig holds alert webhook settings loaded from the environment.
// It mirrors the audit package's webhook configuration without importing it,
// so this package stays free of delivery concerns.
type WebhookConfig struct {
	// Enabled controls whether alerts are delivered at all.
	Enabled bool

	// URL is the webhook endpoint.
	URL string

	// Timeout is the per-request HTTP timeout. Default: 10s
	Timeout time.Duration

	// RequestsPerSecond is the sustained delivery rate. Default: 0.5
	RequestsPerSecond float64

	// Burst is the token bucket burst capacity. Default: 3
	Burst int
}

// LoadAppConfig loads API server configuration from environment variables.
//
// Environment variables:
//   - HTTP_ADDR: Listen address (default: ":8080")
//   - SERVER_READ_TIMEOUT: Request read timeout (default: 10s)
//   - SERVER_WRITE_TIMEOUT: Response write timeout (default: 30s)
//   - SERVER_SHUTDOWN_TIMEOUT: Graceful shutdown bound (default: 15s)
//   - WEBHOOK_ENABLED: Enable alert webhook delivery (default: false)
//   - WEBHOOK_URL: Webhook endpoint (required when enabled)
//   - WEBHOOK_TIMEOUT: Webhook request timeout (default: 10s)
//   - WEBHOOK_RATE: Sustained webhook deliveries per second (default: 0.5)
//   - WEBHOOK_BURST: Webhook token bucket burst (default: 3)
//   - SCRAPE_BASE_URL: Scrape service endpoint root (empty disables scrape)
//   - SCRAPE_TIMEOUT: Scrape invocation timeout (default: 20s)
//   - AUDIT_QUEUE_SIZE: Alert queue capacity (default: 64)
//   - PROVIDERS_FILE: Path to the provider definition YAML (optional)
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Server: ServerConfig{
			Addr:            pkgconfig.GetEnvString("HTTP_ADDR", ":8080"),
			ReadTimeout:     pkgconfig.GetEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    pkgconfig.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: pkgconfig.GetEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Webhook: WebhookConfig{
			Enabled:           pkgconfig.GetEnvBool("WEBHOOK_ENABLED", false),
			URL:               pkgconfig.GetEnvString("WEBHOOK_URL", ""),
			Timeout:           pkgconfig.GetEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			RequestsPerSecond: pkgconfig.GetEnvFloat("WEBHOOK_RATE", 0.5),
			Burst:             pkgconfig.GetEnvInt("WEBHOOK_BURST", 3),
		},
		Scrape: ScrapeConfig{
			BaseURL: pkgconfig.GetEnvString("SCRAPE_BASE_URL", ""),
			Timeout: pkgconfig.GetEnvDuration("SCRAPE_TIMEOUT", 20*time.Second),
		},
		AuditQueueSize: pkgconfig.GetEnvInt("AUDIT_QUEUE_SIZE", 64),
		ProvidersFile:  pkgconfig.GetEnvString("PROVIDERS_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration correctness.
func (c *AppConfig) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("SERVER_READ_TIMEOUT: %w", err)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT: %w", err)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED is set")
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Webhook.Timeout); err != nil {
		return fmt.Errorf("WEBHOOK_TIMEOUT: %w", err)
	}

	if c.Webhook.RequestsPerSecond <= 0 {
		return fmt.Errorf("WEBHOOK_RATE must be positive, got %v", c.Webhook.RequestsPerSecond)
	}

	if c.Webhook.Burst <= 0 {
		return fmt.Errorf("WEBHOOK_BURST must be positive, got %d", c.Webhook.Burst)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Scrape.Timeout); err != nil {
		return fmt.Errorf("SCRAPE_TIMEOUT: %w", err)
	}

	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be positive, got %d", c.AuditQueueSize)
	}

	return nil
}
