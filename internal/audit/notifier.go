package audit

import (
	"context"
	"time"
)

// Alert is an operationally urgent event forwarded to an external channel.
type Alert struct {
	// ID is the unique event ID assigned by the auditor.
	ID string `json:"id"`

	// Provider is the upstream platform the alert concerns.
	Provider string `json:"provider"`

	// Resource is the full resource key string.
	Resource string `json:"resource"`

	// Type is the event type that raised the alert.
	Type string `json:"type"`

	// Message is a human-readable one-liner.
	Message string `json:"message"`

	// OccurredAt is when the underlying event happened.
	OccurredAt time.Time `json:"occurred_at"`

	// Details carries the event's attributes.
	Details map[string]any `json:"details,omitempty"`
}

// Notifier delivers alerts to an external channel.
// Implementations should handle rate limiting, retries, and error logging internally.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert Alert) error
}

// NoopNotifier discards alerts. Used when alerting is disabled.
type NoopNotifier struct{}

// NotifyAlert discards the alert.
func (NoopNotifier) NotifyAlert(context.Context, Alert) error { return nil }
