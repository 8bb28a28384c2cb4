package resilient

import (
	"context"
	"log/slog"
	"time"
)

// EventType identifies a structured event emitted by the layer.
type EventType string

const (
	// EventRateLimited is emitted when a call is denied by the rate limiter.
	EventRateLimited EventType = "rate_limited"

	// EventQuotaExceeded is emitted when a quota reservation fails.
	EventQuotaExceeded EventType = "quota_exceeded"

	// EventCircuitOpen is emitted when a circuit transitions to open,
	// and when an open circuit rejects a call.
	EventCircuitOpen EventType = "circuit_open"

	// EventCircuitProbe is emitted when a half-open recovery probe is
	// permitted through.
	EventCircuitProbe EventType = "circuit_half_open_probe"

	// EventCircuitClosed is emitted when a successful probe closes the
	// circuit again.
	EventCircuitClosed EventType = "circuit_closed"

	// EventFallbackUsed is emitted when a fallback provider served the call.
	EventFallbackUsed EventType = "fallback_used"

	// EventFallbackExhausted is emitted when every fallback provider failed.
	EventFallbackExhausted EventType = "fallback_exhausted"
)

// Event is the shape consumed by the external observability collaborator
// (audit logger, metrics pipeline). Only this shape is part of the contract;
// what the sink does with it is its own business.
type Event struct {
	// Key is the resource the event concerns.
	Key ResourceKey

	// Type is the event kind.
	Type EventType

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Details carries event-specific attributes (retry delays, counters,
	// fallback provider names).
	Details map[string]any
}

// EventSink consumes structured events emitted by the layer.
//
// Implementations must be safe for concurrent use and must not block:
// events are emitted on the caller's hot path.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpEventSink discards all events. It is the default sink.
type NoOpEventSink struct{}

// Emit discards the event.
func (NoOpEventSink) Emit(context.Context, Event) {}

// SlogEventSink writes events to a structured logger at info level.
type SlogEventSink struct {
	logger *slog.Logger
}

// NewSlogEventSink creates an EventSink backed by the given logger.
// A nil logger falls back to slog.Default().
func NewSlogEventSink(logger *slog.Logger) *SlogEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEventSink{logger: logger}
}

// Emit writes the event as one structured log record.
func (s *SlogEventSink) Emit(ctx context.Context, event Event) {
	attrs := []any{
		slog.String("resource_key", event.Key.String()),
		slog.String("event_type", string(event.Type)),
		slog.Time("timestamp", event.Timestamp),
	}
	for k, v := range event.Details {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.InfoContext(ctx, string(event.Type), attrs...)
}
