package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"socialwatch/pkg/resilient"
)

// alertWorthy lists the event types forwarded to the alert notifier.
// Denials of individual calls are routine and stay log-only; state
// transitions and exhausted chains mean an operator may need to act.
var alertWorthy = map[resilient.EventType]bool{
	resilient.EventCircuitOpen:       true,
	resilient.EventFallbackExhausted: true,
	resilient.EventQuotaExceeded:     true,
}

// Auditor implements resilient.EventSink. It logs every event with a
// generated event ID and queues alert-worthy ones for delivery.
type Auditor struct {
	logger   *slog.Logger
	notifier Notifier

	queue   chan Alert
	dropped atomic.Int64

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Config holds auditor settings.
type Config struct {
	// QueueSize bounds the alert delivery queue. Default: 64.
	QueueSize int
}

// New creates an auditor and starts its delivery worker. Call Close to
// drain and stop it. A nil logger falls back to slog.Default; a nil
// notifier disables alert delivery.
func New(cfg Config, logger *slog.Logger, notifier Notifier) *Auditor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	a := &Auditor{
		logger:   logger,
		notifier: notifier,
		queue:    make(chan Alert, cfg.QueueSize),
	}

	a.wg.Add(1)
	go a.deliver()

	return a
}

// Emit implements resilient.EventSink. It never blocks: logging is
// synchronous and cheap, alert delivery goes through the bounded queue.
func (a *Auditor) Emit(ctx context.Context, event resilient.Event) {
	eventID := uuid.New().String()

	attrs := []any{
		slog.String("event_id", eventID),
		slog.String("resource_key", event.Key.String()),
		slog.String("event_type", string(event.Type)),
		slog.Time("occurred_at", event.Timestamp),
	}
	for k, v := range event.Details {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.InfoContext(ctx, string(event.Type), attrs...)

	if !alertWorthy[event.Type] {
		return
	}

	alert := Alert{
		ID:         eventID,
		Provider:   event.Key.Provider,
		Resource:   event.Key.String(),
		Type:       string(event.Type),
		Message:    fmt.Sprintf("%s on %s", event.Type, event.Key),
		OccurredAt: event.Timestamp,
		Details:    event.Details,
	}

	select {
	case a.queue <- alert:
	default:
		a.dropped.Add(1)
		a.logger.Warn("alert queue full, dropping alert",
			slog.String("event_id", eventID),
			slog.String("event_type", string(event.Type)))
	}
}

// Dropped returns how many alerts were dropped due to a full queue.
func (a *Auditor) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting alerts, waits for queued ones to be delivered,
// and returns. Safe to call more than once.
func (a *Auditor) Close() {
	a.stopOnce.Do(func() {
		close(a.queue)
	})
	a.wg.Wait()
}

// deliver drains the alert queue. Delivery errors are logged and
// swallowed so a broken webhook never stalls call processing.
func (a *Auditor) deliver() {
	defer a.wg.Done()

	for alert := range a.queue {
		if err := a.notifier.NotifyAlert(context.Background(), alert); err != nil {
			a.logger.Error("alert delivery failed",
				slog.String("event_id", alert.ID),
				slog.String("event_type", alert.Type),
				slog.Any("error", err))
		}
	}
}
