package audit

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialwatch/pkg/resilient"
)

// captureNotifier records delivered alerts.
type captureNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (n *captureNotifier) NotifyAlert(_ context.Context, alert Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *captureNotifier) all() []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Alert, len(n.alerts))
	copy(out, n.alerts)
	return out
}

func testEvent(typ resilient.EventType) resilient.Event {
	return resilient.Event{
		Key:       resilient.ResourceKey{Provider: "instagram", Operation: "search", Client: "acct-1"},
		Type:      typ,
		Timestamp: time.Now(),
		Details:   map[string]any{"failure_count": 5},
	}
}

func TestAuditor_LogsEveryEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	auditor := New(Config{}, logger, nil)
	defer auditor.Close()

	auditor.Emit(context.Background(), testEvent(resilient.EventRateLimited))

	out := buf.String()
	assert.Contains(t, out, "rate_limited")
	assert.Contains(t, out, "instagram:search:acct-1")
	assert.Contains(t, out, "event_id")
}

func TestAuditor_ForwardsAlertWorthyEvents(t *testing.T) {
	notifier := &captureNotifier{}
	auditor := New(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), notifier)

	auditor.Emit(context.Background(), testEvent(resilient.EventCircuitOpen))
	auditor.Emit(context.Background(), testEvent(resilient.EventRateLimited))
	auditor.Emit(context.Background(), testEvent(resilient.EventFallbackExhausted))
	auditor.Emit(context.Background(), testEvent(resilient.EventCircuitClosed))

	auditor.Close()

	alerts := notifier.all()
	require.Len(t, alerts, 2, "only circuit_open and fallback_exhausted are alert-worthy here")
	assert.Equal(t, string(resilient.EventCircuitOpen), alerts[0].Type)
	assert.Equal(t, string(resilient.EventFallbackExhausted), alerts[1].Type)

	assert.Equal(t, "instagram", alerts[0].Provider)
	assert.Equal(t, "instagram:search:acct-1", alerts[0].Resource)
	assert.NotEmpty(t, alerts[0].ID)
	assert.NotEqual(t, alerts[0].ID, alerts[1].ID)
}

func TestAuditor_DropsWhenQueueFull(t *testing.T) {
	// A notifier that never returns until released, so the queue backs up.
	release := make(chan struct{})
	blocking := notifierFunc(func(context.Context, Alert) error {
		<-release
		return nil
	})

	auditor := New(Config{QueueSize: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)), blocking)

	// First alert occupies the worker, second fills the queue, the rest
	// must be dropped without blocking Emit.
	for i := 0; i < 5; i++ {
		auditor.Emit(context.Background(), testEvent(resilient.EventCircuitOpen))
	}

	assert.GreaterOrEqual(t, auditor.Dropped(), int64(2))

	close(release)
	auditor.Close()
}

func TestAuditor_CloseIsIdempotent(t *testing.T) {
	auditor := New(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	auditor.Close()
	auditor.Close()
}

// notifierFunc adapts a function to the Notifier interface.
type notifierFunc func(ctx context.Context, alert Alert) error

func (f notifierFunc) NotifyAlert(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}
