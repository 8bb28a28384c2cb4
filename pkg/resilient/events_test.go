package resilient

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// captureSink records every emitted event for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]EventType, len(s.events))
	for i, e := range s.events {
		types[i] = e.Type
	}
	return types
}

func (s *captureSink) byType(typ EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestSlogEventSink_Emit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := NewSlogEventSink(logger)

	sink.Emit(context.Background(), Event{
		Key:       testKey("instagram"),
		Type:      EventRateLimited,
		Timestamp: time.Now(),
		Details:   map[string]any{"retry_after": "30s"},
	})

	out := buf.String()
	if !strings.Contains(out, "instagram:search:acct-1") {
		t.Errorf("log output missing resource key: %s", out)
	}
	if !strings.Contains(out, string(EventRateLimited)) {
		t.Errorf("log output missing event type: %s", out)
	}
	if !strings.Contains(out, "retry_after") {
		t.Errorf("log output missing detail attribute: %s", out)
	}
}

func TestNewSlogEventSink_NilLogger(t *testing.T) {
	sink := NewSlogEventSink(nil)
	if sink.logger == nil {
		t.Fatal("nil logger not defaulted")
	}
}
