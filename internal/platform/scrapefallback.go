package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"socialwatch/internal/resilience/circuitbreaker"
	"socialwatch/internal/resilience/retry"
	"socialwatch/pkg/resilient"
)

// ScrapeFunc invokes the alternate scrape path for a resource and returns
// the raw JSON document the scraper produced. The application only models
// the invocation contract; how content is extracted from a page is the
// implementor's concern. The document must decode into the operation's
// result type (Profile, SearchPage, or Post).
type ScrapeFunc func(ctx context.Context, key resilient.ResourceKey) (json.RawMessage, error)

// ScrapeFallback adapts the scrape path into a fallback chain rung.
//
// The path is guarded by its own gobreaker circuit: a scrape route broken
// by a site structure change can stay broken for hours, and the fallback
// chain must fail over it quickly instead of hammering it on every
// degraded call.
type ScrapeFallback struct {
	provider string
	fn       ScrapeFunc
	breaker  *circuitbreaker.CircuitBreaker
	retry    retry.Config
}

// NewScrapeFallback wraps a scrape invoker for one provider.
func NewScrapeFallback(provider string, fn ScrapeFunc) *ScrapeFallback {
	return &ScrapeFallback{
		provider: provider,
		fn:       fn,
		breaker:  circuitbreaker.New(circuitbreaker.ScrapeFallbackConfig(provider)),
		retry:    retry.ScrapeConfig(),
	}
}

// Provider returns the fallback chain rung. The scraped document is decoded
// into the operation's result type before it is offered, so the typed call
// wrappers can consume it. A scrape failure, a document that does not match
// the operation's shape, or an open scrape circuit all report "nothing to
// offer" so the chain moves on.
func (s *ScrapeFallback) Provider() resilient.NamedProvider {
	return resilient.NamedProvider{
		Name: "scrape",
		Resolve: func(ctx context.Context, key resilient.ResourceKey) (any, bool) {
			value, err := s.breaker.Execute(func() (interface{}, error) {
				var raw json.RawMessage
				err := retry.WithBackoff(ctx, s.retry, func() error {
					doc, err := s.fn(ctx, key)
					if err != nil {
						return err
					}
					raw = doc
					return nil
				})
				if err != nil {
					return nil, err
				}
				// A mismatched document counts as a path failure: it
				// usually means the scrape route drifted from the
				// operation contract.
				return decodeScrapeDocument(key.Operation, raw)
			})
			if err != nil {
				slog.Warn("scrape fallback failed",
					slog.String("provider", s.provider),
					slog.String("resource_key", key.String()),
					slog.Any("error", err))
				return nil, false
			}
			return value, true
		},
	}
}

// decodeScrapeDocument maps the scraped JSON document onto the result type
// the operation's callers expect.
func decodeScrapeDocument(operation string, raw json.RawMessage) (any, error) {
	switch operation {
	case OpProfile:
		var out Profile
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode scraped profile: %w", err)
		}
		return out, nil
	case OpSearch:
		var out SearchPage
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode scraped search page: %w", err)
		}
		return out, nil
	case OpDetail:
		var out Post
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode scraped post: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("no scrape mapping for operation %q", operation)
	}
}

// Breaker exposes the guarding circuit, mainly for the status dashboard.
func (s *ScrapeFallback) Breaker() *circuitbreaker.CircuitBreaker {
	return s.breaker
}
