package resilient

import "context"

// Provider is one degraded-data source consulted when the primary call
// path is unavailable. It reports ok=false when it has nothing to offer;
// it must never re-attempt the primary path (retrying the primary is the
// orchestrator's job, not the fallback's).
type Provider func(ctx context.Context, key ResourceKey) (any, bool)

// NamedProvider pairs a Provider with a stable name used in events and
// metrics so operators can see which rung of the chain served a call.
type NamedProvider struct {
	Name    string
	Resolve Provider
}

// CacheProvider returns a fallback provider that serves stale-or-fresh
// values from the result cache. It is typically the first rung of the
// chain.
func CacheProvider(cache *ResultCache) NamedProvider {
	return NamedProvider{
		Name: "cache",
		Resolve: func(_ context.Context, key ResourceKey) (any, bool) {
			return cache.Get(key)
		},
	}
}

// StaticProvider returns a fallback provider that always produces the given
// value. It is the chain's terminal rung when serving a constant degraded
// response beats failing the request.
func StaticProvider(name string, value any) NamedProvider {
	return NamedProvider{
		Name: name,
		Resolve: func(context.Context, ResourceKey) (any, bool) {
			return value, true
		},
	}
}

// FallbackStrategy is an ordered chain of degraded-data providers invoked
// when the primary path is unavailable.
//
// The chain is consulted left to right; the first provider reporting ok
// wins. If no provider succeeds, Resolve returns a FallbackExhaustedError
// carrying the primary error as its cause.
type FallbackStrategy struct {
	providers []NamedProvider
}

// NewFallbackStrategy creates a strategy over the given chain. An empty
// chain is valid and always exhausts.
func NewFallbackStrategy(providers ...NamedProvider) *FallbackStrategy {
	return &FallbackStrategy{providers: providers}
}

// Resolve walks the chain and returns the first value offered.
//
// Returns:
//   - value, "providerName", nil when some provider served the call
//   - nil, "", *FallbackExhaustedError when the whole chain came up empty
func (f *FallbackStrategy) Resolve(ctx context.Context, key ResourceKey, primaryErr error) (any, string, error) {
	for _, p := range f.providers {
		if p.Resolve == nil {
			continue
		}
		if value, ok := p.Resolve(ctx, key); ok {
			return value, p.Name, nil
		}
	}
	return nil, "", &FallbackExhaustedError{Key: key, Cause: primaryErr}
}

// Len returns the number of providers in the chain.
func (f *FallbackStrategy) Len() int {
	return len(f.providers)
}
