// Package resilient provides a reusable defensive layer around outbound
// calls to rate-limited, quota-limited, occasionally-failing external APIs.
//
// The package composes four admission checks around a caller-supplied call
// closure: quota reservation, windowed rate limiting, circuit breaking, and
// result caching with an ordered fallback chain for degraded operation. It
// has zero knowledge of HTTP, authentication, or response schemas; the only
// coupling to a concrete platform is the closure performing the real call.
//
// All stateful components are safe for unbounded concurrent use and keep
// their state in-process, keyed by ResourceKey.
package resilient
