// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes application-level metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Collection sweep metrics (runs, duration, posts collected)
//   - Alert delivery metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint. Per-call admission metrics for the
// resilience layer live in pkg/resilient and use their own registry.
//
// Example usage:
//
//	import "socialwatch/internal/observability/metrics"
//
//	func sweepProvider(provider string) {
//	    start := time.Now()
//	    // ... collect posts ...
//	    count := 10
//
//	    metrics.RecordPostsCollected(provider, count)
//	    metrics.RecordCollectionRun(provider, time.Since(start), nil)
//	}
package metrics
