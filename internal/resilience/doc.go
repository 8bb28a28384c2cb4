// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to ensure system
// resilience in the face of failures.
//
// The package supports:
//   - Circuit breakers for outbound calls that live outside the per-resource
//     admission pipeline (scrape fallback path, alert webhooks)
//   - Retry logic with exponential backoff and jitter inside a single logical
//     platform call
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ScrapeFallbackConfig("instagram"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return invokeScrapePath()
//	})
//
//	retryConfig := retry.PlatformAPIConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performRequest()
//	})
package resilience
