// Package tracing provides OpenTelemetry tracing integration.
//
// This package provides distributed tracing for incoming HTTP requests via
// the Middleware, plus a shared tracer for creating spans inside handlers
// and the collection pipeline.
//
// Features:
//   - Automatic HTTP request tracing with method, path, and status attributes
//   - Cross-service trace propagation via W3C trace context headers
//   - X-Trace-Id response header for request correlation
//
// Example usage:
//
//	import "socialwatch/internal/observability/tracing"
//
//	func main() {
//	    handler := tracing.Middleware(mux)
//	    http.ListenAndServe(":8080", handler)
//	}
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing
