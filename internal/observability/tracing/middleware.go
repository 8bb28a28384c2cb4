package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"socialwatch/internal/handler/http/requestid"
	"socialwatch/internal/handler/http/responsewriter"
)

// TraceIDHeader carries the request's trace ID back to the caller so a
// dashboard client can quote it when reporting a problem.
const TraceIDHeader = "X-Trace-Id"

// Middleware opens a server span per status API request. Inbound W3C trace
// context is honored, the trace ID is echoed in the response header, and
// the span records the route, the status code, and the request ID assigned
// by the requestid middleware. A 5xx response marks the span as an error.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())

		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		attrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.Int("http.status_code", rw.StatusCode()),
		}
		if id := requestid.FromContext(ctx); id != "" {
			attrs = append(attrs, attribute.String("socialwatch.request_id", id))
		}
		if rw.StatusCode() >= 500 {
			attrs = append(attrs, attribute.Bool("error", true))
		}
		span.SetAttributes(attrs...)
	})
}
