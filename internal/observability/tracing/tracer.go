package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the tracer every span in this service is created from. It
// binds to whatever provider is installed globally, so Init can run after
// package initialization.
var tracer = otel.Tracer("socialwatch")

// Init installs the SDK tracer provider with the given service name and
// W3C trace context propagation, and returns the provider's shutdown
// function. No exporter is configured; the provider exists so requests get
// real trace IDs for response headers and log correlation, and so an
// exporter can be attached here later without touching call sites.
func Init(serviceName string) func(context.Context) error {
	res := sdkresource.NewSchemaless(attribute.String("service.name", serviceName))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown
}

// GetTracer returns the service tracer for creating spans.
func GetTracer() trace.Tracer {
	return tracer
}
