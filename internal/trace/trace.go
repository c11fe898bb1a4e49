// Package trace wires OpenTelemetry spans around the trading loops. Spans go
// to the stdout exporter so a session's traces land next to its logs.
package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "emoji-stock-trader"
	serviceVersion = "1.0.0"
)

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
)

// Init installs the global tracer provider. Tracing is on by default; set
// LOG_TRACING_ENABLED to anything but "true" to run without it, in which
// case StartSpan degrades to a pass-through.
func Init() error {
	if v := os.Getenv("LOG_TRACING_ENABLED"); v != "" && v != "true" {
		return nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		))
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(serviceName)
	return nil
}

// Shutdown flushes batched spans. Call once on the way out.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// StartSpan opens a span when tracing is initialized, and otherwise returns
// the context untouched along with whatever span it already carries.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}
