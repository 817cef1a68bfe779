// Package telemetry wires OpenTelemetry tracing for the profile pipeline.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Span names for the pipeline stages.
const (
	SpanPlan      = "profile.plan"
	SpanSample    = "profile.sample"
	SpanSampleRun = "profile.sample_run"
	SpanAssemble  = "profile.assemble"
)

const instrumentation = "github.com/samirrijal/elevprofile"

// InitTracer installs a global tracer provider exporting over OTLP/gRPC to
// addr. The returned func flushes and shuts the provider down.
func InitTracer(ctx context.Context, serviceName, addr string) (func(), error) {
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(addr),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}, nil
}

// Tracer returns the pipeline tracer from the global provider. Without
// InitTracer it is a no-op.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentation)
}
