package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/macropower/rat/pkg/version"
)

var (
	tracerMu       sync.Mutex
	tracerShutdown func(context.Context) error
)

// setupTracing wires the global tracer provider to an OTLP collector. With
// no endpoint the default no-op provider stays in place.
func setupTracing(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cmdName),
			semconv.ServiceVersionKey.String(version.GetVersion()),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracerMu.Lock()
	tracerShutdown = provider.Shutdown
	tracerMu.Unlock()

	return nil
}

// ShutdownTracing flushes any buffered spans. Safe to call when tracing was
// never configured.
func ShutdownTracing(ctx context.Context) {
	tracerMu.Lock()
	shutdown := tracerShutdown
	tracerMu.Unlock()

	if shutdown == nil {
		return
	}

	err := shutdown(ctx)
	if err != nil {
		slog.Error("shutdown tracing", slog.Any("err", err))
	}
}
