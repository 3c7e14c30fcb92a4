// Package telemetry configures OpenTelemetry tracing.
package telemetry

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options controls exporter setup.
type Options struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// Setup installs a global tracer provider exporting over OTLP/gRPC. When no
// endpoint is configured tracing stays a no-op. The returned function flushes
// and stops the provider.
func Setup(ctx context.Context, opts Options, logger *slog.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if opts.Endpoint == "" {
		return noop
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		logger.Warn("otel exporter", slog.Any("error", err))
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(opts.ServiceName)))
	if err != nil {
		logger.Warn("otel resource", slog.Any("error", err))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown
}

// Handler wraps h with server-side HTTP tracing.
func Handler(h http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(h, operation)
}
