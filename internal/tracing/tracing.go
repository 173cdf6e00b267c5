// Package tracing sets up OpenTelemetry tracing with an in-process zpages
// span store, so recent spans can be inspected without a collector.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/zpages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Provider owns the tracer provider and its zpages processor.
type Provider struct {
	tp     *sdktrace.TracerProvider
	zpages *zpages.SpanProcessor
}

// Setup creates a provider that samples every span and installs it as the
// global tracer provider.
func Setup(serviceName, version string) (*Provider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	processor := zpages.NewSpanProcessor()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, zpages: processor}, nil
}

// TracezHandler serves the zpages view of recent spans.
func (p *Provider) TracezHandler() http.Handler {
	return zpages.NewTracezHandler(p.zpages)
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
