// Package observability provides OpenTelemetry tracing for the agent
// runtime. Metrics export is intentionally absent.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Exporter selects where spans go.
type Exporter string

const (
	// ExporterStdout writes pretty-printed spans to stdout.
	ExporterStdout Exporter = "stdout"

	// ExporterNoop discards all spans.
	ExporterNoop Exporter = "noop"
)

// Config configures the tracing provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Exporter       Exporter
}

// DefaultConfig returns a noop tracing configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "agent-core",
		ServiceVersion: "dev",
		Exporter:       ExporterNoop,
	}
}

// Provider owns the tracer provider lifecycle.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// New creates a provider and installs it globally.
func New(cfg Config) (*Provider, error) {
	if cfg.Exporter == ExporterNoop || cfg.Exporter == "" {
		return &Provider{}, nil
	}
	if cfg.Exporter != ExporterStdout {
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

// Shutdown flushes and stops the tracer provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
