package otel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/shop/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type OtelController struct {
	traceProvider *sdktrace.TracerProvider
}

// MustInitOtel installs the global tracer provider. When tracing is disabled
// the global no-op provider stays in place and Shutdown does nothing.
func MustInitOtel(cfg config.TracingConfig) *OtelController {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		slog.Info("Tracing disabled")

		return &OtelController{}
	}

	tp, err := NewTracerProvider(cfg)
	if err != nil {
		panic(err)
	}
	otel.SetTracerProvider(tp)
	slog.Info("Tracing enabled", "endpoint", cfg.Endpoint)

	return &OtelController{
		traceProvider: tp,
	}
}

// NewTracerProvider builds a provider batching spans to the Jaeger collector.
func NewTracerProvider(cfg config.TracingConfig) (*sdktrace.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.Endpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	), nil
}

func (o *OtelController) Shutdown(ctx context.Context) error {
	if o.traceProvider == nil {
		return nil
	}
	if err := o.traceProvider.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}
