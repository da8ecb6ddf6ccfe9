package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/cory-johannsen/monbattle/internal/config"
)

// Shutdown flushes pending spans and releases the exporter.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// SetupTracing installs the global tracer provider and propagator.
//
// Tracing is opt-in: when cfg.Enabled is false or cfg.Endpoint is empty no
// provider is registered, battle spans go to the default no-op tracer, and
// the returned Shutdown does nothing.
//
// Precondition: cfg must have passed config validation.
// Postcondition: the returned Shutdown is never nil, even on error.
func SetupTracing(ctx context.Context, cfg config.TracingConfig, logger *zap.Logger) (Shutdown, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noopShutdown, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("building trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("tracing enabled",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("service", cfg.ServiceName),
		zap.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}
