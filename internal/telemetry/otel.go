package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/setlist-gate/internal/config"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Service identifies the process in exported spans.
type Service struct {
	Name        string
	Environment string
}

// Init installs the global tracer provider. Without an OTLP endpoint tracing
// stays on the global no-op provider and the shutdown function does nothing.
func Init(ctx context.Context, service Service, cfg config.ObservabilityConfig) (trace.TracerProvider, ShutdownFunc, error) {
	if cfg.GetOTLPEndpoint() == "" {
		log.Info().Msg("tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		return otel.GetTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := newTracerProvider(newResource(service, cfg.GetServiceVersion()), exporter)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("endpoint", cfg.GetOTLPEndpoint()).
		Str("service", service.Name).
		Msg("tracing initialised")

	return tp, func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
		return nil
	}, nil
}

// exporterOptions accepts both host:port and a full URL, the form the OTel
// environment variable conventionally takes.
func exporterOptions(cfg config.ObservabilityConfig) []otlptracehttp.Option {
	endpoint := cfg.GetOTLPEndpoint()

	var opts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if cfg.GetOTLPInsecure() {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func newResource(service Service, version string) *resource.Resource {
	// Schemaless so the merge never conflicts with the SDK's default schema URL.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(service.Name),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(service.Environment),
		),
	)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to the default OTel resource")
		return resource.Default()
	}
	return res
}

func newTracerProvider(res *resource.Resource, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
}
