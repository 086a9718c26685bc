package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/artefactual/fixity/internal/bootstrap/config"
	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/errs"
)

const instrumentationName = "github.com/artefactual/fixity"

// Provider owns the tracer provider for one command run.
type Provider struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// Setup installs a global tracer provider. Tracing disabled yields a no-op
// provider; an empty endpoint keeps spans in process, which is enough for
// trace ids in logs.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (*Provider, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	if !cfg.Enabled {
		provider := noop.NewTracerProvider()
		return &Provider{
			provider: provider,
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	res := sdkresource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	if cfg.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		if err != nil {
			return nil, errs.Wrap(err, "create otlp trace exporter")
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logging.Debug(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.telemetry")),
		"tracing enabled",
		slog.String("service", cfg.ServiceName),
		slog.String("endpoint", cfg.Endpoint),
	)

	return &Provider{
		provider: provider,
		shutdown: provider.Shutdown,
	}, nil
}

func (p *Provider) Tracer() trace.Tracer {
	return p.provider.Tracer(instrumentationName)
}

func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.provider
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
