package telemetry

import (
	"context"
	"testing"

	"github.com/artefactual/fixity/internal/bootstrap/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	provider, err := Setup(context.Background(), config.TelemetryConfig{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, span := provider.Tracer().Start(context.Background(), "scan")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Fatalf("noop span has a valid span context")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestSetupEnabledRecordsSpans(t *testing.T) {
	provider, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "fixity-test",
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := provider.Tracer().Start(context.Background(), "scan")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Fatalf("span context is not valid")
	}
}
