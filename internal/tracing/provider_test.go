package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/torosent/netsynth/internal/config"
	"github.com/torosent/netsynth/internal/tracing"
)

func TestInitDisabled(t *testing.T) {
	provider, err := tracing.Init(context.Background(), config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	tracer := provider.Tracer()
	if tracer == nil {
		t.Fatal("disabled provider should still return a usable tracer")
	}

	ctx, span := tracing.StartSpan(context.Background(), tracer, "test-op")
	if ctx == nil || span == nil {
		t.Fatal("no-op tracer should produce a span")
	}
	tracing.EndSpan(span, nil)
	tracing.EndSpan(span, errors.New("already ended, must not panic"))

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider: %v", err)
	}
}

func TestInitEnabledWithoutEndpoint(t *testing.T) {
	// Explicitly clear the env fallback for this test.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	provider, err := tracing.Init(context.Background(), config.TracingConfig{Enabled: true})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if provider.Tracer() == nil {
		t.Fatal("endpoint-less provider should fall back to a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitRejectsBadProtocol(t *testing.T) {
	cfg := config.TracingConfig{
		Enabled:  true,
		Endpoint: "localhost:4317",
		Protocol: "udp",
	}
	if _, err := tracing.Init(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}

func TestNilProviderIsSafe(t *testing.T) {
	var provider *tracing.Provider
	if provider.Tracer() == nil {
		t.Error("nil provider should return a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider shutdown: %v", err)
	}
}
