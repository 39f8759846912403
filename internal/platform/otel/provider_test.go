package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/slotted/internal/platform/otel"
)

func TestConfigActive(t *testing.T) {
	tests := []struct {
		name string
		cfg  otel.Config
		want bool
	}{
		{name: "empty", cfg: otel.Config{}, want: false},
		{name: "endpoint", cfg: otel.Config{Endpoint: "http://localhost:4318"}, want: true},
		{name: "disabled", cfg: otel.Config{Enabled: "FALSE", Endpoint: "http://localhost:4318"}, want: false},
		{name: "blank endpoint", cfg: otel.Config{Enabled: "true", Endpoint: "  "}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Active(); got != tt.want {
				t.Fatalf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("SLOTTED_OTEL_ENDPOINT", "")
	t.Setenv("SLOTTED_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("SLOTTED_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("SLOTTED_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupWithConfig_CreatesProvider(t *testing.T) {
	// Non-routable address, nothing is exported.
	cfg := otel.Config{Endpoint: "http://192.0.2.1:4318"}

	shutdown, err := otel.SetupWithConfig(context.Background(), "slotsim-test", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	shutdown, err := otel.SetupWithConfig(context.Background(), "noop-test", otel.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
