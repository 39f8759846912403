// Package observability records slotted dispatch telemetry.
//
// Counters and spans go through the global OpenTelemetry providers, so they
// are no-ops until a process installs real providers (see
// internal/platform/otel.Setup).
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/slotted/internal/slotted/host"
)

const instrumentationName = "github.com/louisbranch/slotted"

// Dispatch outcomes reported by hubs.
const (
	OutcomeInvoked    = "invoked"
	OutcomeNoVariant  = "no_variant"
	OutcomeNoBaseName = "no_base_name"
	OutcomeNoCommand  = "no_command"
)

// Recorder owns the instruments used by the registry and runtime.
type Recorder struct {
	tracer      trace.Tracer
	resolutions metric.Int64Counter
	dispatches  metric.Int64Counter
	dropped     metric.Int64Counter
}

// New builds a Recorder from explicit providers.
func New(meter metric.Meter, tracer trace.Tracer) *Recorder {
	return &Recorder{
		tracer:      tracer,
		resolutions: counter(meter, "slotted.resolutions", "Variant resolutions attempted on first frame"),
		dispatches:  counter(meter, "slotted.dispatches", "Command hub invocations by outcome"),
		dropped:     counter(meter, "slotted.registrations.dropped", "Registrations dropped before reaching the registry"),
	}
}

// Default builds a Recorder bound to the global OpenTelemetry providers.
func Default() *Recorder {
	return New(otel.Meter(instrumentationName), otel.Tracer(instrumentationName))
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// Resolved counts one first-frame resolution attempt.
func (r *Recorder) Resolved(kind host.Hash40, matched bool) {
	if r == nil {
		return
	}
	r.resolutions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind.String()),
		attribute.Bool("matched", matched),
	))
}

// Dispatched counts one hub invocation.
func (r *Recorder) Dispatched(category host.CommandCategory, outcome string) {
	if r == nil {
		return
	}
	r.dispatches.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("category", category.String()),
		attribute.String("outcome", outcome),
	))
}

// Dropped counts a registration that never reached the registry.
func (r *Recorder) Dropped(reason string) {
	if r == nil {
		return
	}
	r.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Start opens a span; callers must End it.
func (r *Recorder) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if r == nil || r.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return r.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
