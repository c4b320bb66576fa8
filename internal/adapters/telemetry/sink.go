// Package telemetry forwards tracked interactions to external observers.
//
// The ledger calls Sink.Record after each successful append. Record must not
// block; the Dispatcher satisfies that by queueing and delivering from a
// worker pool.
package telemetry

import (
	"context"

	"github.com/okian/skillpulse/internal/domain/model"
)

// Event is a tracked interaction handed to sinks.
type Event = model.TelemetryEvent

// Sink receives telemetry events. Implementations must return quickly and
// must not expect the caller to handle failures.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event)

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, e Event) { f(ctx, e) }

type nopSink struct{}

func (nopSink) Record(context.Context, Event) {}

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }
