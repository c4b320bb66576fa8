// Package queue buffers telemetry events between the ledger and the
// delivery workers.
//
// Enqueue never blocks: when the buffer is full the event is dropped and the
// caller carries on.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Event is the payload flowing through the queue.
type Event = model.TelemetryEvent

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event. It returns ErrFull or ErrClosed when the event
	// was not accepted.
	Enqueue(ctx context.Context, e Event) error

	// Dequeue returns the channel workers read from. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of queued events.
	Len(ctx context.Context) int

	// Close stops accepting events. Buffered events remain readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateTelemetryQueueSize(0)
	return q
}

// Enqueue adds an event to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTelemetryDropped("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordTelemetryDropped("context_cancelled")
		return err
	}

	select {
	case q.events <- e:
		metrics.RecordTelemetryEnqueued()
		metrics.UpdateTelemetryQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordTelemetryDropped("queue_full")
		return ErrFull
	}
}

// Dequeue returns the underlying channel. Multiple workers share it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Event {
	return q.events
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.events)
	metrics.UpdateTelemetryQueueSize(size)
	return size
}

// Close stops the queue. Calling it twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
