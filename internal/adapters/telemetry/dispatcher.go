package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/skillpulse/internal/adapters/mq/queue"
	"github.com/okian/skillpulse/internal/adapters/mq/worker"
	"github.com/okian/skillpulse/pkg/logger"
)

const (
	defaultQueueSize = 1024
	defaultWorkers   = 2
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize bounds the number of pending events.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithHandler adds a delivery target. Handlers run in the order added.
func WithHandler(h worker.Handler) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.handlers = append(d.handlers, h)
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// Dispatcher is an asynchronous Sink. Record enqueues and returns at once;
// events that do not fit in the queue are dropped and counted.
type Dispatcher struct {
	queueSize int
	workers   int
	handlers  []worker.Handler
	log       logger.Logger

	queue *queue.InMemoryQueue
	pool  *worker.Pool

	once    sync.Once
	mu      sync.Mutex
	started bool
	dropped int64
}

// NewDispatcher creates a dispatcher. Call Start before recording.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queueSize: defaultQueueSize,
		workers:   defaultWorkers,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = queue.NewInMemoryQueue(queue.WithCapacity(d.queueSize))
	d.pool = worker.NewPool(d.workers, d.queue, d.handlers, d.log)
	return d
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()
		d.pool.Start(ctx)
		d.log.Info(ctx, "telemetry dispatcher started",
			logger.Int("workers", d.pool.Size()),
			logger.Int("queueSize", d.queueSize),
			logger.Int("handlers", len(d.handlers)),
		)
	})
}

// Record enqueues e without blocking.
func (d *Dispatcher) Record(ctx context.Context, e Event) {
	if err := d.queue.Enqueue(ctx, e); err != nil {
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		if !errors.Is(err, queue.ErrClosed) {
			d.log.Debug(ctx, "telemetry event dropped", logger.String("id", e.ID), logger.Error(err))
		}
	}
}

// Dropped returns how many events were not accepted.
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending(ctx context.Context) int {
	return d.queue.Len(ctx)
}

// Shutdown stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		return d.queue.Close()
	}
	return d.pool.Shutdown(ctx)
}
