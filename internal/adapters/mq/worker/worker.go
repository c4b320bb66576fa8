// Package worker drains the telemetry queue and hands each event to the
// configured sinks.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/skillpulse/internal/adapters/mq/queue"
	"github.com/okian/skillpulse/pkg/logger"
	"github.com/okian/skillpulse/pkg/metrics"
)

const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Handler delivers one event. A returned error or a panic is logged and
// counted; it never stops the worker.
type Handler interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	handlers []Handler
	name     string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker delivering to handlers in order.
func NewInMemoryWorker(q Queue, handlers []Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handlers: handlers,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run drains the queue. When the queue is closed the remaining buffered
// events are delivered before Run returns.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.process(ctx, event)
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, event Event) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordTelemetryLatency(float64(time.Since(start).Milliseconds()))
	}()

	for _, h := range w.handlers {
		if err := w.deliver(ctx, h, event); err != nil {
			metrics.RecordTelemetryDispatchError(h.Name())
			w.logger.Warn(ctx, "telemetry delivery failed",
				logger.String("sink", h.Name()),
				logger.String("eventID", event.ID),
				logger.Error(err),
			)
		}
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, h Handler, event Event) (err error) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below one means one worker per CPU.
// A nil log discards worker logs.
func NewPool(workerCount int, q Queue, handlers []Handler, log logger.Logger) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if log == nil {
		log = logger.Nop()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, handlers,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(log),
		)
	}
	metrics.UpdateTelemetryWorkers(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it. Workers
// still busy when ctx or the pool timeout expires are stopped and the
// undelivered events are abandoned.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			p.Stop()
			return fmt.Errorf("draining workers: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateTelemetryWorkers(0)
	return nil
}

// Stop stops workers without draining the queue.
func (p *Pool) Stop() {
	for i, w := range p.workers {
		ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop", logger.Int("worker_id", i), logger.Error(err))
		}
		cancel()
	}
	metrics.UpdateTelemetryWorkers(0)
}
