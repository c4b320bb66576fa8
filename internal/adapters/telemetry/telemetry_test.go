package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/skillpulse/internal/adapters/mq/worker"
	"github.com/okian/skillpulse/internal/adapters/telemetry"
	"github.com/okian/skillpulse/pkg/logger"
	"github.com/okian/skillpulse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

type collector struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (c *collector) Name() string { return "collector" }

func (c *collector) Handle(_ context.Context, e worker.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type failingHandler struct{}

func (failingHandler) Name() string { return "failing" }

func (failingHandler) Handle(context.Context, worker.Event) error {
	return errors.New("sink offline")
}

// memLogger keeps warnings so tests can see which logger a component used.
type memLogger struct {
	mu    *sync.Mutex
	warns *[]string
}

func newMemLogger() memLogger {
	return memLogger{mu: &sync.Mutex{}, warns: &[]string{}}
}

func (l memLogger) Info(context.Context, string, ...logger.Field)  {}
func (l memLogger) Error(context.Context, string, ...logger.Field) {}
func (l memLogger) Debug(context.Context, string, ...logger.Field) {}
func (l memLogger) Warn(_ context.Context, msg string, _ ...logger.Field) {
	l.mu.Lock()
	*l.warns = append(*l.warns, msg)
	l.mu.Unlock()
}
func (l memLogger) Named(string) logger.Logger { return l }

func (l memLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), *l.warns...)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started dispatcher", t, func() {
		c := &collector{}
		d := telemetry.NewDispatcher(
			telemetry.WithQueueSize(16),
			telemetry.WithWorkers(2),
			telemetry.WithHandler(c),
			telemetry.WithHandler(telemetry.NewLogHandler(logger.Nop())),
		)
		d.Start(ctx)

		Convey("When events are recorded and the dispatcher shuts down", func() {
			for i := 0; i < 10; i++ {
				d.Record(ctx, telemetry.Event{ID: "e", Kind: "view", SkillID: "react-patterns"})
			}
			So(d.Shutdown(ctx), ShouldBeNil)

			Convey("Then every event reaches the handlers", func() {
				So(c.len(), ShouldEqual, 10)
				So(d.Dropped(), ShouldEqual, 0)
			})
		})

		Convey("When recording after shutdown", func() {
			So(d.Shutdown(ctx), ShouldBeNil)
			d.Record(ctx, telemetry.Event{ID: "late", Kind: "copy"})

			Convey("Then the event is dropped without panicking", func() {
				So(d.Dropped(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a dispatcher with its own logger and no global logger", t, func() {
		log := newMemLogger()
		d := telemetry.NewDispatcher(
			telemetry.WithWorkers(1),
			telemetry.WithLogger(log),
			telemetry.WithHandler(failingHandler{}),
		)

		Convey("When a delivery fails", func() {
			So(func() { d.Start(ctx) }, ShouldNotPanic)
			d.Record(ctx, telemetry.Event{ID: "e1", Kind: "copy", SkillID: "a"})
			So(d.Shutdown(ctx), ShouldBeNil)

			Convey("Then the worker reports it through the dispatcher logger", func() {
				So(log.warnings(), ShouldContain, "telemetry delivery failed")
			})
		})
	})

	Convey("Given a dispatcher that was never started", t, func() {
		c := &collector{}
		d := telemetry.NewDispatcher(telemetry.WithQueueSize(2), telemetry.WithHandler(c))

		Convey("When more events arrive than the queue holds", func() {
			for i := 0; i < 5; i++ {
				d.Record(ctx, telemetry.Event{ID: "e", Kind: "view"})
			}

			Convey("Then the overflow is dropped and Record never blocks", func() {
				So(d.Pending(ctx), ShouldEqual, 2)
				So(d.Dropped(), ShouldEqual, 3)
				So(d.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}

func TestPrometheusHandler(t *testing.T) {
	Convey("Given a Prometheus handler on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("telemetry"),
			metrics.WithPrometheusRegistry(reg),
		)
		h := telemetry.NewPrometheusHandler(m)

		Convey("When events are handled", func() {
			So(h.Handle(context.Background(), telemetry.Event{Kind: "view", SkillID: "a"}), ShouldBeNil)
			So(h.Handle(context.Background(), telemetry.Event{Kind: "view", SkillID: "a"}), ShouldBeNil)
			So(h.Handle(context.Background(), telemetry.Event{Kind: "error", Message: "boom"}), ShouldBeNil)

			Convey("Then per-skill counters are recorded", func() {
				So(h.Name(), ShouldEqual, "prometheus")
				So(testutil.CollectAndCount(reg, "test_telemetry_skill_events_total"), ShouldEqual, 2)
			})
		})
	})
}

func TestSinkFunc(t *testing.T) {
	Convey("Given a SinkFunc", t, func() {
		var got telemetry.Event
		var s telemetry.Sink = telemetry.SinkFunc(func(_ context.Context, e telemetry.Event) { got = e })
		s.Record(context.Background(), telemetry.Event{ID: "x"})
		telemetry.Nop().Record(context.Background(), telemetry.Event{ID: "y"})

		Convey("Then it forwards the event", func() {
			So(got.ID, ShouldEqual, "x")
		})
	})
}
