package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/skillpulse/internal/adapters/storage"
	"github.com/okian/skillpulse/internal/adapters/telemetry"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/domain/trending"
	"github.com/okian/skillpulse/internal/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return epoch }
}

type captureSink struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (c *captureSink) Record(_ context.Context, e telemetry.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func TestAppendAndCounts(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty ledger", t, func() {
		backend := storage.NewMemoryBackend()
		l := ledger.New(backend, ledger.WithClock(fixedClock()))

		Convey("When nothing has been tracked", func() {
			c := l.Counts(ctx)

			Convey("Then all counts are zero and nothing was written", func() {
				So(c.TotalCopies, ShouldEqual, 0)
				So(c.TotalViews, ShouldEqual, 0)
				So(c.Views, ShouldBeEmpty)
				So(l.Recent(ctx, model.KindView, 10), ShouldBeEmpty)
				So(backend.Writes(), ShouldEqual, 0)
			})
		})

		Convey("When copies and views are appended", func() {
			l.AppendCopy(ctx, "a")
			l.AppendCopy(ctx, "a")
			l.AppendView(ctx, "b")
			ev, ok := l.AppendView(ctx, " c ")

			Convey("Then counters and logs reflect every call", func() {
				So(ok, ShouldBeTrue)
				So(ev.SkillID, ShouldEqual, "c")
				c := l.Counts(ctx)
				So(c.Copies, ShouldResemble, map[string]int{"a": 2})
				So(c.Views, ShouldResemble, map[string]int{"b": 1, "c": 1})
				So(c.TotalCopies, ShouldEqual, 2)
				So(c.TotalViews, ShouldEqual, 2)
				So(backend.Writes(), ShouldEqual, 4)
			})
		})

		Convey("When a blank id is appended", func() {
			_, ok := l.AppendCopy(ctx, "   ")

			Convey("Then nothing changes", func() {
				So(ok, ShouldBeFalse)
				So(l.Counts(ctx).TotalCopies, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a ledger with the default cap", t, func() {
		l := ledger.New(storage.NewMemoryBackend(), ledger.WithClock(fixedClock()))

		Convey("When 1005 views of one skill are appended", func() {
			for i := 0; i < 1005; i++ {
				l.AppendView(ctx, "x")
			}
			snap := l.Snapshot(ctx)

			Convey("Then the raw log is capped but the counter is not", func() {
				So(len(snap.ViewEvents), ShouldEqual, 1000)
				So(trending.Count(&snap, model.KindView, "x"), ShouldEqual, 1005)
				So(snap.ViewEvents[0].Timestamp, ShouldEqual, epoch.UnixMilli()+5)
			})
		})
	})

	Convey("Given a ledger with a small cap", t, func() {
		l := ledger.New(storage.NewMemoryBackend(), ledger.WithMaxEvents(3), ledger.WithClock(fixedClock()))

		Convey("When more copies than the cap are appended", func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				l.AppendCopy(ctx, id)
			}
			recent := l.Recent(ctx, model.KindCopy, 10)

			Convey("Then the oldest are evicted first", func() {
				ids := []string{}
				for _, e := range recent {
					ids = append(ids, e.SkillID)
				}
				So(ids, ShouldResemble, []string{"e", "d", "c"})
				So(l.Counts(ctx).Copies["a"], ShouldEqual, 1)
			})
		})
	})
}

func TestRecent(t *testing.T) {
	ctx := context.Background()

	Convey("Given views appended within the same millisecond", t, func() {
		l := ledger.New(storage.NewMemoryBackend(), ledger.WithClock(fixedClock()))
		for _, id := range []string{"a", "b", "c", "d"} {
			l.AppendView(ctx, id)
		}

		Convey("When recent views are requested", func() {
			recent := l.Recent(ctx, model.KindView, 3)

			Convey("Then they are strictly descending, newest first", func() {
				So(len(recent), ShouldEqual, 3)
				So(recent[0].SkillID, ShouldEqual, "d")
				for i := 1; i < len(recent); i++ {
					So(recent[i].Timestamp, ShouldBeLessThan, recent[i-1].Timestamp)
				}
			})
		})

		Convey("When the limit exceeds the log or is not positive", func() {
			So(len(l.Recent(ctx, model.KindView, 100)), ShouldEqual, 4)
			So(l.Recent(ctx, model.KindView, 0), ShouldBeEmpty)
			So(l.Recent(ctx, model.KindCopy, 5), ShouldBeEmpty)
		})
	})

	Convey("Given a clock that moves backwards", t, func() {
		current := epoch
		l := ledger.New(storage.NewMemoryBackend(), ledger.WithClock(func() time.Time { return current }))
		l.AppendCopy(ctx, "a")
		current = epoch.Add(-time.Hour)
		l.AppendCopy(ctx, "b")

		Convey("Then timestamps still increase", func() {
			recent := l.Recent(ctx, model.KindCopy, 2)
			So(recent[0].SkillID, ShouldEqual, "b")
			So(recent[0].Timestamp, ShouldEqual, epoch.UnixMilli()+1)
		})
	})
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger that has tracked activity", t, func() {
		backend := storage.NewMemoryBackend()
		l := ledger.New(backend, ledger.WithClock(fixedClock()))
		l.AppendCopy(ctx, "z")
		l.AppendCopy(ctx, "a")
		l.AppendView(ctx, "a")
		l.AppendError(ctx, "boom", map[string]string{"page": "/skills"})

		Convey("When a new ledger is opened on the same backend", func() {
			reopened := ledger.New(backend)
			snap := reopened.Snapshot(ctx)

			Convey("Then the state and counter order survive", func() {
				So(snap.CopyCounts.Keys(), ShouldResemble, []string{"z", "a"})
				So(len(snap.ViewEvents), ShouldEqual, 1)
				popular := trending.MostPopular(&snap, model.KindCopy, 2)
				So(popular[0].SkillID, ShouldEqual, "z")
				errs := reopened.RecentErrors(ctx, 5)
				So(len(errs), ShouldEqual, 1)
				So(errs[0].Metadata["page"], ShouldEqual, "/skills")
			})
		})
	})

	Convey("Given a backend holding corrupt documents", t, func() {
		backend := storage.NewMemoryBackend()
		So(backend.Set(ctx, ledger.DefaultLedgerKey, []byte("{not json")), ShouldBeNil)
		So(backend.Set(ctx, ledger.DefaultErrorsKey, []byte(`{"oops":true}`)), ShouldBeNil)
		l := ledger.New(backend, ledger.WithClock(fixedClock()))

		Convey("When the ledger is first used", func() {
			c := l.Counts(ctx)

			Convey("Then it starts empty and keeps working", func() {
				So(c.TotalViews, ShouldEqual, 0)
				So(l.RecentErrors(ctx, 5), ShouldBeEmpty)
				l.AppendView(ctx, "a")
				So(l.Counts(ctx).Views["a"], ShouldEqual, 1)
				So(l.LastPersistError(), ShouldBeNil)
			})
		})
	})

	Convey("Given stored logs with tied and out-of-order timestamps", t, func() {
		backend := storage.NewMemoryBackend()
		So(backend.Set(ctx, ledger.DefaultLedgerKey, []byte(`{"copyEvents":[],"skillCopyCounts":{},`+
			`"viewEvents":[{"skillId":"a","timestamp":5},{"skillId":"b","timestamp":5},{"skillId":"c","timestamp":4}],`+
			`"skillViewCounts":{"a":1,"b":1,"c":1}}`)), ShouldBeNil)
		So(backend.Set(ctx, ledger.DefaultErrorsKey,
			[]byte(`[{"message":"late","timestamp":9},{"message":"early","timestamp":3},{"message":"tie","timestamp":9}]`)), ShouldBeNil)
		l := ledger.New(backend, ledger.WithClock(func() time.Time { return time.UnixMilli(1) }))

		Convey("When recent events are read", func() {
			recent := l.Recent(ctx, model.KindView, 3)
			errs := l.RecentErrors(ctx, 3)

			Convey("Then they come back strictly descending in stored order for ties", func() {
				So(recent, ShouldResemble, []model.SkillEvent{
					{SkillID: "b", Timestamp: 6},
					{SkillID: "a", Timestamp: 5},
					{SkillID: "c", Timestamp: 4},
				})
				So(errs[0].Message, ShouldEqual, "tie")
				So(errs[0].Timestamp, ShouldEqual, 10)
				So(errs[1].Message, ShouldEqual, "late")
				So(errs[2].Message, ShouldEqual, "early")
			})
		})

		Convey("When a view is appended with a clock behind the stored events", func() {
			ev, ok := l.AppendView(ctx, "d")

			Convey("Then it is stamped after the newest stored event", func() {
				So(ok, ShouldBeTrue)
				So(ev.Timestamp, ShouldEqual, 7)
				So(l.Recent(ctx, model.KindView, 1)[0].SkillID, ShouldEqual, "d")
			})
		})
	})

	Convey("Given ledgers configured with their own storage keys", t, func() {
		backend := storage.NewMemoryBackend()
		first := ledger.New(backend, ledger.WithKeys("team-a.ledger", "team-a.errors"), ledger.WithClock(fixedClock()))
		second := ledger.New(backend, ledger.WithClock(fixedClock()))
		first.AppendCopy(ctx, "a")
		first.AppendError(ctx, "boom", nil)

		Convey("Then each reads and writes only its own documents", func() {
			So(second.Counts(ctx).TotalCopies, ShouldEqual, 0)
			So(second.RecentErrors(ctx, 5), ShouldBeEmpty)
			raw, err := backend.Get(ctx, "team-a.ledger")
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"skillId":"a"`)
			_, err = backend.Get(ctx, ledger.DefaultLedgerKey)
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a stored document with negative counts", t, func() {
		backend := storage.NewMemoryBackend()
		So(backend.Set(ctx, ledger.DefaultLedgerKey,
			[]byte(`{"copyEvents":[],"skillCopyCounts":{"a":-1},"viewEvents":[],"skillViewCounts":{}}`)), ShouldBeNil)
		l := ledger.New(backend)

		Convey("Then it is treated as malformed", func() {
			So(l.Counts(ctx).Copies, ShouldBeEmpty)
		})
	})

	Convey("Given an unavailable backend", t, func() {
		backend := storage.NewMemoryBackend()
		backend.SetUnavailable(true)
		l := ledger.New(backend, ledger.WithClock(fixedClock()))

		Convey("When events are appended", func() {
			l.AppendCopy(ctx, "a")
			l.AppendCopy(ctx, "a")

			Convey("Then memory is updated and the failure is reported", func() {
				So(l.Counts(ctx).Copies["a"], ShouldEqual, 2)
				So(errors.Is(l.LastPersistError(), storage.ErrUnavailable), ShouldBeTrue)
			})

			Convey("And when the backend recovers", func() {
				backend.SetUnavailable(false)
				l.AppendCopy(ctx, "a")

				Convey("Then the full state is written", func() {
					So(l.LastPersistError(), ShouldBeNil)
					again := ledger.New(backend)
					So(again.Counts(ctx).Copies["a"], ShouldEqual, 3)
				})
			})
		})
	})

	Convey("Given a backend over its quota", t, func() {
		backend := storage.NewMemoryBackend(storage.WithQuota(64))
		l := ledger.New(backend, ledger.WithClock(fixedClock()))

		Convey("When the document outgrows the quota", func() {
			for i := 0; i < 10; i++ {
				l.AppendView(ctx, fmt.Sprintf("skill-%d", i))
			}

			Convey("Then appends keep succeeding in memory", func() {
				So(l.Counts(ctx).TotalViews, ShouldEqual, 10)
				So(errors.Is(l.LastPersistError(), storage.ErrQuotaExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	Convey("Given a populated ledger", t, func() {
		backend := storage.NewMemoryBackend()
		l := ledger.New(backend, ledger.WithClock(fixedClock()))
		l.AppendCopy(ctx, "a")
		l.AppendView(ctx, "b")
		l.AppendError(ctx, "boom", nil)

		Convey("When it is cleared", func() {
			l.Clear(ctx)

			Convey("Then logs and counters are empty in memory and in storage", func() {
				So(l.Counts(ctx).TotalCopies, ShouldEqual, 0)
				So(l.Recent(ctx, model.KindView, 5), ShouldBeEmpty)
				So(l.RecentErrors(ctx, 5), ShouldBeEmpty)

				reopened := ledger.New(backend)
				c := reopened.Counts(ctx)
				So(c.TotalCopies, ShouldEqual, 0)
				So(c.TotalViews, ShouldEqual, 0)
				So(reopened.RecentErrors(ctx, 5), ShouldBeEmpty)
			})
		})
	})
}

func TestErrorLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger", t, func() {
		l := ledger.New(storage.NewMemoryBackend(), ledger.WithClock(fixedClock()))

		Convey("When more than 100 errors are reported", func() {
			for i := 0; i < 105; i++ {
				l.AppendError(ctx, fmt.Sprintf("err-%d", i), nil)
			}
			errs := l.RecentErrors(ctx, 1000)

			Convey("Then only the newest 100 are kept", func() {
				So(len(errs), ShouldEqual, 100)
				So(errs[0].Message, ShouldEqual, "err-104")
				So(errs[99].Message, ShouldEqual, "err-5")
			})
		})

		Convey("When the caller mutates the metadata afterwards", func() {
			md := map[string]string{"k": "v"}
			l.AppendError(ctx, "boom", md)
			md["k"] = "changed"

			Convey("Then the stored report is unaffected", func() {
				So(l.RecentErrors(ctx, 1)[0].Metadata["k"], ShouldEqual, "v")
			})
		})
	})
}

func TestTelemetrySink(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ledger with a sink", t, func() {
		sink := &captureSink{}
		ids := 0
		l := ledger.New(storage.NewMemoryBackend(),
			ledger.WithClock(fixedClock()),
			ledger.WithSink(sink),
			ledger.WithIDGenerator(func() string { ids++; return fmt.Sprintf("id-%d", ids) }),
		)

		Convey("When events are tracked", func() {
			l.AppendCopy(ctx, "a")
			l.AppendError(ctx, "boom", nil)

			Convey("Then the sink is notified of each", func() {
				So(len(sink.events), ShouldEqual, 2)
				So(sink.events[0].ID, ShouldEqual, "id-1")
				So(sink.events[0].Kind, ShouldEqual, "copy")
				So(sink.events[0].SkillID, ShouldEqual, "a")
				So(sink.events[1].Kind, ShouldEqual, "error")
				So(sink.events[1].Message, ShouldEqual, "boom")
			})
		})
	})

	Convey("Given a ledger whose sink panics", t, func() {
		l := ledger.New(storage.NewMemoryBackend(),
			ledger.WithSink(telemetry.SinkFunc(func(context.Context, telemetry.Event) { panic("sink down") })),
		)

		Convey("When an event is tracked", func() {
			So(func() { l.AppendView(ctx, "a") }, ShouldNotPanic)

			Convey("Then the ledger state is unaffected", func() {
				So(l.Counts(ctx).Views["a"], ShouldEqual, 1)
			})
		})
	})
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()

	Convey("Given many goroutines appending at once", t, func() {
		l := ledger.New(storage.NewMemoryBackend())
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					l.AppendView(ctx, "hot")
					l.AppendCopy(ctx, "hot")
				}
			}()
		}
		wg.Wait()

		Convey("Then every call is counted exactly once", func() {
			c := l.Counts(ctx)
			So(c.Views["hot"], ShouldEqual, 400)
			So(c.Copies["hot"], ShouldEqual, 400)
		})
	})
}
