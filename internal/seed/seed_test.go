package seed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/skillpulse/internal/app"
	"github.com/okian/skillpulse/internal/domain/model"
	"github.com/okian/skillpulse/internal/seed"
	"github.com/okian/skillpulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type flakyTracker struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyTracker) Track(_ context.Context, kind model.Kind, id, _ string) (model.TrackResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls%2 == 0 {
		return model.TrackResult{}, errors.New("boom")
	}
	return model.TrackResult{Event: model.SkillEvent{SkillID: id}}, nil
}

func TestGenerate(t *testing.T) {
	skills := []string{"a", "b", "c", "d"}

	Convey("Given a seeded configuration", t, func() {
		cfg := seed.Config{Events: 400, CopyRatio: 0.25, Span: 7 * 24 * time.Hour, Skew: 1.5, Seed: 42}

		Convey("When generating twice", func() {
			first, err := seed.Generate(cfg, skills, now)
			So(err, ShouldBeNil)
			second, err := seed.Generate(cfg, skills, now)
			So(err, ShouldBeNil)

			Convey("Then the plans are identical", func() {
				So(first, ShouldResemble, second)
				So(first, ShouldHaveLength, 400)
			})

			Convey("Then events are ordered and inside the span", func() {
				for i, e := range first {
					So(e.At.After(now), ShouldBeFalse)
					So(e.At.Before(now.Add(-cfg.Span)), ShouldBeFalse)
					if i > 0 {
						So(e.At.Before(first[i-1].At), ShouldBeFalse)
					}
				}
			})

			Convey("Then earlier skills are more popular", func() {
				counts := map[string]int{}
				for _, e := range first {
					counts[e.SkillID]++
				}
				So(counts["a"], ShouldBeGreaterThan, counts["d"])
			})
		})

		Convey("When the copy ratio is one", func() {
			cfg.CopyRatio = 1
			events, err := seed.Generate(cfg, skills, now)
			So(err, ShouldBeNil)
			for _, e := range events {
				So(e.Kind, ShouldEqual, model.KindCopy)
			}
		})
	})

	Convey("Given invalid input", t, func() {
		_, err := seed.Generate(seed.DefaultConfig(), nil, now)
		So(errors.Is(err, seed.ErrNoSkills), ShouldBeTrue)

		_, err = seed.Generate(seed.Config{Events: 1, CopyRatio: 2}, skills, now)
		So(errors.Is(err, seed.ErrInvalidPlan), ShouldBeTrue)

		_, err = seed.Generate(seed.Config{Events: -1}, skills, now)
		So(errors.Is(err, seed.ErrInvalidPlan), ShouldBeTrue)
	})
}

func TestReplay(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service on a replay clock", t, func() {
		clock := seed.NewClock(now)
		svc := service.New(service.WithClock(clock.Now))
		events := []seed.Event{
			{Kind: model.KindView, SkillID: "a", At: now.Add(-72 * time.Hour)},
			{Kind: model.KindView, SkillID: "a", At: now.Add(-time.Hour)},
			{Kind: model.KindCopy, SkillID: "b", At: now.Add(-time.Minute)},
		}

		Convey("When the plan is replayed", func() {
			stats, err := seed.Replay(ctx, svc, clock, events)

			Convey("Then every event is recorded at its planned time", func() {
				So(err, ShouldBeNil)
				So(stats.Views, ShouldEqual, 2)
				So(stats.Copies, ShouldEqual, 1)
				So(stats.Failed, ShouldEqual, 0)

				views := svc.Recent(ctx, model.KindView, 10)
				So(views, ShouldHaveLength, 2)
				So(views[1].Timestamp, ShouldEqual, now.Add(-72*time.Hour).UnixMilli())
				So(views[0].Timestamp, ShouldEqual, now.Add(-time.Hour).UnixMilli())
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			stats, err := seed.Replay(cctx, svc, clock, events)

			Convey("Then nothing is recorded", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(stats.Views+stats.Copies, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a tracker that fails every other call", t, func() {
		tr := &flakyTracker{}
		events, err := seed.Generate(seed.Config{Events: 10, Seed: 7}, []string{"x"}, now)
		So(err, ShouldBeNil)

		stats, err := seed.Replay(ctx, tr, nil, events)

		Convey("Then failures are counted and the replay continues", func() {
			So(err, ShouldBeNil)
			So(stats.Failed, ShouldEqual, 5)
			So(stats.Views, ShouldEqual, 5)
		})
	})
}
