package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/skillpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCounter(t *testing.T) {
	Convey("Given a zero counter", t, func() {
		var c model.Counter

		Convey("When incrementing ids", func() {
			So(c.Inc("b"), ShouldEqual, 1)
			So(c.Inc("a"), ShouldEqual, 1)
			So(c.Inc("b"), ShouldEqual, 2)

			Convey("Then keys keep first-insertion order", func() {
				So(c.Keys(), ShouldResemble, []string{"b", "a"})
				So(c.Get("b"), ShouldEqual, 2)
				So(c.Get("missing"), ShouldEqual, 0)
				So(c.Total(), ShouldEqual, 3)
				So(c.Len(), ShouldEqual, 2)
			})

			Convey("And clones are independent", func() {
				clone := c.Clone()
				clone.Inc("c")
				So(c.Len(), ShouldEqual, 2)
				So(clone.Len(), ShouldEqual, 3)
			})

			Convey("And reset empties it", func() {
				c.Reset()
				So(c.Len(), ShouldEqual, 0)
				So(c.Total(), ShouldEqual, 0)
			})
		})
	})
}

func TestLedgerDocument(t *testing.T) {
	Convey("Given a populated ledger", t, func() {
		var l model.Ledger
		l.CopyEvents = []model.CopyEvent{{SkillID: "gsap", Timestamp: 10}}
		l.CopyCounts.Inc("zeta")
		l.CopyCounts.Inc("alpha")
		l.ViewCounts.Inc("gsap")

		Convey("When encoding it", func() {
			b, err := json.Marshal(l)
			So(err, ShouldBeNil)

			Convey("Then it uses the persisted field names", func() {
				var raw map[string]any
				So(json.Unmarshal(b, &raw), ShouldBeNil)
				So(raw, ShouldContainKey, "copyEvents")
				So(raw, ShouldContainKey, "skillCopyCounts")
				So(raw, ShouldContainKey, "viewEvents")
				So(raw, ShouldContainKey, "skillViewCounts")
				So(raw["viewEvents"], ShouldResemble, []any{})
			})

			Convey("And decoding restores counter order", func() {
				var back model.Ledger
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back.CopyCounts.Keys(), ShouldResemble, []string{"zeta", "alpha"})
				So(back.CopyEvents, ShouldResemble, l.CopyEvents)
			})
		})
	})

	Convey("Given a document without order hints", t, func() {
		doc := `{"copyEvents":[],"skillCopyCounts":{"b":1,"a":2},"viewEvents":[],"skillViewCounts":{}}`

		Convey("Then ids fall back to lexical order", func() {
			var l model.Ledger
			So(json.Unmarshal([]byte(doc), &l), ShouldBeNil)
			So(l.CopyCounts.Keys(), ShouldResemble, []string{"a", "b"})
		})
	})

	Convey("Given malformed documents", t, func() {
		for _, doc := range []string{`{"copyEvents":"nope"}`, `{"skillViewCounts":{"x":-1}}`, `[1,2]`} {
			var l model.Ledger
			err := json.Unmarshal([]byte(doc), &l)
			So(errors.Is(err, model.ErrMalformed), ShouldBeTrue)
		}
	})
}

func TestKindAndPeriod(t *testing.T) {
	Convey("Given kind and period names", t, func() {
		k, err := model.ParseKind(" View ")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, model.KindView)

		_, err = model.ParseKind("vote")
		So(errors.Is(err, model.ErrUnknownKind), ShouldBeTrue)

		p, err := model.ParsePeriod("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, model.PeriodWeekly)
		So(model.PeriodDaily.Duration(), ShouldEqual, 24*time.Hour)
		So(model.PeriodMonthly.Duration(), ShouldEqual, 30*24*time.Hour)

		_, err = model.ParsePeriod("yearly")
		So(errors.Is(err, model.ErrUnknownPeriod), ShouldBeTrue)
	})
}
