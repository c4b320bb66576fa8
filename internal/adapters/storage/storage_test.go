package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/skillpulse/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func backendContract(ctx context.Context, b storage.Backend) {
	Convey("When a missing key is read", func() {
		_, err := b.Get(ctx, "absent")

		Convey("Then ErrNotFound is returned", func() {
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("When a value is set and read back", func() {
		So(b.Set(ctx, "k", []byte(`{"a":1}`)), ShouldBeNil)
		got, err := b.Get(ctx, "k")

		Convey("Then the same bytes are returned", func() {
			So(err, ShouldBeNil)
			So(string(got), ShouldEqual, `{"a":1}`)
		})
	})

	Convey("When a value is overwritten", func() {
		So(b.Set(ctx, "k", []byte("one")), ShouldBeNil)
		So(b.Set(ctx, "k", []byte("two")), ShouldBeNil)
		got, err := b.Get(ctx, "k")

		Convey("Then the latest value wins", func() {
			So(err, ShouldBeNil)
			So(string(got), ShouldEqual, "two")
		})
	})

	Convey("When a key is removed", func() {
		So(b.Set(ctx, "k", []byte("v")), ShouldBeNil)
		So(b.Remove(ctx, "k"), ShouldBeNil)
		So(b.Remove(ctx, "never"), ShouldBeNil)
		_, err := b.Get(ctx, "k")

		Convey("Then it is gone", func() {
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory backend", t, func() {
		b := storage.NewMemoryBackend()
		backendContract(ctx, b)

		Convey("When it is marked unavailable", func() {
			b.SetUnavailable(true)
			err := b.Set(ctx, "k", []byte("v"))
			_, getErr := b.Get(ctx, "k")

			Convey("Then every operation fails", func() {
				So(errors.Is(err, storage.ErrUnavailable), ShouldBeTrue)
				So(errors.Is(getErr, storage.ErrUnavailable), ShouldBeTrue)
				So(storage.Reason(err), ShouldEqual, "unavailable")
			})
		})

		Convey("When a write succeeds", func() {
			So(b.Set(ctx, "k", []byte("v")), ShouldBeNil)

			Convey("Then it is counted", func() {
				So(b.Writes(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a memory backend with a quota", t, func() {
		b := storage.NewMemoryBackend(storage.WithQuota(8))
		So(b.Set(ctx, "a", []byte("1234")), ShouldBeNil)

		Convey("When a write exceeds the quota", func() {
			err := b.Set(ctx, "b", []byte("12345"))

			Convey("Then ErrQuotaExceeded is returned and nothing is stored", func() {
				So(errors.Is(err, storage.ErrQuotaExceeded), ShouldBeTrue)
				So(storage.Reason(err), ShouldEqual, "quota_exceeded")
				_, getErr := b.Get(ctx, "b")
				So(errors.Is(getErr, storage.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an existing key is replaced within the quota", func() {
			err := b.Set(ctx, "a", []byte("12345678"))

			Convey("Then the old value does not count against it", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory SQLite backend", t, func() {
		b, err := storage.OpenSQLite(ctx, ":memory:")
		So(err, ShouldBeNil)
		Reset(func() { _ = b.Close() })

		backendContract(ctx, b)

		Convey("When a value exceeds the size limit", func() {
			small, err := storage.OpenSQLite(ctx, ":memory:", storage.WithMaxValueBytes(4))
			So(err, ShouldBeNil)
			defer small.Close()
			err = small.Set(ctx, "k", []byte("too large"))

			Convey("Then ErrQuotaExceeded is returned", func() {
				So(errors.Is(err, storage.ErrQuotaExceeded), ShouldBeTrue)
			})
		})

		Convey("When the database is closed", func() {
			So(b.Close(), ShouldBeNil)
			err := b.Set(ctx, "k", []byte("v"))

			Convey("Then writes fail as unavailable", func() {
				So(errors.Is(err, storage.ErrUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given a file-backed SQLite backend", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "pulse.db")
		b, err := storage.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		So(b.Set(ctx, "skillpulse.ledger", []byte("doc")), ShouldBeNil)
		So(b.Close(), ShouldBeNil)

		Convey("When it is reopened", func() {
			again, err := storage.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer again.Close()
			got, err := again.Get(ctx, "skillpulse.ledger")

			Convey("Then the value survived", func() {
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "doc")
			})
		})
	})
}
