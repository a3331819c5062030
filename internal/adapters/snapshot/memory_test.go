package snapshot

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/featured/internal/domain/usage"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := NewMemoryStore()

		Convey("When reading before any write", func() {
			_, err := store.Get(ctx, "production")

			Convey("Then it reports not found", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When writing twice", func() {
			first := usage.Snapshot{Items: []usage.Row{{Repository: "acme/old", Days: 5, Stars: 2000}}}
			second := usage.Snapshot{Items: []usage.Row{{Repository: "acme/widget", Days: 6, Stars: 5000, Contributors: 42}}}
			So(store.Put(ctx, "production", first), ShouldBeNil)
			So(store.Put(ctx, "production", second), ShouldBeNil)

			Convey("Then the last write replaces the document", func() {
				got, err := store.Get(ctx, "production")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, second)
				So(store.Puts(), ShouldEqual, 2)
			})

			Convey("And other environments are untouched", func() {
				_, err := store.Get(ctx, "staging")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When writing an empty result", func() {
			So(store.Put(ctx, "production", usage.Snapshot{}), ShouldBeNil)

			Convey("Then the stored items are an empty list", func() {
				got, err := store.Get(ctx, "production")
				So(err, ShouldBeNil)
				So(got.Items, ShouldNotBeNil)
				So(got.Items, ShouldBeEmpty)
			})
		})

		Convey("When the caller mutates the written slice", func() {
			items := []usage.Row{{Repository: "acme/widget", Days: 6, Stars: 5000}}
			So(store.Put(ctx, "production", usage.Snapshot{Items: items}), ShouldBeNil)
			items[0].Stars = 1

			Convey("Then the stored copy is unaffected", func() {
				got, _ := store.Get(ctx, "production")
				So(got.Items[0].Stars, ShouldEqual, 5000)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the write fails with the persist kind", func() {
				err := store.Put(cctx, "production", usage.Snapshot{})
				So(errors.Is(err, ErrPersist), ShouldBeTrue)
			})
		})
	})
}
