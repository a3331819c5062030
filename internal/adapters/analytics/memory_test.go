package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/featured/internal/domain/usage"
)

func TestMemoryEngine_QueryUsage(t *testing.T) {
	Convey("Given a memory engine on a mock clock", t, func() {
		now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
		clock := quartz.NewMock(t)
		clock.Set(now)

		engine := NewMemoryEngine(WithClock(clock))
		for i := 0; i < 6; i++ {
			engine.Append(usage.Event{
				Environment:  "production",
				Repository:   "acme/widget",
				Timestamp:    now.AddDate(0, 0, -i),
				Stargazers:   5000,
				Contributors: 42,
			})
		}
		ctx := context.Background()

		Convey("When querying with the default parameters", func() {
			rows, err := engine.QueryUsage(ctx, usage.DefaultParams("production"))

			Convey("Then the qualifying repository is returned", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, []usage.Row{{Repository: "acme/widget", Days: 6, Stars: 5000, Contributors: 42}})
			})
		})

		Convey("When the clock moves past the window", func() {
			clock.Advance(4 * 24 * time.Hour).MustWait(ctx)
			rows, err := engine.QueryUsage(ctx, usage.DefaultParams("production"))

			Convey("Then the repository no longer has enough active days", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When minStars is above every repository", func() {
			rows, err := engine.QueryUsage(ctx, usage.Params{Environment: "production", MinStars: 5000, Limit: 50})

			Convey("Then nothing qualifies", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When the limit is negative", func() {
			rows, err := engine.QueryUsage(ctx, usage.Params{Environment: "production", MinStars: 1000, Limit: -1})

			Convey("Then the engine reports a query failure", func() {
				So(rows, ShouldBeNil)
				So(errors.Is(err, ErrQuery), ShouldBeTrue)
				So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := engine.QueryUsage(cctx, usage.DefaultParams("production"))

			Convey("Then the engine reports a query failure", func() {
				So(errors.Is(err, ErrQuery), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a seeded engine on the real clock", t, func() {
		engine := NewMemoryEngine(WithEvents(usage.Event{
			Environment: "production",
			Repository:  "acme/once",
			Timestamp:   time.Now(),
			Stargazers:  9000,
		}))

		Convey("Then a single active day does not qualify", func() {
			rows, err := engine.QueryUsage(context.Background(), usage.DefaultParams("production"))
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}
