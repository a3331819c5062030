package usage

import (
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func dailyEvents(env, repo string, start time.Time, days, stars, contributors int) []Event {
	events := make([]Event, 0, days)
	for i := 0; i < days; i++ {
		events = append(events, Event{
			Environment:  env,
			Repository:   repo,
			Timestamp:    start.AddDate(0, 0, -i).Add(3 * time.Hour),
			Stargazers:   stars,
			Contributors: contributors,
		})
	}
	return events
}

func TestWindow(t *testing.T) {
	Convey("Given a time late in the day", t, func() {
		now := time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC)

		Convey("Then the window covers today and the seven dates before", func() {
			from, to := Window(now)
			So(to, ShouldEqual, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
			So(from, ShouldEqual, time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC))
		})
	})

	Convey("Given a non-UTC time", t, func() {
		loc := time.FixedZone("UTC+9", 9*60*60)
		now := time.Date(2026, 10, 15, 2, 0, 0, 0, loc)

		Convey("Then dates are computed in UTC", func() {
			_, to := Window(now)
			So(to, ShouldEqual, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given per-repository totals", t, func() {
		rows := []Row{
			{Repository: "a/low-stars", Days: 7, Stars: 1000, Contributors: 10},
			{Repository: "a/few-days", Days: 4, Stars: 9000, Contributors: 10},
			{Repository: "a/tie-small", Days: 5, Stars: 3000, Contributors: 5},
			{Repository: "a/tie-big", Days: 6, Stars: 3000, Contributors: 50},
			{Repository: "a/top", Days: 8, Stars: 7000, Contributors: 1},
		}

		Convey("When ranking with the default thresholds", func() {
			out := Rank(rows, DefaultMinStars, DefaultLimit)

			Convey("Then only qualifying rows remain", func() {
				So(len(out), ShouldEqual, 3)
				for _, r := range out {
					So(r.Days, ShouldBeGreaterThanOrEqualTo, MinActiveDays)
					So(r.Stars, ShouldBeGreaterThan, DefaultMinStars)
				}
			})

			Convey("And they are ordered by stars then contributors", func() {
				So(out[0].Repository, ShouldEqual, "a/top")
				So(out[1].Repository, ShouldEqual, "a/tie-big")
				So(out[2].Repository, ShouldEqual, "a/tie-small")
				So(Ordered(out), ShouldBeTrue)
			})
		})

		Convey("When ranking with a small limit", func() {
			out := Rank(rows, DefaultMinStars, 2)

			Convey("Then the output is truncated", func() {
				So(len(out), ShouldEqual, 2)
				So(out[0].Repository, ShouldEqual, "a/top")
			})
		})

		Convey("When limit is zero", func() {
			So(Rank(rows, DefaultMinStars, 0), ShouldBeEmpty)
		})

		Convey("When the input is not modified", func() {
			before := fmt.Sprint(rows)
			_ = Rank(rows, 0, 1)
			So(fmt.Sprint(rows), ShouldEqual, before)
		})
	})
}

func TestAggregate(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	Convey("Given one qualifying repository", t, func() {
		events := dailyEvents("production", "acme/widget", now, 6, 5000, 42)
		// lower samples must not win the max
		events = append(events, Event{Environment: "production", Repository: "acme/widget", Timestamp: now, Stargazers: 4000, Contributors: 40})

		Convey("Then the snapshot holds exactly that row", func() {
			out := Aggregate(events, DefaultParams("production"), now)
			So(out, ShouldResemble, []Row{{Repository: "acme/widget", Days: 6, Stars: 5000, Contributors: 42}})
		})
	})

	Convey("Given events from another environment", t, func() {
		events := dailyEvents("staging", "acme/widget", now, 6, 5000, 42)

		Convey("Then they are ignored", func() {
			So(Aggregate(events, DefaultParams("production"), now), ShouldBeEmpty)
		})
	})

	Convey("Given events outside the trailing window", t, func() {
		// -3..-8: five dates inside the window, one before it
		edge := dailyEvents("production", "acme/edge", now.AddDate(0, 0, -3), 6, 5000, 1)
		// -4..-9: four dates inside the window, two before it
		old := dailyEvents("production", "acme/old", now.AddDate(0, 0, -4), 6, 5000, 1)

		Convey("Then only dates inside the window count as active", func() {
			out := Aggregate(append(edge, old...), DefaultParams("production"), now)
			So(out, ShouldResemble, []Row{{Repository: "acme/edge", Days: 5, Stars: 5000, Contributors: 1}})
		})
	})

	Convey("Given several samples on the same date", t, func() {
		var events []Event
		for h := 0; h < 10; h++ {
			events = append(events, Event{Environment: "production", Repository: "acme/busy", Timestamp: now.Add(-time.Duration(h) * time.Minute), Stargazers: 2000, Contributors: 3})
		}

		Convey("Then they count as one active day", func() {
			So(Aggregate(events, Params{Environment: "production", MinStars: 0, Limit: 10}, now), ShouldBeEmpty)
		})
	})

	Convey("Given many qualifying repositories", t, func() {
		var events []Event
		for i := 0; i < 80; i++ {
			events = append(events, dailyEvents("production", fmt.Sprintf("org/repo-%02d", i), now, 5, 1001+i*10, i%7)...)
		}

		Convey("Then the output never exceeds the limit and stays ordered", func() {
			out := Aggregate(events, DefaultParams("production"), now)
			So(len(out), ShouldEqual, DefaultLimit)
			So(Ordered(out), ShouldBeTrue)
			So(out[0].Repository, ShouldEqual, "org/repo-79")
		})
	})
}

func TestOrdered(t *testing.T) {
	Convey("Given rows out of order", t, func() {
		So(Ordered([]Row{{Stars: 1}, {Stars: 2}}), ShouldBeFalse)
		So(Ordered([]Row{{Stars: 2, Contributors: 1}, {Stars: 2, Contributors: 3}}), ShouldBeFalse)
	})

	Convey("Given rows in order", t, func() {
		So(Ordered(nil), ShouldBeTrue)
		So(Ordered([]Row{{Stars: 2, Contributors: 3}, {Stars: 2, Contributors: 3}, {Stars: 1}}), ShouldBeTrue)
	})
}
