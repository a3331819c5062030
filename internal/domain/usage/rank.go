package usage

import (
	"sort"
	"time"
)

// Window returns the first and last calendar dates (UTC, truncated to
// midnight) covered by the trailing window ending on now.
func Window(now time.Time) (from, to time.Time) {
	y, m, d := now.UTC().Date()
	to = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from = to.AddDate(0, 0, -WindowDays)
	return from, to
}

// Aggregate groups events of p.Environment that fall inside the window
// ending on now, then applies Rank. Events from other environments are ignored.
func Aggregate(events []Event, p Params, now time.Time) []Row {
	from, to := Window(now)

	type acc struct {
		days         map[time.Time]struct{}
		stars        int
		contributors int
	}
	byRepo := make(map[string]*acc)

	for _, e := range events {
		if e.Environment != p.Environment {
			continue
		}
		y, m, d := e.Timestamp.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if day.Before(from) || day.After(to) {
			continue
		}
		a, ok := byRepo[e.Repository]
		if !ok {
			a = &acc{days: make(map[time.Time]struct{}), stars: e.Stargazers, contributors: e.Contributors}
			byRepo[e.Repository] = a
		}
		a.days[day] = struct{}{}
		if e.Stargazers > a.stars {
			a.stars = e.Stargazers
		}
		if e.Contributors > a.contributors {
			a.contributors = e.Contributors
		}
	}

	rows := make([]Row, 0, len(byRepo))
	for repo, a := range byRepo {
		rows = append(rows, Row{
			Repository:   repo,
			Days:         len(a.days),
			Stars:        a.stars,
			Contributors: a.contributors,
		})
	}
	return Rank(rows, p.MinStars, p.Limit)
}

// Rank filters per-repository totals by the featured thresholds, orders
// them by stars then contributors (both descending) and truncates to limit.
// Repository name breaks remaining ties so output is deterministic.
// A negative limit means no truncation; callers that need SQL semantics
// reject it before calling.
func Rank(rows []Row, minStars, limit int) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Days >= MinActiveDays && r.Stars > minStars {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stars != out[j].Stars {
			return out[i].Stars > out[j].Stars
		}
		if out[i].Contributors != out[j].Contributors {
			return out[i].Contributors > out[j].Contributors
		}
		return out[i].Repository < out[j].Repository
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Ordered reports whether rows satisfy the featured ordering.
func Ordered(rows []Row) bool {
	for i := 1; i < len(rows); i++ {
		a, b := rows[i-1], rows[i]
		if a.Stars < b.Stars {
			return false
		}
		if a.Stars == b.Stars && a.Contributors < b.Contributors {
			return false
		}
	}
	return true
}
