// Package usage contains the featured-repository domain types and the
// ranking rules shared by every analytics backend.
package usage

import "time"

// Default query parameters.
const (
	DefaultMinStars = 1000
	DefaultLimit    = 50

	// MinActiveDays is the number of distinct active days a repository needs
	// inside the window to be featured.
	MinActiveDays = 5

	// WindowDays is the trailing lookback. The window spans WindowDays+1
	// calendar dates: today and the WindowDays dates before it.
	WindowDays = 7

	// DocumentKey names the snapshot document inside an environment collection.
	DocumentKey = "featured_repositories"
)

// Row is one ranked repository. Field names are identical across JSON,
// BigQuery, Firestore and SQL so the snapshot document matches the query output.
type Row struct {
	Repository   string `json:"repository"   bigquery:"repository"   firestore:"repository"   db:"repository"`
	Days         int    `json:"days"         bigquery:"days"         firestore:"days"         db:"days"`
	Stars        int    `json:"stars"        bigquery:"stars"        firestore:"stars"        db:"stars"`
	Contributors int    `json:"contributors" bigquery:"contributors" firestore:"contributors" db:"contributors"`
}

// Snapshot is the persisted featured list for an environment.
type Snapshot struct {
	Items []Row `json:"items" firestore:"items"`
}

// Params drives a single aggregation.
type Params struct {
	Environment string
	MinStars    int
	Limit       int
}

// DefaultParams returns Params for env with the default thresholds.
func DefaultParams(env string) Params {
	return Params{Environment: env, MinStars: DefaultMinStars, Limit: DefaultLimit}
}

// Event is one usage sample as recorded in the telemetry table.
type Event struct {
	Environment  string
	Repository   string
	Timestamp    time.Time
	Stargazers   int
	Contributors int
}
