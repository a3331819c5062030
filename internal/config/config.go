// Package config defines service configuration and its loader.
//
// Conventions:
// - New returns the defaults; Load layers file and environment on top.
// - Validation failures wrap ErrInvalidConfig, source failures ErrLoadConfig.
package config

import (
	"github.com/okian/featured/internal/domain/usage"
)

// Backend names.
const (
	BackendBigQuery  = "bigquery"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Environment is the deployment name. It filters usage events and names
	// the snapshot collection.
	Environment string `koanf:"environment"`

	// ProjectID is the Google Cloud project for BigQuery and Firestore.
	// Empty means detect from ambient credentials.
	ProjectID string `koanf:"project_id"`

	// QueryBackend selects the analytics engine: bigquery, postgres, memory.
	QueryBackend string `koanf:"query_backend"`

	// StoreBackend selects the snapshot store: firestore, redis, memory.
	StoreBackend string `koanf:"store_backend"`

	// UsageTable is the BigQuery wildcard table with daily usage partitions.
	UsageTable string `koanf:"usage_table"`

	PostgresDSN   string `koanf:"postgres_dsn"`
	PostgresTable string `koanf:"postgres_table"`

	// RedisURL accepts redis:// URLs or host:port.
	RedisURL string `koanf:"redis_url"`

	// MinStars and Limit are the default query thresholds.
	MinStars int `koanf:"min_stars"`
	Limit    int `koanf:"limit"`

	// FailOnPersistError makes the update endpoint answer 500 when the
	// snapshot write fails. Off, the failure is logged and the run reports OK.
	FailOnPersistError bool `koanf:"fail_on_persist_error"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		QueryBackend:  BackendBigQuery,
		StoreBackend:  BackendFirestore,
		UsageTable:    "contributors-img.repository_usage.repository_usage_*",
		PostgresTable: "repository_usage",
		MinStars:      usage.DefaultMinStars,
		Limit:         usage.DefaultLimit,
	}
}

// Params returns the default query parameters for the configured environment.
func (c *Config) Params() usage.Params {
	return usage.Params{Environment: c.Environment, MinStars: c.MinStars, Limit: c.Limit}
}
