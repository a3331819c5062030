package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "FEATURED_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FEATURED_CONFIG is set
//  3. env (prefix FEATURED_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// FEATURED_MIN_STARS -> min_stars; underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a run depends on.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if strings.TrimSpace(c.Environment) == "" {
		return invalid("environment must not be empty")
	}

	switch c.QueryBackend {
	case BackendBigQuery, BackendMemory:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return invalid("postgres_dsn is required for the postgres query backend")
		}
	default:
		return invalid("unknown query_backend %q", c.QueryBackend)
	}

	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return invalid("redis_url is required for the redis store backend")
		}
	default:
		return invalid("unknown store_backend %q", c.StoreBackend)
	}
	return nil
}
