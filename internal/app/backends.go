package service

import (
	"context"
	"fmt"

	"github.com/okian/featured/internal/adapters/analytics"
	"github.com/okian/featured/internal/adapters/snapshot"
	"github.com/okian/featured/internal/config"
	"github.com/okian/featured/pkg/logger"
)

func noopClose() error { return nil }

// NewEngine builds the analytics engine selected by cfg.QueryBackend and the
// function that releases it.
func NewEngine(ctx context.Context, cfg *config.Config) (analytics.Engine, func() error, error) {
	switch cfg.QueryBackend {
	case config.BackendBigQuery:
		e, err := analytics.NewBigQueryEngine(ctx, cfg.ProjectID, cfg.UsageTable)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	case config.BackendPostgres:
		e, err := analytics.NewPostgresEngine(cfg.PostgresDSN, cfg.PostgresTable)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	case config.BackendMemory:
		return analytics.NewMemoryEngine(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown query_backend %q", config.ErrInvalidConfig, cfg.QueryBackend)
	}
}

// NewStore builds the snapshot store selected by cfg.StoreBackend and the
// function that releases it.
func NewStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		s, err := snapshot.NewFirestoreStore(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendRedis:
		client, err := snapshot.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		s := snapshot.NewRedisStore(client)
		return s, s.Close, nil
	case config.BackendMemory:
		return snapshot.NewMemoryStore(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store_backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}

// FromConfig wires a Service with the configured backends. Close on the
// returned Service releases them.
func FromConfig(ctx context.Context, cfg *config.Config, l logger.Logger) (*Service, error) {
	engine, closeEngine, err := NewEngine(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("query backend %s: %w", cfg.QueryBackend, err)
	}
	store, closeStore, err := NewStore(ctx, cfg)
	if err != nil {
		_ = closeEngine()
		return nil, fmt.Errorf("store backend %s: %w", cfg.StoreBackend, err)
	}

	l.Info(ctx, "backends ready",
		logger.String("query_backend", cfg.QueryBackend),
		logger.String("store_backend", cfg.StoreBackend),
		logger.String("environment", cfg.Environment),
	)

	return New(engine, store,
		WithEnvironment(cfg.Environment),
		WithDefaultParams(cfg.MinStars, cfg.Limit),
		WithLogger(l),
		WithCloser(closeEngine),
		WithCloser(closeStore),
	), nil
}
