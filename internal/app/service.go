// Package service runs the featured-repository update: one aggregation query
// followed by one snapshot overwrite.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/okian/featured/internal/adapters/analytics"
	"github.com/okian/featured/internal/adapters/snapshot"
	"github.com/okian/featured/internal/domain/usage"
	"github.com/okian/featured/pkg/logger"
	"github.com/okian/featured/pkg/metrics"
)

// Error kinds callers branch on.
var (
	ErrQuery    = analytics.ErrQuery
	ErrPersist  = snapshot.ErrPersist
	ErrNotFound = snapshot.ErrNotFound
)

// Overrides replaces the configured thresholds for one run. Nil keeps the
// configured value.
type Overrides struct {
	MinStars *int
	Limit    *int
}

// RunResult describes one update.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Environment string        `json:"environment"`
	Params      usage.Params  `json:"-"`
	Rows        []usage.Row   `json:"rows"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Persisted   bool          `json:"persisted"`
}

// Service implements the dependencies of the HTTP API and the CLI.
type Service struct {
	engine analytics.Engine
	store  snapshot.Store

	environment string
	minStars    int
	limit       int

	clock    quartz.Clock
	newRunID func() string
	logger   logger.Logger

	runs            atomic.Int64
	queryFailures   atomic.Int64
	persistFailures atomic.Int64
	last            atomic.Pointer[RunResult]

	closeOnce sync.Once
	closers   []func() error
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEnvironment sets the deployment name used as query filter and
// snapshot collection.
func WithEnvironment(env string) Option {
	return func(s *Service) {
		s.environment = env
	}
}

// WithDefaultParams sets the thresholds used when a run has no overrides.
func WithDefaultParams(minStars, limit int) Option {
	return func(s *Service) {
		s.minStars = minStars
		s.limit = limit
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for run timing.
func WithClock(c quartz.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRunIDFunc sets the run id generator.
func WithRunIDFunc(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newRunID = f
		}
	}
}

// WithCloser registers a function run by Close, e.g. a backend client Close.
func WithCloser(f func() error) Option {
	return func(s *Service) {
		if f != nil {
			s.closers = append(s.closers, f)
		}
	}
}

// New constructs a Service around an engine and a store.
func New(engine analytics.Engine, store snapshot.Store, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		store:    store,
		minStars: usage.DefaultMinStars,
		limit:    usage.DefaultLimit,
		clock:    quartz.NewReal(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("featured")
	}
	return s
}

// Environment returns the deployment name the service runs for.
func (s *Service) Environment() string { return s.environment }

func (s *Service) params(o Overrides) usage.Params {
	p := usage.Params{Environment: s.environment, MinStars: s.minStars, Limit: s.limit}
	if o.MinStars != nil {
		p.MinStars = *o.MinStars
	}
	if o.Limit != nil {
		p.Limit = *o.Limit
	}
	return p
}

// UpdateFeatured queries usage and overwrites the snapshot.
//
// A query failure returns an error wrapping ErrQuery and the store is not
// touched. A write failure returns the full result together with an error
// wrapping ErrPersist; callers decide whether that fails the run.
func (s *Service) UpdateFeatured(ctx context.Context, o Overrides) (RunResult, error) {
	res := RunResult{
		RunID:       s.newRunID(),
		Environment: s.environment,
		Params:      s.params(o),
		StartedAt:   s.clock.Now(),
	}
	s.runs.Add(1)
	log := s.logger
	runField := logger.String("run_id", res.RunID)

	log.Info(ctx, "updating featured repositories",
		runField,
		logger.String("environment", res.Environment),
		logger.Int("min_stars", res.Params.MinStars),
		logger.Int("limit", res.Params.Limit),
	)

	queryStart := s.clock.Now()
	rows, err := s.engine.QueryUsage(ctx, res.Params)
	metrics.RecordQuery(s.clock.Since(queryStart), len(rows), err)
	if err != nil {
		s.queryFailures.Add(1)
		res.Duration = s.clock.Since(res.StartedAt)
		s.last.Store(&res)
		metrics.RecordRun(metrics.OutcomeQueryFailed, res.Duration)
		log.Error(ctx, "usage query failed", runField, logger.Error(err))
		if !errors.Is(err, ErrQuery) {
			err = fmt.Errorf("%w: %w", ErrQuery, err)
		}
		return res, err
	}
	if rows == nil {
		rows = []usage.Row{}
	}
	res.Rows = rows

	for _, row := range rows {
		log.Info(ctx, "featured repository",
			runField,
			logger.String("repository", row.Repository),
			logger.Int("days", row.Days),
			logger.Int("stars", row.Stars),
			logger.Int("contributors", row.Contributors),
		)
	}

	writeStart := s.clock.Now()
	err = s.store.Put(ctx, s.environment, usage.Snapshot{Items: rows})
	metrics.RecordStoreWrite(s.clock.Since(writeStart), s.clock.Now(), err)
	res.Duration = s.clock.Since(res.StartedAt)
	if err != nil {
		s.persistFailures.Add(1)
		s.last.Store(&res)
		metrics.RecordRun(metrics.OutcomePersistFailed, res.Duration)
		log.Error(ctx, "featured snapshot write failed", runField, logger.Int("rows", len(rows)), logger.Error(err))
		if !errors.Is(err, ErrPersist) {
			err = fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return res, err
	}
	res.Persisted = true
	s.last.Store(&res)
	metrics.RecordRun(metrics.OutcomeSuccess, res.Duration)

	log.Info(ctx, "featured repositories updated",
		runField,
		logger.Int("rows", len(rows)),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}

// Featured returns the stored snapshot of the service environment.
func (s *Service) Featured(ctx context.Context) (usage.Snapshot, error) {
	return s.store.Get(ctx, s.environment)
}

// GetStats returns service counters for monitoring.
func (s *Service) GetStats() map[string]any {
	stats := map[string]any{
		"environment":     s.environment,
		"minStars":        s.minStars,
		"limit":           s.limit,
		"runs":            s.runs.Load(),
		"queryFailures":   s.queryFailures.Load(),
		"persistFailures": s.persistFailures.Load(),
	}
	if last := s.last.Load(); last != nil {
		stats["lastRunId"] = last.RunID
		stats["lastRunAt"] = last.StartedAt.UTC().Format(time.RFC3339)
		stats["lastRunRows"] = len(last.Rows)
		stats["lastRunPersisted"] = last.Persisted
	}
	return stats
}

// Close runs the registered closers once and joins their errors.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		errs := make([]error, 0, len(s.closers))
		for i := len(s.closers) - 1; i >= 0; i-- {
			errs = append(errs, s.closers[i]())
		}
		err = errors.Join(errs...)
	})
	return err
}
