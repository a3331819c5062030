package analytics

import (
	"context"
	"sync"

	"github.com/coder/quartz"

	"github.com/okian/featured/internal/domain/usage"
)

// MemoryOption applies a configuration option to the MemoryEngine.
type MemoryOption func(*MemoryEngine)

// WithClock sets the clock used to anchor the trailing window.
func WithClock(c quartz.Clock) MemoryOption {
	return func(e *MemoryEngine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithEvents seeds the engine.
func WithEvents(events ...usage.Event) MemoryOption {
	return func(e *MemoryEngine) {
		e.events = append(e.events, events...)
	}
}

// MemoryEngine aggregates usage events held in process.
type MemoryEngine struct {
	mu     sync.RWMutex
	events []usage.Event
	clock  quartz.Clock
}

// NewMemoryEngine creates an empty MemoryEngine on the real clock.
func NewMemoryEngine(opts ...MemoryOption) *MemoryEngine {
	e := &MemoryEngine{clock: quartz.NewReal()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Append records events.
func (e *MemoryEngine) Append(events ...usage.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, events...)
}

// QueryUsage implements Engine.
func (e *MemoryEngine) QueryUsage(ctx context.Context, p usage.Params) ([]usage.Row, error) {
	const op = "analytics.memory.query_usage"
	if err := ctx.Err(); err != nil {
		return nil, queryError(op, err)
	}
	if p.Limit < 0 {
		return nil, queryError(op, ErrInvalidLimit)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return usage.Aggregate(e.events, p, e.clock.Now()), nil
}
