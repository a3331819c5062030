// Package snapshot persists the featured-repository snapshot of each
// environment.
package snapshot

import (
	"context"

	"github.com/okian/featured/internal/domain/usage"
)

// Store replaces and reads the single featured snapshot of an environment.
type Store interface {
	// Put overwrites the snapshot for environment. No merge, no version check.
	Put(ctx context.Context, environment string, s usage.Snapshot) error

	// Get returns the stored snapshot.
	// Returns ErrNotFound if nothing has been written yet.
	Get(ctx context.Context, environment string) (usage.Snapshot, error)
}

// normalize guarantees a non-nil item list so documents always carry an
// items array.
func normalize(s usage.Snapshot) usage.Snapshot {
	items := make([]usage.Row, len(s.Items))
	copy(items, s.Items)
	return usage.Snapshot{Items: items}
}
