// Package analytics runs the featured-repository aggregation against an
// analytical backend.
package analytics

import (
	"context"

	"github.com/okian/featured/internal/domain/usage"
)

// Engine executes the usage aggregation. Implementations return rows already
// filtered, ordered and truncated per usage.Rank semantics.
type Engine interface {
	QueryUsage(ctx context.Context, p usage.Params) ([]usage.Row, error)
}
