package snapshot

import (
	"errors"
	"fmt"
)

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound = errors.New("snapshot not found")
	ErrPersist  = errors.New("snapshot write failed")
	ErrRead     = errors.New("snapshot read failed")
)

func wrap(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
