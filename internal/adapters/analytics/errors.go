package analytics

import (
	"errors"
	"fmt"
)

// Sentinel kinds for analytics errors.
var (
	ErrQuery        = errors.New("usage query failed")
	ErrInvalidLimit = errors.New("limit must not be negative")
)

func queryError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}
