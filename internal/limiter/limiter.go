package limiter

import (
	"context"
	"errors"
)

// Limiter counts requests per key inside a fixed window.
type Limiter interface {
	// Allow records one request for key and reports whether it fits in the
	// current window.
	Allow(ctx context.Context, key string) (bool, error)
}

var ErrInvalidLimit = errors.New("limit must be positive")
