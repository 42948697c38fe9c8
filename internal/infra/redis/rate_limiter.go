package redis

import (
	"context"
	"time"

	"press-subscription/internal/domain/ports/adapter"
)

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter. The window starts at the first hit.
type RateLimiter struct {
	counter windowCounter
}

func NewRateLimiter(counter windowCounter) *RateLimiter {
	return &RateLimiter{counter: counter}
}

// Allow reports whether another hit on key fits into limit. A non-positive
// limit disables the check.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	n, err := r.counter.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}
