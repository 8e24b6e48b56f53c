package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
)

// Store increments a counter key and returns the new count. The first
// increment of a key must arm the window expiry so counters reset on
// their own.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter enforces a fixed-window request quota per user and endpoint.
// The check and the increment are a single atomic store operation, so
// two concurrent calls against an exhausted window cannot both pass.
type Limiter struct {
	store  Store
	logger logging.Logger
}

// NewLimiter creates a rate limiter backed by the given store
func NewLimiter(store Store, logger logging.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// CheckAndIncrement admits or rejects one call. Admitted calls count
// exactly once against the window. If the store is unreachable the
// limiter fails open so a cache outage does not take lookups down.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID, endpoint string, maxRequests int, windowMinutes int) bool {
	key := fmt.Sprintf("rl:%s:%s", userID, endpoint)
	window := time.Duration(windowMinutes) * time.Minute

	count, err := l.store.Incr(ctx, key, window)
	if err != nil {
		l.logger.WithFields(logging.Fields{
			"user_id":  userID,
			"endpoint": endpoint,
			"error":    err,
		}).Warn("Rate limit store unavailable, allowing request")
		return true
	}

	if count > int64(maxRequests) {
		l.logger.WithFields(logging.Fields{
			"user_id":  userID,
			"endpoint": endpoint,
			"count":    count,
			"max":      maxRequests,
		}).Info("Rate limit exceeded")
		return false
	}

	return true
}
