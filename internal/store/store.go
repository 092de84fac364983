// Package store defines the key-value cache the daily puzzle lives in, with
// in-process and embedded backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backend that cannot serve requests (closed, unreachable)
var ErrUnavailable = errors.New("cache store unavailable")

// Store is a string key-value store with per-key expiry.
// Get reports found=false for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Purger is implemented by backends that need expired entries removed
// explicitly rather than by the backend itself
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
