package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"commentcascade/internal/database"
)

// CacheRepository stores cache entries in the puzzle_cache table.
// Expiry is kept as unix milliseconds; NULL means the entry never expires.
type CacheRepository struct {
	db  database.DBTX
	now func() time.Time
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(db database.DBTX) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used for expiry checks
func (r *CacheRepository) WithClock(now func() time.Time) *CacheRepository {
	r.now = now
	return r
}

// Get returns the live value for key
func (r *CacheRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	query := `SELECT payload FROM puzzle_cache WHERE cache_key = ? AND (expires_at IS NULL OR expires_at > ?)`
	err := r.db.QueryRowContext(ctx, query, key, r.now().UnixMilli()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}
	return payload, true, nil
}

// Set writes value for key and clears any expiry
func (r *CacheRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertCacheEntry(), key, value); err != nil {
		return fmt.Errorf("failed to set cache entry %s: %w", key, err)
	}
	return nil
}

// Expire sets the entry to expire ttl from now
func (r *CacheRepository) Expire(ctx context.Context, key string, ttl time.Duration) error {
	query := `UPDATE puzzle_cache SET expires_at = ? WHERE cache_key = ?`
	if _, err := r.db.ExecContext(ctx, query, r.now().Add(ttl).UnixMilli(), key); err != nil {
		return fmt.Errorf("failed to expire cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes entries whose expiry has passed
func (r *CacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM puzzle_cache WHERE expires_at IS NOT NULL AND expires_at <= ?`
	result, err := r.db.ExecContext(ctx, query, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return result.RowsAffected()
}
