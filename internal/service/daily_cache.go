package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"commentcascade/internal/metrics"
	"commentcascade/internal/models"
	"commentcascade/internal/store"
)

// DefaultPuzzleTTL outlives a day so there is never a gap between puzzles
const DefaultPuzzleTTL = 25 * time.Hour

var errEmptyPuzzle = errors.New("cached puzzle has no records")

type lookupResult int

const (
	lookupMiss lookupResult = iota
	lookupHit
	lookupUnavailable
)

// Builder produces a puzzle and never fails
type Builder interface {
	Build(ctx context.Context) *models.Puzzle
}

// Archiver keeps a copy of each newly built puzzle
type Archiver interface {
	Archive(ctx context.Context, puzzle *models.Puzzle) error
}

// DailyCacheOptions configures a DailyPuzzleCache
type DailyCacheOptions struct {
	TTL          time.Duration
	SingleFlight bool
	Archiver     Archiver
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// DailyPuzzleCache serves one puzzle per UTC calendar day
type DailyPuzzleCache struct {
	store    store.Store
	builder  Builder
	ttl      time.Duration
	group    *singleflight.Group
	archiver Archiver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewDailyPuzzleCache creates a new daily puzzle cache
func NewDailyPuzzleCache(s store.Store, builder Builder, opts DailyCacheOptions) *DailyPuzzleCache {
	c := &DailyPuzzleCache{
		store:    s,
		builder:  builder,
		ttl:      opts.TTL,
		archiver: opts.Archiver,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultPuzzleTTL
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if opts.SingleFlight {
		c.group = &singleflight.Group{}
	}
	return c
}

// CacheKey returns the store key for the puzzle of the given day
func CacheKey(day time.Time) string {
	return "puzzle_" + DateString(day)
}

// DateString formats a time as its UTC calendar date
func DateString(day time.Time) string {
	return day.UTC().Format(time.DateOnly)
}

// GetToday returns the puzzle for the day containing now, building and
// storing it on a miss. Store failures degrade to an uncached puzzle.
func (c *DailyPuzzleCache) GetToday(ctx context.Context, now time.Time) *models.Puzzle {
	key := CacheKey(now)

	puzzle, result := c.lookup(ctx, key)
	switch result {
	case lookupHit:
		return puzzle
	case lookupUnavailable:
		return c.buildUncached(ctx, now)
	}

	if c.group == nil {
		return c.buildAndStore(ctx, key, now)
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have stored it while this one waited.
		if puzzle, result := c.lookup(ctx, key); result == lookupHit {
			return puzzle, nil
		}
		return c.buildAndStore(ctx, key, now), nil
	})
	return v.(*models.Puzzle)
}

// Peek returns the stored puzzle for a day without building one
func (c *DailyPuzzleCache) Peek(ctx context.Context, day time.Time) (*models.Puzzle, bool, error) {
	raw, found, err := c.store.Get(ctx, CacheKey(day))
	if err != nil || !found {
		return nil, false, err
	}
	puzzle, err := decodePuzzle(raw)
	if err != nil {
		return nil, false, err
	}
	return puzzle, true, nil
}

// lookup treats a corrupt entry as a miss so it gets overwritten
func (c *DailyPuzzleCache) lookup(ctx context.Context, key string) (*models.Puzzle, lookupResult) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("puzzle cache unavailable", "key", key, "error", err)
		c.metrics.CacheLookup(metrics.CacheError)
		return nil, lookupUnavailable
	}
	if !found {
		c.metrics.CacheLookup(metrics.CacheMiss)
		return nil, lookupMiss
	}

	puzzle, err := decodePuzzle(raw)
	if err != nil {
		c.logger.Warn("discarding corrupt cached puzzle", "key", key, "error", err)
		c.metrics.CacheLookup(metrics.CacheCorrupt)
		return nil, lookupMiss
	}

	c.metrics.CacheLookup(metrics.CacheHit)
	return puzzle, lookupHit
}

func (c *DailyPuzzleCache) buildUncached(ctx context.Context, now time.Time) *models.Puzzle {
	puzzle := c.builder.Build(ctx)
	puzzle.Date = DateString(now)
	return puzzle
}

func (c *DailyPuzzleCache) buildAndStore(ctx context.Context, key string, now time.Time) *models.Puzzle {
	puzzle := c.buildUncached(ctx, now)

	payload, err := json.Marshal(puzzle)
	if err != nil {
		c.logger.Error("failed to encode puzzle", "key", key, "error", err)
		return puzzle
	}

	if err := c.store.Set(ctx, key, string(payload)); err != nil {
		c.logger.Warn("failed to cache puzzle, serving uncached", "key", key, "error", err)
		c.metrics.CacheWrite(false)
		return puzzle
	}
	if err := c.store.Expire(ctx, key, c.ttl); err != nil {
		c.logger.Warn("failed to set puzzle expiry", "key", key, "ttl", c.ttl, "error", err)
		c.metrics.CacheWrite(false)
		return puzzle
	}
	c.metrics.CacheWrite(true)
	c.logger.Info("cached new daily puzzle", "key", key, "puzzle_id", puzzle.ID, "fallback", puzzle.Fallback)

	if c.archiver != nil && !puzzle.Fallback {
		if err := c.archiver.Archive(ctx, puzzle); err != nil {
			c.logger.Warn("failed to archive puzzle", "key", key, "error", err)
		}
	}

	return puzzle
}

func decodePuzzle(raw string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	if err := json.Unmarshal([]byte(raw), &puzzle); err != nil {
		return nil, err
	}
	if len(puzzle.Records) == 0 {
		return nil, errEmptyPuzzle
	}
	return &puzzle, nil
}
