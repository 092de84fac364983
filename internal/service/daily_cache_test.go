package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentcascade/internal/models"
	"commentcascade/internal/redaction"
	"commentcascade/internal/store"
)

type countingBuilder struct {
	builds   atomic.Int32
	fallback bool
	delay    time.Duration
}

func (b *countingBuilder) Build(ctx context.Context) *models.Puzzle {
	n := b.builds.Add(1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return &models.Puzzle{
		ID:         string(rune('a' + n - 1)),
		CorrectURL: "https://www.reddit.com/r/tifu/comments/x/y/",
		Fallback:   b.fallback,
		Records: []models.RedactionRecord{
			{MaskedText: "[___] cat", RemovedTokens: []string{"The"}, OriginalText: "The cat"},
		},
	}
}

// recordingStore wraps a memory store and can be told to fail
type recordingStore struct {
	*store.MemoryStore
	mu      sync.Mutex
	getErr  error
	setErr  error
	sets    []string
	expires map[string]time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemoryStore(), expires: map[string]time.Duration{}}
}

func (s *recordingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *recordingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.sets = append(s.sets, key)
	s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *recordingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	s.expires[key] = ttl
	s.mu.Unlock()
	return s.MemoryStore.Expire(ctx, key, ttl)
}

type recordingArchiver struct {
	archived []string
}

func (a *recordingArchiver) Archive(ctx context.Context, puzzle *models.Puzzle) error {
	a.archived = append(a.archived, puzzle.Date)
	return nil
}

var today = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"utc morning", today, "puzzle_2026-10-14"},
		{"late evening west of utc", time.Date(2026, 10, 13, 22, 0, 0, 0, time.FixedZone("EST", -5*3600)), "puzzle_2026-10-14"},
		{"early morning east of utc", time.Date(2026, 10, 15, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), "puzzle_2026-10-14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheKey(tt.now))
		})
	}
}

func TestDailyPuzzleCacheMissThenHit(t *testing.T) {
	s := newRecordingStore()
	builder := &countingBuilder{}
	cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{Logger: discardLogger()})
	ctx := context.Background()

	first := cache.GetToday(ctx, today)
	second := cache.GetToday(ctx, today.Add(10*time.Hour))

	assert.Equal(t, int32(1), builder.builds.Load())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2026-10-14", second.Date)
	assert.Equal(t, []string{"puzzle_2026-10-14"}, s.sets)
	assert.Equal(t, 25*time.Hour, s.expires["puzzle_2026-10-14"])
}

func TestDailyPuzzleCacheNewDayNewEntry(t *testing.T) {
	s := newRecordingStore()
	builder := &countingBuilder{}
	cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{Logger: discardLogger()})
	ctx := context.Background()

	first := cache.GetToday(ctx, today)
	next := cache.GetToday(ctx, today.Add(24*time.Hour))

	assert.Equal(t, int32(2), builder.builds.Load())
	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, "2026-10-15", next.Date)

	// Yesterday's entry is left to expire on its own.
	_, found, err := s.MemoryStore.Get(ctx, "puzzle_2026-10-14")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDailyPuzzleCacheStoreUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("get fails", func(t *testing.T) {
		s := newRecordingStore()
		s.getErr = store.ErrUnavailable
		builder := &countingBuilder{}
		cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{Logger: discardLogger()})

		puzzle := cache.GetToday(ctx, today)

		require.NotNil(t, puzzle)
		assert.Equal(t, "2026-10-14", puzzle.Date)
		assert.Empty(t, s.sets, "an unreachable store is not written to")
	})

	t.Run("set fails", func(t *testing.T) {
		s := newRecordingStore()
		s.setErr = errors.New("connection reset")
		builder := &countingBuilder{}
		cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{Logger: discardLogger()})

		first := cache.GetToday(ctx, today)
		second := cache.GetToday(ctx, today)

		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, int32(2), builder.builds.Load())
		assert.Empty(t, s.expires)
	})
}

func TestDailyPuzzleCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		value string
	}{
		{"not json", "{broken"},
		{"no records", `{"id":"x","records":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newRecordingStore()
			require.NoError(t, s.MemoryStore.Set(ctx, "puzzle_2026-10-14", tt.value))
			builder := &countingBuilder{}
			cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{Logger: discardLogger()})

			puzzle := cache.GetToday(ctx, today)
			require.Len(t, puzzle.Records, 1)
			assert.Equal(t, int32(1), builder.builds.Load())

			stored, found, err := cache.Peek(ctx, today)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, puzzle.ID, stored.ID)
		})
	}
}

func TestDailyPuzzleCacheSingleFlight(t *testing.T) {
	s := newRecordingStore()
	builder := &countingBuilder{delay: 50 * time.Millisecond}
	cache := NewDailyPuzzleCache(s, builder, DailyCacheOptions{SingleFlight: true, Logger: discardLogger()})

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = cache.GetToday(context.Background(), today).ID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builder.builds.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestDailyPuzzleCacheArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("live puzzle archived", func(t *testing.T) {
		archiver := &recordingArchiver{}
		cache := NewDailyPuzzleCache(newRecordingStore(), &countingBuilder{}, DailyCacheOptions{Archiver: archiver, Logger: discardLogger()})

		cache.GetToday(ctx, today)
		cache.GetToday(ctx, today)

		assert.Equal(t, []string{"2026-10-14"}, archiver.archived)
	})

	t.Run("fallback not archived", func(t *testing.T) {
		archiver := &recordingArchiver{}
		cache := NewDailyPuzzleCache(newRecordingStore(), &countingBuilder{fallback: true}, DailyCacheOptions{Archiver: archiver, Logger: discardLogger()})

		cache.GetToday(ctx, today)

		assert.Empty(t, archiver.archived)
	})
}

func TestDailyPuzzleCacheFallbackOnEmptySource(t *testing.T) {
	builder := NewPuzzleBuilder(&fakeSource{}, redaction.NewDefaultEngine(), testBuilderConfig(), discardLogger(), nil)
	cache := NewDailyPuzzleCache(newRecordingStore(), builder, DailyCacheOptions{Logger: discardLogger()})

	puzzle := cache.GetToday(context.Background(), today)

	assert.Equal(t, FallbackURL, puzzle.CorrectURL)
	view := puzzle.View()
	assert.Len(t, view.Comments, 5)
	assert.Len(t, view.RevealedWords, 5)
}
