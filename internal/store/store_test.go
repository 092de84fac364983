package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the get/set/expire contract every backend must meet
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "puzzle_2026-10-14", `{"id":"a"}`))
	value, found, err := s.Get(ctx, "puzzle_2026-10-14")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"a"}`, value)

	require.NoError(t, s.Set(ctx, "puzzle_2026-10-14", `{"id":"b"}`))
	value, _, err = s.Get(ctx, "puzzle_2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"b"}`, value)

	require.NoError(t, s.Expire(ctx, "puzzle_2026-10-14", 25*time.Hour))
	_, found, err = s.Get(ctx, "puzzle_2026-10-14")
	require.NoError(t, err)
	assert.True(t, found, "entry must survive a long expiry")

	assert.NoError(t, s.Expire(ctx, "missing", time.Hour), "expire on a missing key is a no-op")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = s.Get(canceled, "puzzle_2026-10-14")
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, s.Set(ctx, "puzzle_2026-10-14", "v"))
	require.NoError(t, s.Expire(ctx, "puzzle_2026-10-14", 25*time.Hour))

	clock.Advance(24 * time.Hour)
	_, found, _ := s.Get(ctx, "puzzle_2026-10-14")
	assert.True(t, found, "still live after one day")

	clock.Advance(time.Hour)
	_, found, _ = s.Get(ctx, "puzzle_2026-10-14")
	assert.False(t, found, "gone at 25h")

	removed, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestMemoryStoreSetClearsExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Expire(ctx, "k", time.Minute))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	clock.Advance(time.Hour)
	value, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", value)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrUnavailable)
	assert.ErrorIs(t, s.Expire(ctx, "k", time.Second), ErrUnavailable)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestBadgerStoreExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping badger TTL test in short mode")
	}
	ctx := context.Background()
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Expire(ctx, "k", time.Second))

	assert.Eventually(t, func() bool {
		_, found, err := s.Get(ctx, "k")
		return err == nil && !found
	}, 5*time.Second, 100*time.Millisecond)
}

func TestBadgerStoreClosed(t *testing.T) {
	s, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Set(context.Background(), "k", "v")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}

func TestOpenBadgerOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	require.NoError(t, s.Close())

	reopened, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}
