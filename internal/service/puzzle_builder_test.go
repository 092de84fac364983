package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commentcascade/internal/models"
	"commentcascade/internal/redaction"
)

type fakeSource struct {
	posts      []models.Post
	replies    map[string][]models.Reply
	itemsErr   error
	repliesErr error
	block      bool

	categories []string
	replyIDs   []string
}

func (f *fakeSource) ListRecentItems(ctx context.Context, category string, limit int) ([]models.Post, error) {
	f.categories = append(f.categories, category)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.posts, nil
}

func (f *fakeSource) ListReplies(ctx context.Context, itemID string, limit int) ([]models.Reply, error) {
	f.replyIDs = append(f.replyIDs, itemID)
	if f.repliesErr != nil {
		return nil, f.repliesErr
	}
	replies := f.replies[itemID]
	if len(replies) > limit {
		replies = replies[:limit]
	}
	return replies, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Categories:        []string{"AskReddit", "tifu"},
		MinReplies:        6,
		ItemLimit:         10,
		ReplyLimit:        10,
		CommentsPerPuzzle: 5,
		Timeout:           time.Second,
	}
}

func replies(bodies ...string) []models.Reply {
	out := make([]models.Reply, len(bodies))
	for i, b := range bodies {
		out[i] = models.Reply{Body: b}
	}
	return out
}

func TestPuzzleBuilderBuildsLivePuzzle(t *testing.T) {
	source := &fakeSource{
		posts: []models.Post{
			{ID: "quiet", Title: "Quiet", ReplyCount: 2, Permalink: "/r/tifu/comments/quiet/q/"},
			{ID: "busy", Title: "Busy", ReplyCount: 6, Permalink: "/r/tifu/comments/busy/b/"},
			{ID: "busier", Title: "Busier", ReplyCount: 50, Permalink: "/r/tifu/comments/busier/b/"},
		},
		replies: map[string][]models.Reply{
			"busy": replies(
				"The first one is here",
				"[deleted]",
				"Second of the replies",
				"[removed]",
				"  ",
				"Third in a row",
				"Fourth for the thread",
				"Fifth and final",
				"Sixth is never used",
			),
		},
	}
	builder := NewPuzzleBuilder(source, redaction.NewDefaultEngine(), testBuilderConfig(), discardLogger(), nil).
		WithPicker(func(n int) int { return n - 1 })

	puzzle := builder.Build(context.Background())

	require.NotNil(t, puzzle)
	assert.False(t, puzzle.Fallback)
	assert.Equal(t, []string{"tifu"}, source.categories)
	assert.Equal(t, []string{"busy"}, source.replyIDs, "first post at the reply threshold wins")
	assert.Equal(t, "tifu", puzzle.Source)
	assert.Equal(t, "Busy", puzzle.Title)
	assert.Equal(t, "https://www.reddit.com/r/tifu/comments/busy/b/", puzzle.CorrectURL)
	assert.NotEmpty(t, puzzle.ID)

	assert.Equal(t, []string{
		"The first one is here",
		"Second of the replies",
		"Third in a row",
		"Fourth for the thread",
		"Fifth and final",
	}, puzzle.OriginalComments())

	for _, record := range puzzle.Records {
		assert.Equal(t, record.OriginalText, redaction.Restore(record))
	}
}

func TestPuzzleBuilderFallsBackToFirstPost(t *testing.T) {
	source := &fakeSource{
		posts: []models.Post{
			{ID: "a", ReplyCount: 1, Permalink: "/r/AskReddit/comments/a/x/"},
			{ID: "b", ReplyCount: 3, Permalink: "/r/AskReddit/comments/b/x/"},
		},
		replies: map[string][]models.Reply{
			"a": replies("Only one comment here"),
		},
	}
	builder := NewPuzzleBuilder(source, redaction.NewDefaultEngine(), testBuilderConfig(), discardLogger(), nil).
		WithPicker(func(int) int { return 0 })

	puzzle := builder.Build(context.Background())

	assert.False(t, puzzle.Fallback)
	assert.Equal(t, []string{"a"}, source.replyIDs)
	assert.Len(t, puzzle.Records, 1)
}

func TestPuzzleBuilderFallback(t *testing.T) {
	post := models.Post{ID: "p", ReplyCount: 10, Permalink: "/r/tifu/comments/p/x/"}

	tests := []struct {
		name   string
		source *fakeSource
	}{
		{
			name:   "empty item list",
			source: &fakeSource{},
		},
		{
			name:   "provider error listing items",
			source: &fakeSource{itemsErr: errors.New("connection refused")},
		},
		{
			name:   "no replies",
			source: &fakeSource{posts: []models.Post{post}},
		},
		{
			name: "only deleted replies",
			source: &fakeSource{
				posts:   []models.Post{post},
				replies: map[string][]models.Reply{"p": replies("[deleted]", "[removed]")},
			},
		},
		{
			name:   "provider error listing replies",
			source: &fakeSource{posts: []models.Post{post}, repliesErr: errors.New("503")},
		},
		{
			name:   "provider timeout",
			source: &fakeSource{block: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testBuilderConfig()
			cfg.Timeout = 20 * time.Millisecond
			builder := NewPuzzleBuilder(tt.source, redaction.NewDefaultEngine(), cfg, discardLogger(), nil)

			puzzle := builder.Build(context.Background())

			require.NotNil(t, puzzle)
			assert.True(t, puzzle.Fallback)
			assert.Equal(t, FallbackURL, puzzle.CorrectURL)
			assert.Len(t, puzzle.Records, 5)
		})
	}
}

func TestPuzzleBuilderNoCategories(t *testing.T) {
	cfg := testBuilderConfig()
	cfg.Categories = nil
	builder := NewPuzzleBuilder(&fakeSource{}, redaction.NewDefaultEngine(), cfg, discardLogger(), nil)

	_, err := builder.build(context.Background())
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestFailureCause(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNoItems, "no_items"},
		{ErrNoReplies, "no_replies"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "provider_error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, failureCause(tt.err))
		})
	}
}

func TestFallbackPuzzleIsPlayable(t *testing.T) {
	puzzle := FallbackPuzzle(redaction.NewDefaultEngine(), time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))

	assert.True(t, puzzle.Fallback)
	assert.Equal(t, FallbackURL, puzzle.CorrectURL)
	require.Len(t, puzzle.Records, len(fallbackComments))
	for i, record := range puzzle.Records {
		assert.Equal(t, fallbackComments[i], record.OriginalText)
		assert.NotEmpty(t, record.RemovedTokens)
		assert.Equal(t, len(record.RemovedTokens), redaction.CountPlaceholders(record.MaskedText))
		assert.Equal(t, record.OriginalText, redaction.Restore(record))
	}
}
