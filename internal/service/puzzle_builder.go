package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"commentcascade/internal/metrics"
	"commentcascade/internal/models"
	"commentcascade/internal/redaction"
	"commentcascade/internal/reddit"
)

var (
	// ErrNoItems is returned when a category has no recent posts
	ErrNoItems = errors.New("no items found")
	// ErrNoReplies is returned when the selected post has no usable comments
	ErrNoReplies = errors.New("no replies found")
)

// SourceProvider lists posts and their top-level replies
type SourceProvider interface {
	ListRecentItems(ctx context.Context, category string, limit int) ([]models.Post, error)
	ListReplies(ctx context.Context, itemID string, limit int) ([]models.Reply, error)
}

// BuilderConfig holds the tunables for puzzle construction
type BuilderConfig struct {
	Categories        []string
	MinReplies        int
	ItemLimit         int
	ReplyLimit        int
	CommentsPerPuzzle int
	Timeout           time.Duration
}

// PuzzleBuilder assembles a puzzle from live content, falling back to a
// hand-authored puzzle when anything goes wrong
type PuzzleBuilder struct {
	source  SourceProvider
	engine  *redaction.Engine
	cfg     BuilderConfig
	pick    func(n int) int
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPuzzleBuilder creates a new puzzle builder
func NewPuzzleBuilder(source SourceProvider, engine *redaction.Engine, cfg BuilderConfig, logger *slog.Logger, m *metrics.Metrics) *PuzzleBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommentsPerPuzzle < 1 {
		cfg.CommentsPerPuzzle = 5
	}
	if cfg.ItemLimit < 1 {
		cfg.ItemLimit = 10
	}
	if cfg.ReplyLimit < 1 {
		cfg.ReplyLimit = 10
	}
	return &PuzzleBuilder{
		source:  source,
		engine:  engine,
		cfg:     cfg,
		pick:    rand.IntN,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// WithPicker replaces the random category picker (tests)
func (b *PuzzleBuilder) WithPicker(pick func(n int) int) *PuzzleBuilder {
	b.pick = pick
	return b
}

// Build returns a puzzle and never fails. Any error building from live
// content is logged and answered with the fallback puzzle.
func (b *PuzzleBuilder) Build(ctx context.Context) *models.Puzzle {
	puzzle, err := b.build(ctx)
	if err != nil {
		cause := failureCause(err)
		b.logger.Warn("puzzle build failed, serving fallback", "cause", cause, "error", err)
		b.metrics.PuzzleBuilt(true, cause)
		return FallbackPuzzle(b.engine, b.now())
	}
	b.metrics.PuzzleBuilt(false, "")
	return puzzle
}

func (b *PuzzleBuilder) build(ctx context.Context) (*models.Puzzle, error) {
	if len(b.cfg.Categories) == 0 {
		return nil, ErrNoItems
	}
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	category := b.cfg.Categories[b.pick(len(b.cfg.Categories))]

	posts, err := b.source.ListRecentItems(ctx, category, b.cfg.ItemLimit)
	if err != nil {
		return nil, fmt.Errorf("list items in %s: %w", category, err)
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("category %s: %w", category, ErrNoItems)
	}

	post := selectPost(posts, b.cfg.MinReplies)
	b.logger.Debug("selected post", "category", category, "post_id", post.ID, "replies", post.ReplyCount)

	replies, err := b.source.ListReplies(ctx, post.ID, b.cfg.ReplyLimit)
	if err != nil {
		return nil, fmt.Errorf("list replies for %s: %w", post.ID, err)
	}

	bodies := usableBodies(replies, b.cfg.CommentsPerPuzzle)
	if len(bodies) == 0 {
		return nil, fmt.Errorf("post %s: %w", post.ID, ErrNoReplies)
	}

	records := make([]models.RedactionRecord, len(bodies))
	for i, body := range bodies {
		records[i] = b.engine.Redact(body)
	}

	return &models.Puzzle{
		ID:         uuid.NewString(),
		Source:     category,
		Title:      post.Title,
		CorrectURL: reddit.PostURL(post.Permalink),
		Records:    records,
		CreatedAt:  b.now().UTC(),
	}, nil
}

// selectPost picks the first post with enough replies, or the first post
func selectPost(posts []models.Post, minReplies int) models.Post {
	for _, p := range posts {
		if p.ReplyCount >= minReplies {
			return p
		}
	}
	return posts[0]
}

// usableBodies keeps up to n replies that still have text
func usableBodies(replies []models.Reply, n int) []string {
	bodies := make([]string, 0, n)
	for _, r := range replies {
		body := strings.TrimSpace(r.Body)
		if body == "" || body == "[deleted]" || body == "[removed]" {
			continue
		}
		bodies = append(bodies, r.Body)
		if len(bodies) == n {
			break
		}
	}
	return bodies
}

func failureCause(err error) string {
	switch {
	case errors.Is(err, ErrNoItems):
		return "no_items"
	case errors.Is(err, ErrNoReplies):
		return "no_replies"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}
