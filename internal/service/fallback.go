package service

import (
	"time"

	"commentcascade/internal/models"
	"commentcascade/internal/redaction"
)

// FallbackURL is the correct answer of the fallback puzzle
const FallbackURL = "https://www.reddit.com/r/tifu/comments/mock123/example_post/"

var fallbackComments = []string{
	"I can't believe the manager actually fired the entire team in front of everyone.",
	"This is the most ridiculous thing I've seen on this subreddit today.",
	"OP, you need to report this to the local authorities immediately.",
	"I read this story three times and I'm still confused.",
	"My friend did the exact same thing last week and got the same result.",
}

// FallbackPuzzle builds the hand-authored puzzle served when live content
// is unavailable. The comments go through the same engine as live ones.
func FallbackPuzzle(engine *redaction.Engine, now time.Time) *models.Puzzle {
	records := make([]models.RedactionRecord, len(fallbackComments))
	for i, text := range fallbackComments {
		records[i] = engine.Redact(text)
	}
	return &models.Puzzle{
		ID:         "fallback",
		Source:     "tifu",
		Title:      "Example post",
		CorrectURL: FallbackURL,
		Records:    records,
		Fallback:   true,
		CreatedAt:  now.UTC(),
	}
}
