package service

import (
	"errors"
	"fmt"

	"commentcascade/internal/models"
	"commentcascade/internal/redaction"
)

// ErrInvalidAttempts is returned for attempt counts outside [0, MaxAttempts]
var ErrInvalidAttempts = errors.New("invalid attempts number")

const (
	wordsPerAttempt = 2
	maxRevealWords  = 8
)

// WordsPerComment is how many redacted words each comment shows after the
// given number of wrong guesses
func WordsPerComment(attempts int) int {
	return min(attempts*wordsPerAttempt, maxRevealWords)
}

// RevealComments returns every comment of the puzzle revealed to the level
// earned by attempts. The same level applies to all comments.
func RevealComments(puzzle *models.Puzzle, attempts int) ([]string, error) {
	if attempts < 0 || attempts > models.MaxAttempts {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAttempts, attempts)
	}

	count := WordsPerComment(attempts)
	comments := make([]string, len(puzzle.Records))
	for i, record := range puzzle.Records {
		comments[i] = redaction.Reveal(record, count)
	}
	return comments, nil
}
