package service

import (
	"errors"
	"strings"

	"commentcascade/internal/models"
)

// ErrGameOver is returned when a guess arrives after the game has ended
var ErrGameOver = errors.New("game is already over")

// GuessResult is the outcome of one guess
type GuessResult struct {
	Correct  bool
	State    models.GameState
	Comments []string
	// CorrectURL is only set once the game is over
	CorrectURL string
}

// NormalizeURL reduces a post URL to a comparable form: no scheme, no
// leading www., no trailing slash and a lowercase host
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	lower := strings.ToLower(u)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			u = u[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(strings.ToLower(u), "www.") {
		u = u[len("www."):]
	}
	u = strings.TrimSuffix(u, "/")

	host, path, found := strings.Cut(u, "/")
	host = strings.ToLower(host)
	if !found {
		return host
	}
	return host + "/" + path
}

// Guess applies one guess to the client's game state. Wrong guesses cost an
// attempt and reveal more words; a win is final.
func Guess(puzzle *models.Puzzle, state models.GameState, guess string) (GuessResult, error) {
	if !state.Valid() {
		return GuessResult{}, ErrInvalidAttempts
	}
	if state.IsOver() {
		return GuessResult{}, ErrGameOver
	}

	result := GuessResult{State: state}
	if NormalizeURL(guess) == NormalizeURL(puzzle.CorrectURL) {
		result.Correct = true
		result.State.GameWon = true
	} else {
		result.State.Attempts++
	}

	if result.State.IsOver() {
		result.Comments = puzzle.OriginalComments()
		result.CorrectURL = puzzle.CorrectURL
		return result, nil
	}

	comments, err := RevealComments(puzzle, result.State.Attempts)
	if err != nil {
		return GuessResult{}, err
	}
	result.Comments = comments
	return result, nil
}
