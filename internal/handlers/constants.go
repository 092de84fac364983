package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrInvalidAttempts     = "Invalid attempts number"
	ErrMissingGuess        = "Guess is required"
	ErrInvalidGameToken    = "Invalid game token"
	ErrGameOver            = "Game is already over"
	ErrTooManyRequests     = "Too many requests"
	ErrPuzzleUnavailable   = "Failed to fetch puzzle data."
	ErrRevealFailed        = "Failed to reveal comments."
	ErrInternalServerError = "Internal server error"

	maxBodyBytes = 4 << 10
)
