package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"commentcascade/internal/metrics"
	"commentcascade/internal/models"
	"commentcascade/internal/security"
	"commentcascade/internal/service"
)

// DailyPuzzles returns the puzzle of the day containing now
type DailyPuzzles interface {
	GetToday(ctx context.Context, now time.Time) *models.Puzzle
}

// PuzzleHandler handles the puzzle, reveal and guess endpoints
type PuzzleHandler struct {
	puzzles DailyPuzzles
	tokens  *security.GameTokens
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzles DailyPuzzles, tokens *security.GameTokens, logger *slog.Logger, m *metrics.Metrics) *PuzzleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PuzzleHandler{
		puzzles: puzzles,
		tokens:  tokens,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

// WithClock replaces the time source (tests)
func (h *PuzzleHandler) WithClock(now func() time.Time) *PuzzleHandler {
	h.now = now
	return h
}

type revealRequest struct {
	Attempts json.RawMessage `json:"attempts"`
}

type revealResponse struct {
	Comments []string `json:"comments"`
}

type guessRequest struct {
	Guess string `json:"guess"`
	Token string `json:"token"`
}

type guessResponse struct {
	Correct     bool     `json:"correct"`
	Attempts    int      `json:"attempts"`
	MaxAttempts int      `json:"maxAttempts"`
	GameWon     bool     `json:"gameWon"`
	GameOver    bool     `json:"gameOver"`
	Comments    []string `json:"comments"`
	Token       string   `json:"token"`
	CorrectURL  string   `json:"correctUrl,omitempty"`
}

// GetPuzzle returns today's puzzle view
func (h *PuzzleHandler) GetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzle := h.puzzles.GetToday(r.Context(), h.now())
	if puzzle == nil {
		respondWithError(w, http.StatusInternalServerError, ErrPuzzleUnavailable, "Puzzle source returned nothing", errors.New("nil puzzle"))
		return
	}

	respondWithJSON(w, http.StatusOK, puzzle.View())
}

// Reveal returns today's comments revealed for the attempt count in the body.
// The body is validated before the puzzle is looked up.
func (h *PuzzleHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.RevealRequest("400")
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	attempts, ok := parseAttempts(req.Attempts)
	if !ok {
		h.metrics.RevealRequest("400")
		respondWithError(w, http.StatusBadRequest, ErrInvalidAttempts, "", nil)
		return
	}

	puzzle := h.puzzles.GetToday(r.Context(), h.now())
	if puzzle == nil {
		h.metrics.RevealRequest("500")
		respondWithError(w, http.StatusInternalServerError, ErrRevealFailed, "Puzzle source returned nothing", errors.New("nil puzzle"))
		return
	}

	comments, err := service.RevealComments(puzzle, attempts)
	if err != nil {
		h.metrics.RevealRequest("500")
		respondWithError(w, http.StatusInternalServerError, ErrRevealFailed, "Error revealing comments", err)
		return
	}

	h.metrics.RevealRequest("200")
	respondWithJSON(w, http.StatusOK, revealResponse{Comments: comments})
}

// Guess checks a guessed post URL against today's puzzle. Game progress
// travels in a signed token issued with every response.
func (h *PuzzleHandler) Guess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.metrics.Guess("invalid")
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	if req.Guess == "" {
		h.metrics.Guess("invalid")
		respondWithError(w, http.StatusBadRequest, ErrMissingGuess, "", nil)
		return
	}

	now := h.now()
	date := service.DateString(now)

	state := models.GameState{}
	if req.Token != "" {
		parsed, err := h.tokens.Parse(date, req.Token)
		if err != nil {
			h.metrics.Guess("invalid")
			h.logger.Info("rejected game token", "error", err, "request_id", security.RequestIDFrom(r.Context()))
			respondWithError(w, http.StatusBadRequest, ErrInvalidGameToken, "", nil)
			return
		}
		state = parsed
	}
	if state.IsOver() {
		h.metrics.Guess("over")
		respondWithError(w, http.StatusConflict, ErrGameOver, "", nil)
		return
	}

	puzzle := h.puzzles.GetToday(r.Context(), now)
	if puzzle == nil {
		respondWithError(w, http.StatusInternalServerError, ErrPuzzleUnavailable, "Puzzle source returned nothing", errors.New("nil puzzle"))
		return
	}

	result, err := service.Guess(puzzle, state, req.Guess)
	if errors.Is(err, service.ErrGameOver) {
		h.metrics.Guess("over")
		respondWithError(w, http.StatusConflict, ErrGameOver, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error evaluating guess", err)
		return
	}

	token, err := h.tokens.Issue(date, result.State)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing game token", err)
		return
	}

	if result.Correct {
		h.metrics.Guess("correct")
	} else {
		h.metrics.Guess("wrong")
	}

	respondWithJSON(w, http.StatusOK, guessResponse{
		Correct:     result.Correct,
		Attempts:    result.State.Attempts,
		MaxAttempts: models.MaxAttempts,
		GameWon:     result.State.GameWon,
		GameOver:    result.State.IsOver(),
		Comments:    result.Comments,
		Token:       token,
		CorrectURL:  result.CorrectURL,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// parseAttempts accepts only a JSON number holding an integer in range.
// Quoted numbers, fractions, null and missing values are rejected.
func parseAttempts(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	if f < 0 || f > models.MaxAttempts {
		return 0, false
	}
	return int(f), true
}
