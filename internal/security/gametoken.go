package security

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"commentcascade/internal/models"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// tampered with or issued for another day's puzzle
var ErrInvalidToken = errors.New("invalid game token")

const (
	gameTokenTTL    = 48 * time.Hour
	gameTokenIssuer = "commentcascade"
)

// GameTokens signs the client-held game state so the server can stay
// stateless. Each puzzle date gets its own signing key.
type GameTokens struct {
	secret []byte
	now    func() time.Time
}

type gameClaims struct {
	Attempts int  `json:"attempts"`
	GameWon  bool `json:"gameWon"`
	jwt.RegisteredClaims
}

// NewGameTokens creates a token signer. An empty secret gets a random one,
// so tokens do not survive a restart.
func NewGameTokens(secret string) (*GameTokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate game secret: %w", err)
		}
	}
	return &GameTokens{secret: key, now: time.Now}, nil
}

// WithClock replaces the time source (tests)
func (g *GameTokens) WithClock(now func() time.Time) *GameTokens {
	g.now = now
	return g
}

func (g *GameTokens) dayKey(date string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, g.secret, nil, []byte("game-state:"+date))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive game key: %w", err)
	}
	return key, nil
}

// Issue signs state for the puzzle of date
func (g *GameTokens) Issue(date string, state models.GameState) (string, error) {
	key, err := g.dayKey(date)
	if err != nil {
		return "", err
	}

	now := g.now()
	claims := gameClaims{
		Attempts: state.Attempts,
		GameWon:  state.GameWon,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    gameTokenIssuer,
			Subject:   date,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(gameTokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign game token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token issued for date and returns its game state
func (g *GameTokens) Parse(date, token string) (models.GameState, error) {
	key, err := g.dayKey(date)
	if err != nil {
		return models.GameState{}, err
	}

	claims := &gameClaims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(gameTokenIssuer),
		jwt.WithSubject(date),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return models.GameState{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	state := models.GameState{Attempts: claims.Attempts, GameWon: claims.GameWon}
	if !state.Valid() {
		return models.GameState{}, fmt.Errorf("%w: attempts %d out of range", ErrInvalidToken, state.Attempts)
	}
	return state, nil
}
