package models

// MaxAttempts is the number of wrong guesses a player gets per puzzle
const MaxAttempts = 6

// GameState is the client-held progress for one player on one puzzle.
// The server never stores it.
type GameState struct {
	Attempts int  `json:"attempts"`
	GameWon  bool `json:"gameWon"`
}

// IsOver reports whether no more guesses are accepted
func (s GameState) IsOver() bool {
	return s.GameWon || s.Attempts >= MaxAttempts
}

// Valid reports whether the state is inside the attempt budget
func (s GameState) Valid() bool {
	return s.Attempts >= 0 && s.Attempts <= MaxAttempts
}
