package models

import (
	"encoding/json"
	"testing"
)

func TestGameStateIsOver(t *testing.T) {
	tests := []struct {
		name  string
		state GameState
		want  bool
	}{
		{
			name:  "fresh game",
			state: GameState{},
			want:  false,
		},
		{
			name:  "one attempt left",
			state: GameState{Attempts: MaxAttempts - 1},
			want:  false,
		},
		{
			name:  "out of attempts",
			state: GameState{Attempts: MaxAttempts},
			want:  true,
		},
		{
			name:  "won",
			state: GameState{Attempts: 2, GameWon: true},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsOver(); got != tt.want {
				t.Errorf("IsOver() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGameStateValid(t *testing.T) {
	tests := []struct {
		attempts int
		want     bool
	}{
		{attempts: -1, want: false},
		{attempts: 0, want: true},
		{attempts: MaxAttempts, want: true},
		{attempts: MaxAttempts + 1, want: false},
	}

	for _, tt := range tests {
		if got := (GameState{Attempts: tt.attempts}).Valid(); got != tt.want {
			t.Errorf("Valid() with %d attempts = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestPuzzleView(t *testing.T) {
	puzzle := &Puzzle{
		ID:         "p1",
		CorrectURL: "https://www.reddit.com/r/tifu/comments/abc/x/",
		Fallback:   true,
		Records: []RedactionRecord{
			{MaskedText: "[___] cat", RemovedTokens: []string{"The"}, OriginalText: "The cat"},
			{MaskedText: "cat", OriginalText: "cat"},
		},
	}

	view := puzzle.View()

	if len(view.Comments) != 2 || view.Comments[0] != "[___] cat" {
		t.Fatalf("unexpected comments %v", view.Comments)
	}
	if view.OriginalComments[1] != "cat" {
		t.Errorf("expected original comment 'cat', got %q", view.OriginalComments[1])
	}
	if view.RevealedWords[1] == nil {
		t.Error("records without tokens must serialize as an empty list")
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if _, ok := fields["fallback"]; ok {
		t.Error("view must not expose the fallback flag")
	}
	if string(fields["revealedWords"]) != `[["The"],[]]` {
		t.Errorf("unexpected revealedWords %s", fields["revealedWords"])
	}
}

func TestPuzzleOriginalComments(t *testing.T) {
	puzzle := &Puzzle{Records: []RedactionRecord{{OriginalText: "a"}, {OriginalText: "b"}}}
	got := puzzle.OriginalComments()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("OriginalComments() = %v", got)
	}
}
