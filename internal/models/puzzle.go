package models

import "time"

// Placeholder is the marker that stands in for every redacted token
const Placeholder = "[___]"

// RedactionRecord holds one redacted comment and everything needed to reveal it
type RedactionRecord struct {
	MaskedText    string   `json:"maskedText"`
	RemovedTokens []string `json:"removedTokens"`
	OriginalText  string   `json:"originalText"`
}

// Puzzle is the daily set of redacted comments plus the post they came from.
// Records keep their index for the lifetime of the puzzle.
type Puzzle struct {
	ID         string            `json:"id"`
	Date       string            `json:"date"`
	Source     string            `json:"source"`
	Title      string            `json:"title"`
	CorrectURL string            `json:"correctUrl"`
	Records    []RedactionRecord `json:"records"`
	Fallback   bool              `json:"fallback"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// PuzzleView is the client-facing shape of a puzzle
type PuzzleView struct {
	Comments         []string   `json:"comments"`
	CorrectURL       string     `json:"correctUrl"`
	OriginalComments []string   `json:"originalComments"`
	RevealedWords    [][]string `json:"revealedWords"`
}

// View converts the puzzle into the shape served by GET /api/puzzle.
// The fallback flag is not part of the view.
func (p *Puzzle) View() PuzzleView {
	view := PuzzleView{
		Comments:         make([]string, len(p.Records)),
		CorrectURL:       p.CorrectURL,
		OriginalComments: make([]string, len(p.Records)),
		RevealedWords:    make([][]string, len(p.Records)),
	}
	for i, record := range p.Records {
		view.Comments[i] = record.MaskedText
		view.OriginalComments[i] = record.OriginalText
		tokens := record.RemovedTokens
		if tokens == nil {
			tokens = []string{}
		}
		view.RevealedWords[i] = tokens
	}
	return view
}

// OriginalComments returns the untouched comment texts in puzzle order
func (p *Puzzle) OriginalComments() []string {
	originals := make([]string, len(p.Records))
	for i, record := range p.Records {
		originals[i] = record.OriginalText
	}
	return originals
}
