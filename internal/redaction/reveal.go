package redaction

import (
	"strings"

	"commentcascade/internal/models"
)

// Reveal shows the first count removed tokens of record, left to right.
// Any count at or past the number of tokens returns the original text.
// Negative counts reveal nothing.
func Reveal(record models.RedactionRecord, count int) string {
	if count >= len(record.RemovedTokens) {
		return record.OriginalText
	}
	return fill(record.MaskedText, record.RemovedTokens, count)
}

// Restore substitutes every removed token back into the masked text by walking
// placeholders, without the original-text shortcut Reveal takes
func Restore(record models.RedactionRecord) string {
	return fill(record.MaskedText, record.RemovedTokens, len(record.RemovedTokens))
}

// CountPlaceholders returns how many markers remain in text
func CountPlaceholders(text string) int {
	return strings.Count(text, models.Placeholder)
}

func fill(masked string, tokens []string, count int) string {
	if count <= 0 {
		return masked
	}
	if count > len(tokens) {
		count = len(tokens)
	}

	var b strings.Builder
	b.Grow(len(masked))
	rest := masked
	for i := 0; i < count; i++ {
		idx := strings.Index(rest, models.Placeholder)
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(tokens[i])
		rest = rest[idx+len(models.Placeholder):]
	}
	b.WriteString(rest)
	return b.String()
}
