// Package redaction masks selected words in comment text and reveals them again
// in their original left-to-right order.
package redaction

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"commentcascade/internal/models"
)

// literalPlaceholder matches markers already present in source text. They are
// consumed before any rule so every marker in masked text has exactly one token.
var literalPlaceholder = regexp.MustCompile(regexp.QuoteMeta(models.Placeholder))

type matcher struct {
	name string
	re   *regexp.Regexp
}

type span struct {
	start, end int
}

// Engine applies an ordered rule set to text. It is safe for concurrent use.
type Engine struct {
	matchers []matcher
}

// NewEngine compiles rules into an engine
func NewEngine(rules RuleSet) (*Engine, error) {
	if len(rules.Rules) == 0 {
		return nil, ErrNoRules
	}
	matchers := make([]matcher, 0, len(rules.Rules))
	for i, rule := range rules.Rules {
		re, err := rule.compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
		matchers = append(matchers, matcher{name: rule.Name, re: re})
	}
	return &Engine{matchers: matchers}, nil
}

// NewDefaultEngine returns an engine over the built-in rules
func NewDefaultEngine() *Engine {
	engine, err := NewEngine(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("redaction: default engine: %v", err))
	}
	return engine
}

// RuleNames lists the rule names in priority order
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.matchers))
	for i, m := range e.matchers {
		names[i] = m.name
	}
	return names
}

// Redact replaces every matched span with the placeholder and records the
// removed substrings in the order they appear in text
func (e *Engine) Redact(text string) models.RedactionRecord {
	record := models.RedactionRecord{
		MaskedText:    text,
		RemovedTokens: []string{},
		OriginalText:  text,
	}
	if text == "" {
		return record
	}

	var taken []span
	taken = claim(taken, literalPlaceholder.FindAllStringIndex(text, -1))
	for _, m := range e.matchers {
		taken = claim(taken, m.re.FindAllStringIndex(text, -1))
	}
	if len(taken) == 0 {
		return record
	}

	sort.Slice(taken, func(i, j int) bool { return taken[i].start < taken[j].start })

	var masked strings.Builder
	masked.Grow(len(text))
	last := 0
	for _, s := range taken {
		masked.WriteString(text[last:s.start])
		masked.WriteString(models.Placeholder)
		record.RemovedTokens = append(record.RemovedTokens, text[s.start:s.end])
		last = s.end
	}
	masked.WriteString(text[last:])
	record.MaskedText = masked.String()

	return record
}

// claim adds every candidate that does not overlap an already taken span.
// Zero-width candidates are dropped.
func claim(taken []span, candidates [][]int) []span {
	for _, loc := range candidates {
		candidate := span{start: loc[0], end: loc[1]}
		if candidate.start >= candidate.end {
			continue
		}
		if overlapsAny(taken, candidate) {
			continue
		}
		taken = append(taken, candidate)
	}
	return taken
}

func overlapsAny(taken []span, candidate span) bool {
	for _, s := range taken {
		if candidate.start < s.end && s.start < candidate.end {
			return true
		}
	}
	return false
}
