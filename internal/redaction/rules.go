package redaction

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule is one redaction category. Exactly one of Words or Pattern is set.
type Rule struct {
	Name            string   `yaml:"name"`
	Words           []string `yaml:"words,omitempty"`
	Pattern         string   `yaml:"pattern,omitempty"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty"`
}

// RuleSet is the ordered list of rules. Order is priority.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// ErrNoRules is returned when a rule file defines nothing
var ErrNoRules = errors.New("rule set is empty")

// DefaultRules returns the built-in rule set
func DefaultRules() RuleSet {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("redaction: embedded rules are invalid: %v", err))
	}
	return rules
}

// ParseRules decodes a YAML rule set and validates every rule
func ParseRules(data []byte) (RuleSet, error) {
	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(rules.Rules) == 0 {
		return RuleSet{}, ErrNoRules
	}
	for i, rule := range rules.Rules {
		if _, err := rule.compile(); err != nil {
			return RuleSet{}, fmt.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}
	return rules, nil
}

// LoadRules reads a rule set from path, or returns the defaults when path is empty
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	return ParseRules(data)
}

func (r Rule) compile() (*regexp.Regexp, error) {
	switch {
	case len(r.Words) > 0 && r.Pattern != "":
		return nil, errors.New("rule sets both words and pattern")
	case len(r.Words) > 0:
		quoted := make([]string, 0, len(r.Words))
		for _, word := range r.Words {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(word))
		}
		if len(quoted) == 0 {
			return nil, errors.New("rule has only blank words")
		}
		// Word lists always match case-insensitively.
		return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	case r.Pattern != "":
		pattern := r.Pattern
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		return regexp.Compile(pattern)
	default:
		return nil, errors.New("rule needs words or a pattern")
	}
}
