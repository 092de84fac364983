package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Subreddit names are 3-21 letters, digits or underscores. A few legacy
// communities are shorter, so two characters are accepted.
var categoryRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_]{1,20}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateCategory checks that a category is a usable subreddit name
func ValidateCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ValidationError{Field: "category", Message: "category is required"}
	}
	if strings.HasPrefix(strings.ToLower(category), "r/") {
		return ValidationError{Field: "category", Message: "category must not include the r/ prefix"}
	}
	if !categoryRegex.MatchString(category) {
		return ValidationError{Field: "category", Message: fmt.Sprintf("invalid subreddit name %q", category)}
	}
	return nil
}

// ValidateCategories checks every category and rejects duplicates
func ValidateCategories(categories []string) error {
	if len(categories) == 0 {
		return ValidationError{Field: "categories", Message: "at least one category is required"}
	}
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		if err := ValidateCategory(c); err != nil {
			return err
		}
		key := strings.ToLower(strings.TrimSpace(c))
		if seen[key] {
			return ValidationError{Field: "categories", Message: fmt.Sprintf("duplicate category %q", c)}
		}
		seen[key] = true
	}
	return nil
}
