// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitList turns a comma-separated text input into an ordered sequence of
// trimmed, non-empty, deduplicated strings. Form fields like genres and
// expertise areas arrive as free text ("Punk, Indie") and are stored as
// sequences (["Punk","Indie"]).
func SplitList(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(input, ","))
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// TruncateWords caps a string at the first n whitespace-separated words.
// Overflow is dropped silently; inputs at or under the cap come back
// unchanged apart from whitespace normalization of the truncated form.
func TruncateWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ")
}
