// Package strings provides string slice utilities used when parsing
// comma-separated configuration values such as broker lists.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace from each element and removes duplicates
// and empty strings. Order of first occurrence is preserved.
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
