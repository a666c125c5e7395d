// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Used to normalize party-name lists (grantors, grantees) coming back from
// heterogeneous source systems that pad or repeat names.
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

// NormalizeKey lowercases and collapses inner whitespace to single spaces after
// trimming. Jurisdiction identities are compared through this so that
// "Montgomery " and "montgomery" address the same registry entry.
func NormalizeKey(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
