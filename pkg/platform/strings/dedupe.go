// Package strings holds small list helpers shared by request parsers.
package strings

import (
	"strings"
)

// SplitList splits a comma separated header or query value into trimmed,
// lowercased, unique elements in first-seen order. Empty input yields nil.
//
//	SplitList(" Verified,suspended,,VERIFIED ")
//	// []string{"verified", "suspended"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(raw, ","))
}

// DedupeAndTrimLower trims and lowercases each element, drops empties and
// keeps the first occurrence of each value.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
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
