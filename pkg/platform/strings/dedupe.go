// Package strings provides helpers for id and user-group lists.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
//	DedupeAndTrim([]string{"  Listing Officers ", "Judiciary", "Listing Officers", ""})
//	// Returns: []string{"Listing Officers", "Judiciary"}
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

// SplitList splits a comma separated header value and dedupes the parts.
func SplitList(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(header, ","))
}

// Intersects reports whether a and b share at least one element.
// Comparison is case-insensitive.
func Intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[strings.ToLower(strings.TrimSpace(v))]; ok {
			return true
		}
	}
	return false
}

// AppendUnique appends values not already present, preserving order.
func AppendUnique[S ~[]E, E comparable](dst S, values ...E) S {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// Remove returns dst without any occurrence of v.
func Remove[S ~[]E, E comparable](dst S, v E) S {
	return slices.DeleteFunc(dst, func(e E) bool { return e == v })
}
