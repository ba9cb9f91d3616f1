// Package textnorm canonicalizes free-text metadata strings so that
// near-duplicate values ("Colorado." vs "colorado") resolve to a single
// shared entity during import.
package textnorm

import "strings"

// Normalize returns the cleaned form of s: leading/trailing whitespace
// trimmed, internal whitespace runs collapsed to single spaces, and one
// trailing period stripped. Case is preserved; use Key for comparisons.
func Normalize(s string) string {
	fields := strings.Fields(s)
	normalized := strings.Join(fields, " ")
	return strings.TrimSuffix(normalized, ".")
}

// Key returns the case-insensitive deduplication key for s.
func Key(s string) string {
	return strings.ToLower(Normalize(s))
}

// NormalizedUnique deduplicates values case-insensitively, preserving
// first-occurrence order. The returned strings are the cleaned forms of the
// first occurrence of each value, not the originals. Values that normalize
// to the empty string are dropped.
func NormalizedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, n)
	}
	return result
}
