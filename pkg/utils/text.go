// Package utils provides shared utilities for text, rounding, and logging.
package utils

// Truncate returns the first maxLen runes of s.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}

// Ellipsize is Truncate with "..." appended when s was shortened.
func Ellipsize(s string, maxLen int) string {
	t := Truncate(s, maxLen)
	if len(t) < len(s) {
		return t + "..."
	}
	return t
}
