package chunker

import "unicode/utf8"

// Ellipsis marks truncated text.
const Ellipsis = "..."

// RuneLen is the length of s in characters.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Shorten cuts s to keep runes plus an ellipsis when it is longer than limit.
func Shorten(s string, limit, keep int) string {
	if RuneLen(s) <= limit {
		return s
	}
	return Truncate(s, keep) + Ellipsis
}
