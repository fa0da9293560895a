// Package text provides utilities for text processing shared by the article,
// tag and summarization features.
package text

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Multi-byte characters such as Japanese text or emoji count as one character each.
//
// Examples:
//
//	CountRunes("hello")      // returns 5
//	CountRunes("こんにちは")   // returns 5
//	CountRunes("hello世界")   // returns 7
//	CountRunes("")           // returns 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate returns the first max runes of s and whether anything was cut.
func Truncate(s string, max int) (string, bool) {
	if max < 0 {
		max = 0
	}
	r := []rune(s)
	if len(r) <= max {
		return s, false
	}
	return string(r[:max]), true
}
