// Package textutil provides small text helpers shared across stages.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWhitespace replaces runs of whitespace with single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to maxLen runes, appending an ellipsis marker. The
// cut never lands inside a multi-byte rune.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	return string([]rune(s)[:maxLen]) + "..."
}
