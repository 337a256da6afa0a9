package textutil

import (
	"testing"
	"unicode/utf8"
)

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b\tc\nd", "a b c d"},
		{"  leading and trailing  ", "leading and trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("unexpected truncation: %q", got)
	}

	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("short string must be untouched: %q", got)
	}
}

func TestTruncate_MultiByte(t *testing.T) {
	// Truncation counts runes, so a CJK title stays valid UTF-8.
	if got := Truncate("時系列予測の研究", 3); got != "時系列..." {
		t.Errorf("unexpected truncation: %q", got)
	}

	if !utf8.ValidString(Truncate("αβγδε", 2)) {
		t.Error("truncation produced invalid UTF-8")
	}

	if got := Truncate("時系列", 3); got != "時系列" {
		t.Errorf("string at the limit must be untouched: %q", got)
	}
}
