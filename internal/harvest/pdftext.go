package harvest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractText reads a PDF file and returns its normalized plain text.
func ExtractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to buffer pdf text: %w", err)
	}

	text := CleanText(buf.String())
	if text == "" {
		return "", ErrEmptyExtraction
	}

	return text, nil
}

// CleanText strips control characters and collapses runs of whitespace.
// PDF extraction produces hard line breaks mid-sentence and stray control
// bytes; downstream sentence segmentation needs a single flowing string.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			// drop
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}
