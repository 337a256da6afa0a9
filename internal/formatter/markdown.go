// Package formatter normalizes generated markdown before rendering:
// table columns are realigned on display width and the provenance block is
// re-signed over the formatted content.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"papermill/pkg/metadata"
)

// FormatMarkdown realigns every pipe table in the document and re-signs the
// metadata block. Content without a metadata block is formatted and signed
// fresh with the validation flag unset.
func FormatMarkdown(content string) (string, error) {
	meta, clean := metadata.Extract(content)

	lines := strings.Split(clean, "\n")

	var (
		formatted   []string
		tableBuffer []string
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			tableBuffer = append(tableBuffer, line)
			continue
		}

		if len(tableBuffer) > 0 {
			formatted = append(formatted, alignTable(tableBuffer)...)
			tableBuffer = nil
		}

		formatted = append(formatted, line)
	}

	if len(tableBuffer) > 0 {
		formatted = append(formatted, alignTable(tableBuffer)...)
	}

	validated := meta != nil && meta.Validation

	return metadata.Sign(strings.Join(formatted, "\n"), "", validated), nil
}

// alignTable pads every cell so the pipes line up. Widths use display width
// so CJK titles in references do not break the alignment.
func alignTable(rows []string) []string {
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, splitCells(row))
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return rows
	}

	sepIdx := separatorIndex(table)

	widths := make([]int, colCount)
	for i, row := range table {
		if i == sepIdx {
			continue
		}

		for j, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}

	// Separator needs at least "---".
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	out := make([]string, 0, len(table))

	for i, row := range table {
		var b strings.Builder
		b.WriteString("|")

		for j := 0; j < colCount; j++ {
			b.WriteString(" ")

			if i == sepIdx {
				b.WriteString(strings.Repeat("-", widths[j]))
			} else {
				cell := ""
				if j < len(row) {
					cell = row[j]
				}

				b.WriteString(cell)

				if pad := widths[j] - runewidth.StringWidth(cell); pad > 0 {
					b.WriteString(strings.Repeat(" ", pad))
				}
			}

			b.WriteString(" |")
		}

		out = append(out, b.String())
	}

	return out
}

func splitCells(row string) []string {
	parts := strings.Split(row, "|")

	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}

	return cells
}

// separatorIndex finds the dashed row that divides header from data, or -1.
func separatorIndex(table [][]string) int {
	if len(table) < 2 {
		return -1
	}

	for _, cell := range table[1] {
		trimmed := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trimmed != "" {
			return -1
		}
	}

	return 1
}
