// Package ascii renders width-aware boxes and tables for terminal output.
package ascii

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// StringWidth returns the display width of s. Emoji and CJK runes count as two cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Box builds a box containing the provided lines. Lines are left-aligned with
// single-space padding on each side.
func Box(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	trimmed := make([]string, len(lines))
	maxWidth := 0
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " ")
		if w := StringWidth(trimmed[i]); w > maxWidth {
			maxWidth = w
		}
	}

	border := strings.Repeat("─", maxWidth+2)
	var sb strings.Builder
	sb.WriteString("┌" + border + "┐\n")
	for _, line := range trimmed {
		sb.WriteString("│ " + pad(line, maxWidth) + " │\n")
	}
	sb.WriteString("└" + border + "┘\n")
	return sb.String()
}

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table renders headers and rows as a bordered table. Short rows are padded
// with empty cells; align may be shorter than headers, missing entries are left-aligned.
func Table(headers []string, rows [][]string, align ...Alignment) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return left + strings.Join(parts, mid) + right + "\n"
	}
	line := func(cells []string) string {
		var sb strings.Builder
		sb.WriteString("│")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i < len(align) && align[i] == AlignRight {
				cell = padLeft(cell, w)
			} else {
				cell = pad(cell, w)
			}
			sb.WriteString(" " + cell + " │")
		}
		sb.WriteString("\n")
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString(rule("┌", "┬", "┐"))
	sb.WriteString(line(headers))
	sb.WriteString(rule("├", "┼", "┤"))
	for _, row := range rows {
		sb.WriteString(line(row))
	}
	sb.WriteString(rule("└", "┴", "┘"))
	return sb.String()
}

// Truncate shortens value to fit width display cells, appending "..." when
// there is room for it.
func Truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

func pad(s string, width int) string {
	if fill := width - StringWidth(s); fill > 0 {
		return s + strings.Repeat(" ", fill)
	}
	return s
}

func padLeft(s string, width int) string {
	if fill := width - StringWidth(s); fill > 0 {
		return strings.Repeat(" ", fill) + s
	}
	return s
}
