// Package reflines extracts a single source line and points a caret at
// a column within it, the small piece of bookkeeping diag.Format needs
// for its snippet-plus-caret rendering.
package reflines

import "strings"

// Line returns the 1-indexed line from src, and whether it exists.
func Line(src string, line int) (string, bool) {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// Caret renders a line of spaces followed by '^' under the 1-indexed
// column col. Columns less than 1 are clamped to 1.
func Caret(col int) string {
	if col < 1 {
		col = 1
	}
	return strings.Repeat(" ", col-1) + "^"
}
