package layout

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Wrap breaks s into lines no wider than width cells, preferring word
// boundaries and hard-breaking words that do not fit. Explicit newlines are
// kept. An empty string has no lines.
func Wrap(s string, width int) []string {
	if s == "" {
		return nil
	}
	width = max(width, 1)

	lines := strings.Split(ansi.Wrap(s, width, ""), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

// Measure returns the size of s wrapped to width: the widest line and the
// number of lines.
func Measure(s string, width int) Size {
	lines := Wrap(s, width)
	w := 0
	for _, line := range lines {
		w = max(w, ansi.StringWidth(line))
	}
	return Size{W: w, H: len(lines)}
}
