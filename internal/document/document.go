// Package document holds line-oriented text and drives find sessions
// over it, feeding one line per fragment.
package document

import (
	"strings"
)

// Document is an ordered list of lines. Line indexes double as fragment
// identifiers.
type Document struct {
	lines []string
}

// New creates a document from lines. The slice is copied.
func New(lines []string) *Document {
	cp := make([]string, len(lines))
	copy(cp, lines)
	return &Document{lines: cp}
}

// Parse splits text on '\n'. A trailing newline yields a final empty line,
// so String reproduces text exactly.
func Parse(text string) *Document {
	return &Document{lines: strings.Split(text, "\n")}
}

// Len returns the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Line returns line i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// SetLine replaces line i. Out-of-range indexes are ignored.
func (d *Document) SetLine(i int, text string) {
	if i < 0 || i >= len(d.lines) {
		return
	}
	d.lines[i] = text
}

// Lines returns a copy of all lines.
func (d *Document) Lines() []string {
	cp := make([]string, len(d.lines))
	copy(cp, d.lines)
	return cp
}

// String joins the lines with '\n'.
func (d *Document) String() string {
	return strings.Join(d.lines, "\n")
}
