package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/keysearch/internal/document"
)

// TextPrinter writes hits as "path:line:column: text" lines. Line and
// column are 1-based; the column counts bytes.
type TextPrinter struct {
	w     io.Writer
	r     *lipgloss.Renderer
	path  lipgloss.Style
	match lipgloss.Style
	caret bool
}

// TextOption configures a TextPrinter.
type TextOption func(*TextPrinter)

// WithHighlight sets the match background colour.
func WithHighlight(c colorful.Color) TextOption {
	return func(p *TextPrinter) {
		p.match = p.r.NewStyle().
			Background(lipgloss.Color(c.Hex())).
			Foreground(lipgloss.Color("0")).
			TabWidth(lipgloss.NoTabConversion)
	}
}

// WithCaret adds a line of carets under every match.
func WithCaret(on bool) TextOption {
	return func(p *TextPrinter) {
		p.caret = on
	}
}

// NewText creates a text printer. Colours are only emitted when w is a
// terminal that supports them.
func NewText(w io.Writer, opts ...TextOption) *TextPrinter {
	r := lipgloss.NewRenderer(w)
	p := &TextPrinter{
		w:     w,
		r:     r,
		path:  r.NewStyle().Foreground(lipgloss.Color("5")),
		match: r.NewStyle().Reverse(true).TabWidth(lipgloss.NoTabConversion),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hit implements Printer.
func (p *TextPrinter) Hit(path string, h document.Hit) error {
	prefix := fmt.Sprintf("%s:%d:%d: ", path, h.Line+1, h.Offset+1)

	end := min(h.Offset+h.Length, len(h.LineText))
	start := min(h.Offset, end)
	before, matched, after := h.LineText[:start], h.LineText[start:end], h.LineText[end:]

	line := p.path.Render(path) + prefix[len(path):] + before + p.match.Render(matched) + after
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return err
	}
	if !p.caret {
		return nil
	}
	_, err := fmt.Fprintln(p.w, Caret(prefix+before, matched))
	return err
}

// Summary implements Printer.
func (p *TextPrinter) Summary(s Summary) error {
	if s.Path == "" {
		_, err := fmt.Fprintln(p.w, s.Message)
		return err
	}
	_, err := fmt.Fprintf(p.w, "%s: %s\n", p.path.Render(s.Path), s.Message)
	return err
}

// Caret returns a line that places carets under matched when printed
// below lead+matched. Tabs in lead are kept so the carets line up in a
// terminal; every other grapheme becomes as many spaces as it is wide.
// An empty match gets a single caret.
func Caret(lead, matched string) string {
	var b strings.Builder
	g := uniseg.NewGraphemes(lead)
	for g.Next() {
		if g.Str() == "\t" {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", g.Width()))
	}
	b.WriteString(strings.Repeat("^", max(uniseg.StringWidth(matched), 1)))
	return b.String()
}
