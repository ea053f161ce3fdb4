// Package output prints search results as styled text or as JSON lines.
//
// Text output has one line per hit in the familiar path:line:column form
// with the match highlighted, optionally followed by a caret line under
// the match. JSON output has one object per hit and one per summary; see
// Record for the field names.
package output

import (
	"errors"
	"io"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/document"
)

// ErrInvalidRecord is returned by Decode for input that is not a record.
var ErrInvalidRecord = errors.New("invalid output record")

// Record kinds.
const (
	KindHit     = "hit"
	KindSummary = "summary"
)

// Summary closes the output for one file.
type Summary struct {
	Path         string
	Matches      int
	Replacements int
	// Message is the session summary, e.g. "3 matches found.".
	Message string
}

// Printer writes hits and summaries.
type Printer interface {
	Hit(path string, h document.Hit) error
	Summary(s Summary) error
}

// FromConfig returns the printer selected by cfg.
func FromConfig(cfg config.OutputConfig, w io.Writer, caret bool) (Printer, error) {
	if cfg.JSON() {
		return NewJSON(w), nil
	}
	c, err := cfg.Color()
	if err != nil {
		return nil, err
	}
	return NewText(w, WithHighlight(c), WithCaret(caret)), nil
}
