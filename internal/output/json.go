package output

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/keysearch/internal/document"
)

// Record is one JSON output line. Hits carry the location fields and
// summaries the count fields. Line is 1-based, Offset and Length are
// byte counts into LineText.
type Record struct {
	Kind         string
	Path         string
	Line         int
	Offset       int
	Length       int
	Text         string
	LineText     string
	Matches      int
	Replacements int
	Message      string
}

// JSONPrinter writes one JSON object per line.
type JSONPrinter struct {
	w io.Writer
}

// NewJSON creates a JSON lines printer.
func NewJSON(w io.Writer) *JSONPrinter {
	return &JSONPrinter{w: w}
}

// Hit implements Printer.
func (p *JSONPrinter) Hit(path string, h document.Hit) error {
	return p.write(
		"kind", KindHit,
		"path", path,
		"line", h.Line+1,
		"offset", h.Offset,
		"length", h.Length,
		"text", h.Text,
		"lineText", h.LineText,
	)
}

// Summary implements Printer.
func (p *JSONPrinter) Summary(s Summary) error {
	return p.write(
		"kind", KindSummary,
		"path", s.Path,
		"matches", s.Matches,
		"replacements", s.Replacements,
		"message", s.Message,
	)
}

// write builds an object from alternating keys and values.
func (p *JSONPrinter) write(kv ...any) error {
	doc := "{}"
	for i := 0; i+1 < len(kv); i += 2 {
		var err error
		doc, err = sjson.Set(doc, kv[i].(string), kv[i+1])
		if err != nil {
			return fmt.Errorf("encode %s: %w", kv[i], err)
		}
	}
	_, err := fmt.Fprintln(p.w, doc)
	return err
}

// Decode parses one line written by JSONPrinter.
func Decode(line []byte) (Record, error) {
	if !gjson.ValidBytes(line) {
		return Record{}, ErrInvalidRecord
	}
	v := gjson.ParseBytes(line)
	if !v.IsObject() {
		return Record{}, ErrInvalidRecord
	}

	r := Record{
		Kind:         v.Get("kind").String(),
		Path:         v.Get("path").String(),
		Line:         int(v.Get("line").Int()),
		Offset:       int(v.Get("offset").Int()),
		Length:       int(v.Get("length").Int()),
		Text:         v.Get("text").String(),
		LineText:     v.Get("lineText").String(),
		Matches:      int(v.Get("matches").Int()),
		Replacements: int(v.Get("replacements").Int()),
		Message:      v.Get("message").String(),
	}
	if r.Kind != KindHit && r.Kind != KindSummary {
		return Record{}, fmt.Errorf("%w: kind %q", ErrInvalidRecord, r.Kind)
	}
	return r, nil
}
