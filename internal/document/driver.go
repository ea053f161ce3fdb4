package document

import (
	"errors"
	"fmt"

	"github.com/dshills/keysearch/internal/find"
)

// ErrStop is returned by a Decider to end a replace run early.
var ErrStop = errors.New("replace stopped")

// Hit is a match reported by a driver.
type Hit struct {
	Line   int
	Offset int
	Length int
	// Text is the matched text.
	Text string
	// LineText is the line the match was found in.
	LineText string
}

// Before reports whether h lies strictly before pos in document order.
func (h Hit) Before(pos find.Position) bool {
	return find.Position{Fragment: find.FragmentID(h.Line), Offset: h.Offset}.Before(pos)
}

// source is the part of a session the feeder needs. Both *find.Session
// and *find.Replacer satisfy it.
type source interface {
	SetData(id find.FragmentID, text string, start int)
	HasData() bool
	Fragment() find.FragmentID
	Options() find.Options
}

// feeder supplies document lines to a session in search order.
type feeder struct {
	doc    *Document
	s      source
	cursor find.Position
}

// first installs the starting line: the cursor line for FromCursor
// searches, otherwise the first or last line.
func (f *feeder) first() bool {
	n := f.doc.Len()
	if n == 0 {
		return false
	}
	opts := f.s.Options()
	switch {
	case opts.Has(find.FromCursor):
		line := min(max(int(f.cursor.Fragment), 0), n-1)
		f.s.SetData(find.FragmentID(line), f.doc.Line(line), max(f.cursor.Offset, 0))
	case opts.Has(find.FindBackwards):
		f.s.SetData(find.FragmentID(n-1), f.doc.Line(n-1), find.DefaultStart)
	default:
		f.s.SetData(0, f.doc.Line(0), find.DefaultStart)
	}
	return true
}

// next installs the line after the session's current one in search order.
func (f *feeder) next() bool {
	step := 1
	if f.s.Options().Has(find.FindBackwards) {
		step = -1
	}
	line := int(f.s.Fragment()) + step
	if line < 0 || line >= f.doc.Len() {
		return false
	}
	f.s.SetData(find.FragmentID(line), f.doc.Line(line), find.DefaultStart)
	return true
}

// Finder walks a document with a search session. It serves plain
// find-next as well as incremental typing.
type Finder struct {
	doc  *Document
	s    *find.Session
	feed feeder
}

// NewFinder creates a Finder. cursor is used when the session has the
// FromCursor option.
func NewFinder(doc *Document, s *find.Session, cursor find.Position) *Finder {
	return &Finder{
		doc:  doc,
		s:    s,
		feed: feeder{doc: doc, s: s, cursor: cursor},
	}
}

// Session returns the underlying session.
func (f *Finder) Session() *find.Session { return f.s }

// Next returns the next match, feeding lines as the session exhausts
// them. ok is false when the document has no further match.
func (f *Finder) Next() (hit Hit, ok bool, err error) {
	for {
		if !f.s.HasData() && !f.feed.first() {
			return Hit{}, false, nil
		}
		res, err := f.s.Find()
		if err != nil && !errors.Is(err, find.ErrNeedData) {
			return Hit{}, false, err
		}
		if err == nil && res == find.Matched {
			return f.hit(), true, nil
		}
		if !f.feed.next() {
			return Hit{}, false, nil
		}
	}
}

// Type makes pattern the live pattern and returns its match. In an
// incremental session this is answered from the prefix cache when
// possible.
func (f *Finder) Type(pattern string) (Hit, bool, error) {
	if err := f.s.SetPattern(pattern); err != nil {
		return Hit{}, false, err
	}
	return f.Next()
}

// Update replaces a line and tells the session about the new text.
func (f *Finder) Update(line int, text string) {
	f.doc.SetLine(line, text)
	f.s.SetData(find.FragmentID(line), text, find.DefaultStart)
}

// Sync replaces the document content with lines and returns the indexes
// of lines whose text changed. Lines past the end of the shorter version
// count as empty. An incremental session is told about every changed line
// so its cache entries go dirty; other sessions read the new text when the
// line is next fed.
func (f *Finder) Sync(lines []string) []int {
	old := f.doc.lines
	f.doc.lines = make([]string, len(lines))
	copy(f.doc.lines, lines)

	var changed []int
	for i := range max(len(old), len(lines)) {
		var before, after string
		if i < len(old) {
			before = old[i]
		}
		if i < len(lines) {
			after = lines[i]
		}
		if before == after {
			continue
		}
		changed = append(changed, i)
		if f.s.Options().Has(find.Incremental) {
			f.s.SetData(find.FragmentID(i), after, find.DefaultStart)
		}
	}
	return changed
}

// Restart continues an exhausted cursor search from the beginning.
func (f *Finder) Restart() bool {
	return f.s.Restart()
}

func (f *Finder) hit() Hit {
	m := f.s.Current()
	text := f.s.Text()
	return Hit{
		Line:     int(m.Fragment),
		Offset:   m.Offset,
		Length:   m.Length,
		Text:     m.Text(text),
		LineText: text,
	}
}

// FindAll collects every match of s in doc.
func FindAll(doc *Document, s *find.Session) ([]Hit, error) {
	f := NewFinder(doc, s, find.Position{})
	var hits []Hit
	for {
		h, ok, err := f.Next()
		if err != nil {
			return hits, err
		}
		if !ok {
			return hits, nil
		}
		hits = append(hits, h)
	}
}

// Decider answers replacement proposals. Returning ErrStop ends the run.
type Decider func(p find.Proposal) (find.Decision, error)

// Accept is a Decider that replaces every proposal.
func Accept(find.Proposal) (find.Decision, error) { return find.DecideReplace, nil }

// Replace runs r over doc, writing every edited line back. decide is
// consulted when r prompts; it may be nil when r does not. It returns the
// number of replacements made by this run.
func Replace(doc *Document, r *find.Replacer, cursor find.Position, decide Decider) (int, error) {
	n, _, err := replace(doc, r, cursor, decide)
	return n, err
}

// replace is Replace that also reports whether the decider stopped the run.
func replace(doc *Document, r *find.Replacer, cursor find.Position, decide Decider) (int, bool, error) {
	feed := feeder{doc: doc, s: r, cursor: cursor}
	before := r.ReplacementCount()
	done := func() int { return r.ReplacementCount() - before }

	for {
		if !r.HasData() {
			if !feed.first() {
				return done(), false, nil
			}
		} else if r.NeedsData() && !feed.next() {
			return done(), false, nil
		}

		res, err := r.Replace()
		if err != nil {
			return done(), false, err
		}

		if p, ok := r.Pending(); ok {
			if decide == nil {
				return done(), false, fmt.Errorf("replace at line %d: prompt without a decider", p.Fragment)
			}
			d, err := decide(p)
			if errors.Is(err, ErrStop) {
				return done(), true, nil
			}
			if err != nil {
				return done(), false, err
			}
			if err := r.Decide(d); err != nil {
				return done(), false, err
			}
		}

		if res == find.Matched {
			doc.SetLine(int(r.Fragment()), r.Text())
		}
	}
}
