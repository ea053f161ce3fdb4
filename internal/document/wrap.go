package document

import (
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/notify"
)

// Boundary stops a search that started at the cursor from running past
// the cursor again once it has wrapped around. Install it as a session
// validator and, for replace runs, subscribe Observe to the session's
// notifier so replacements on the cursor line keep the cursor in place.
type Boundary struct {
	start     find.Position
	backwards bool
	armed     bool
}

// NewBoundary creates a disarmed boundary at start.
func NewBoundary(start find.Position, backwards bool) *Boundary {
	return &Boundary{start: start, backwards: backwards}
}

// Arm starts rejecting candidates at or beyond the start position.
func (b *Boundary) Arm() { b.armed = true }

// Start returns the current start position.
func (b *Boundary) Start() find.Position { return b.start }

// Validate implements find.Validator.
func (b *Boundary) Validate(fragment find.FragmentID, _ string, offset, _ int) bool {
	if !b.armed {
		return true
	}
	pos := find.Position{Fragment: fragment, Offset: offset}
	if b.backwards {
		return b.start.Before(pos)
	}
	return pos.Before(b.start)
}

// Observe shifts the start position for replacements made ahead of it on
// its line.
func (b *Boundary) Observe(ev notify.Event) {
	if ev.Kind != notify.KindReplaced || find.FragmentID(ev.Fragment) != b.start.Fragment {
		return
	}
	if ev.Offset < b.start.Offset {
		b.start.Offset = max(b.start.Offset+ev.ReplacedLength-ev.Length, ev.Offset)
	}
}

// FindWrapped collects every match of s in doc from cursor onwards. A
// FromCursor session that runs out of text is restarted once from the
// beginning and b, which must be one of the session's validators, is
// armed so the second pass ends at the cursor. b may be nil when s does
// not start at the cursor.
func FindWrapped(doc *Document, s *find.Session, cursor find.Position, b *Boundary) ([]Hit, error) {
	f := NewFinder(doc, s, cursor)
	var hits []Hit
	for {
		h, ok, err := f.Next()
		if err != nil {
			return hits, err
		}
		if ok {
			hits = append(hits, h)
			continue
		}
		if !f.Restart() {
			return hits, nil
		}
		if b != nil {
			b.Arm()
		}
	}
}

// ReplaceWrapped is Replace with the same wrap-around as FindWrapped.
func ReplaceWrapped(doc *Document, r *find.Replacer, cursor find.Position, b *Boundary, decide Decider) (int, error) {
	n, stopped, err := replace(doc, r, cursor, decide)
	if err != nil || stopped || !r.Restart() {
		return n, err
	}
	if b != nil {
		b.Arm()
	}
	more, _, err := replace(doc, r, cursor, decide)
	return n + more, err
}
