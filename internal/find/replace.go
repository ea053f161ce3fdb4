package find

import (
	"fmt"

	"github.com/dshills/keysearch/internal/notify"
)

// Decision answers a replacement proposal.
type Decision int

const (
	// DecideReplace applies the pending replacement.
	DecideReplace Decision = iota
	// DecideSkip leaves the match alone and moves on.
	DecideSkip
	// DecideReplaceAll applies the pending replacement and stops prompting.
	DecideReplaceAll
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecideReplace:
		return "replace"
	case DecideSkip:
		return "skip"
	case DecideReplaceAll:
		return "replaceAll"
	default:
		return "unknown"
	}
}

// Proposal describes a match waiting for a decision.
type Proposal struct {
	Match

	// Matched is the text the replacement would consume.
	Matched string
	// Replacement is the text that would be inserted, back-references
	// already expanded.
	Replacement string
	// Original is the fragment text as it stands.
	Original string
	// Preview is the fragment text as it would read after replacing.
	Preview string
}

// Replacer is a Session that rewrites every match with a template.
//
// Replace handles one match per call. With PromptOnReplace it stops at
// each match in StateAwaitingDecision until Decide is called. The edited
// fragment is available from Text; callers write it back before supplying
// the next fragment.
type Replacer struct {
	*Session

	template       string
	replacements   int
	replacedLength int
	last           Match
	pending        *Proposal
}

// NewReplacer creates a replace session. The Incremental option is
// ignored: replacement always scans forward from the current position.
func NewReplacer(expr, replacement string, opts Options, sessOpts ...SessionOption) (*Replacer, error) {
	s, err := New(expr, opts.Without(Incremental), sessOpts...)
	if err != nil {
		return nil, err
	}
	return &Replacer{Session: s, template: replacement}, nil
}

// Replacement returns the replacement template.
func (r *Replacer) Replacement() string { return r.template }

// SetReplacement changes the template for subsequent replacements.
func (r *Replacer) SetReplacement(template string) { r.template = template }

// SetData supplies a fragment, discarding any pending proposal.
func (r *Replacer) SetData(id FragmentID, text string, start int) {
	r.pending = nil
	r.Session.SetData(id, text, start)
}

// State returns the lifecycle state, including StateAwaitingDecision.
func (r *Replacer) State() State {
	if r.pending != nil {
		return StateAwaitingDecision
	}
	return r.Session.State()
}

// Pending returns the proposal waiting for a decision.
func (r *Replacer) Pending() (Proposal, bool) {
	if r.pending == nil {
		return Proposal{}, false
	}
	return *r.pending, true
}

// Replace finds the next match and replaces it, or proposes it when
// prompting. It returns Matched for a replaced or proposed match and
// NoMatch when the fragment is exhausted.
func (r *Replacer) Replace() (Result, error) {
	if r.pending != nil {
		return NoMatch, ErrAwaitingDecision
	}
	s := r.Session
	if !s.hasData || s.index == noIndex {
		return NoMatch, ErrNeedData
	}

	if !s.stepPastMatch() {
		return s.exhausted(), nil
	}
	s.patternChanged = false
	if s.scan(s.pattern) == NoMatch {
		return s.exhausted(), nil
	}
	s.report()

	if s.options.Has(PromptOnReplace) {
		p := r.propose()
		r.pending = &p
		s.emit(notify.Event{
			Kind:        notify.KindDecisionNeeded,
			Text:        s.text,
			Offset:      p.Offset,
			Length:      p.Length,
			Replacement: p.Replacement,
		})
		return Matched, nil
	}

	r.apply()
	return Matched, nil
}

// Decide answers the pending proposal.
func (r *Replacer) Decide(d Decision) error {
	if r.pending == nil {
		return ErrNoPendingDecision
	}

	switch d {
	case DecideReplace:
	case DecideSkip:
		r.pending = nil
		return nil
	case DecideReplaceAll:
		r.options = r.options.Without(PromptOnReplace)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidDecision, int(d))
	}

	r.pending = nil
	r.apply()
	return nil
}

// ReplacementCount returns the number of replacements applied.
func (r *Replacer) ReplacementCount() int { return r.replacements }

// ReplacedLength returns the length of the most recent replacement.
func (r *Replacer) ReplacedLength() int { return r.replacedLength }

// LastReplacement returns where the most recent replacement was inserted.
// Length is the inserted length.
func (r *Replacer) LastReplacement() Match { return r.last }

// ResetCounts zeroes the match and replacement counters.
func (r *Replacer) ResetCounts() {
	r.Session.ResetCounts()
	r.replacements = 0
}

// Summary returns the end-of-replace message.
func (r *Replacer) Summary() string {
	switch r.replacements {
	case 0:
		return "No text was replaced."
	case 1:
		return "1 replacement done."
	default:
		return fmt.Sprintf("%d replacements done.", r.replacements)
	}
}

func (r *Replacer) expand(loc []int) string {
	if !r.options.Has(BackReference) {
		return r.template
	}
	return Expand(r.template, r.text, loc)
}

func (r *Replacer) propose() Proposal {
	s := r.Session
	m := s.Current()
	rep := r.expand(s.submatches)
	return Proposal{
		Match:       m,
		Matched:     m.Text(s.text),
		Replacement: rep,
		Original:    s.text,
		Preview:     s.text[:m.Offset] + rep + s.text[m.End():],
	}
}

// apply splices the replacement for the current match into the fragment
// and positions the scan after it. Backward sessions continue one
// character before the match; forward sessions continue after the
// inserted text, and one character further when the match was empty.
func (r *Replacer) apply() {
	s := r.Session
	off, n := s.index, s.matchedLength
	rep := r.expand(s.submatches)

	s.text = s.text[:off] + rep + s.text[off+n:]
	r.replacedLength = len(rep)
	r.replacements++
	r.last = Match{Fragment: s.fragment, Offset: off, Length: len(rep)}

	s.emit(notify.Event{
		Kind:           notify.KindReplaced,
		Text:           s.text,
		Offset:         off,
		Length:         n,
		ReplacedLength: len(rep),
	})
	s.log.Debug("replaced %d bytes at %d:%d with %d bytes", n, s.fragment, off, len(rep))

	if s.options.Has(FindBackwards) {
		s.index = prevPos(s.text, off)
	} else {
		s.index = off + len(rep)
		if n == 0 {
			s.index = nextPos(s.text, s.index)
		}
	}
	s.lastResult = NoMatch
	s.matchedLength = 0
	s.submatches = nil
}
