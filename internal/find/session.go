package find

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/keysearch/internal/logging"
	"github.com/dshills/keysearch/internal/notify"
)

// FragmentID identifies a caller-owned piece of text, typically a line or
// a file. Drivers order fragments by ID.
type FragmentID int

// DefaultStart asks SetData to begin at the natural start of the fragment:
// offset 0 forward, the end of the text backward.
const DefaultStart = -1

// noIndex marks an exhausted fragment.
const noIndex = -1

// Result is the outcome of a Find or Replace call.
type Result int

const (
	// NoMatch means the current fragment is exhausted.
	NoMatch Result = iota
	// Matched means a match was found; see Session.Current.
	Matched
)

// String returns the result name.
func (r Result) String() string {
	if r == Matched {
		return "matched"
	}
	return "noMatch"
}

// State is the lifecycle state of a session.
type State int

const (
	// StateNeedData means no fragment has been supplied yet.
	StateNeedData State = iota
	// StateReady means a fragment is installed and can be searched.
	StateReady
	// StateMatched means the last call reported a match.
	StateMatched
	// StateExhausted means the current fragment has no more matches.
	StateExhausted
	// StateAwaitingDecision means a replace proposal waits for Decide.
	StateAwaitingDecision
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNeedData:
		return "needData"
	case StateReady:
		return "ready"
	case StateMatched:
		return "matched"
	case StateExhausted:
		return "exhausted"
	case StateAwaitingDecision:
		return "awaitingDecision"
	default:
		return "unknown"
	}
}

// Match locates a match within a fragment.
type Match struct {
	Fragment FragmentID
	Offset   int
	Length   int

	// Submatches holds the match span followed by capture group spans,
	// fragment-relative, -1 for groups that did not participate.
	Submatches []int
}

// End returns the offset just past the match.
func (m Match) End() int { return m.Offset + m.Length }

// Text returns the matched text within the fragment text.
func (m Match) Text(text string) string {
	if m.Offset < 0 || m.End() > len(text) {
		return ""
	}
	return text[m.Offset:m.End()]
}

// Group returns capture group n, where group 0 is the whole match.
func (m Match) Group(text string, n int) (string, bool) {
	if n == 0 {
		return m.Text(text), m.Offset >= 0
	}
	if 2*n+1 >= len(m.Submatches) || m.Submatches[2*n] < 0 {
		return "", false
	}
	return text[m.Submatches[2*n]:m.Submatches[2*n+1]], true
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger. Sessions log at debug level.
func WithLogger(l *logging.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNotifier publishes session events to n.
func WithNotifier(n *notify.Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithValidator installs the extra validation hook.
func WithValidator(v Validator) SessionOption {
	return func(s *Session) {
		s.validator = v
	}
}

// WithoutCache makes an incremental session search every new pattern from
// the origin instead of consulting its prefix cache.
func WithoutCache() SessionOption {
	return func(s *Session) {
		s.cacheDisabled = true
	}
}

// WithID overrides the generated session identifier.
func WithID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// Session searches caller-supplied fragments for one live pattern.
type Session struct {
	id        string
	log       *logging.Logger
	notifier  *notify.Notifier
	validator Validator

	pattern        *Pattern
	options        Options
	patternChanged bool

	hasData       bool
	fragment      FragmentID
	text          string
	index         int
	matchedLength int
	submatches    []int
	lastResult    Result

	matches int

	inc           *prefixCache
	cacheDisabled bool
}

// New creates a session for expr. It fails with a *PatternError when a
// regular expression does not compile.
func New(expr string, opts Options, sessOpts ...SessionOption) (*Session, error) {
	p, err := Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	s := &Session{
		id:      uuid.NewString(),
		log:     logging.Discard,
		pattern: p,
		options: opts,
		index:   noIndex,
	}
	for _, opt := range sessOpts {
		opt(s)
	}
	if opts.Has(Incremental) {
		s.inc = newPrefixCache(s.cacheDisabled)
	}
	s.log = s.log.WithFields(map[string]any{"component": "find", "session": s.id})
	s.log.Debug("session created pattern=%q options=%s", expr, opts)

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Pattern returns the live pattern expression.
func (s *Session) Pattern() string { return s.pattern.String() }

// Compiled returns the live compiled pattern.
func (s *Session) Compiled() *Pattern { return s.pattern }

// Options returns the current options.
func (s *Session) Options() Options { return s.options }

// SetPattern replaces the live pattern. The next Find searches from the
// current position without first stepping past the previous match. On a
// compile error the previous pattern stays live.
func (s *Session) SetPattern(expr string) error {
	p, err := Compile(expr, s.options)
	if err != nil {
		return err
	}
	s.pattern = p
	s.patternChanged = true
	return nil
}

// SetOptions replaces the option set, recompiling the pattern when a
// matching option changed.
func (s *Session) SetOptions(opts Options) error {
	if opts&matching != s.options&matching {
		p, err := Compile(s.pattern.String(), opts)
		if err != nil {
			return err
		}
		s.pattern = p
		s.patternChanged = true
		if s.inc != nil {
			s.inc.reset()
		}
	}

	switch {
	case opts.Has(Incremental) && s.inc == nil:
		s.inc = newPrefixCache(s.cacheDisabled)
		if s.hasData {
			s.inc.origin = s.snapshot()
		}
	case !opts.Has(Incremental):
		s.inc = nil
	}

	s.options = opts
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	switch {
	case !s.hasData:
		return StateNeedData
	case s.index == noIndex:
		return StateExhausted
	case s.lastResult == Matched:
		return StateMatched
	default:
		return StateReady
	}
}

// HasData reports whether a fragment has been supplied since the session
// was created or restarted.
func (s *Session) HasData() bool { return s.hasData }

// NeedsData reports whether the caller must supply a fragment before the
// next Find.
func (s *Session) NeedsData() bool {
	return !s.hasData || s.index == noIndex
}

// Fragment returns the current fragment identifier.
func (s *Session) Fragment() FragmentID { return s.fragment }

// Text returns the current fragment text. Replacements modify it.
func (s *Session) Text() string { return s.text }

// Index returns the scan position within the current fragment, or -1.
func (s *Session) Index() int { return s.index }

// SetData supplies a fragment. start is the offset to begin at, or
// DefaultStart.
//
// Incremental sessions keep their position while it is live: supplying
// the current fragment refreshes its text, and supplying any other
// fragment only invalidates cache entries taken from it.
func (s *Session) SetData(id FragmentID, text string, start int) {
	if s.inc != nil {
		if n := s.inc.invalidate(id, text); n > 0 {
			s.log.Debug("fragment %d changed, %d cache entries dirty", id, n)
		}
		if s.hasData && s.index != noIndex {
			if id == s.fragment {
				s.refresh(text)
			}
			return
		}
	}
	s.install(id, text, start)
}

func (s *Session) install(id FragmentID, text string, start int) {
	s.fragment = id
	s.text = text
	s.hasData = true
	s.lastResult = NoMatch
	s.matchedLength = 0
	s.submatches = nil

	switch {
	case start < 0 && s.options.Has(FindBackwards):
		s.index = len(text)
	case start < 0:
		s.index = 0
	default:
		s.index = min(start, len(text))
	}

	if s.inc != nil && s.inc.origin == nil {
		s.inc.origin = s.snapshot()
	}
	s.log.Debug("fragment %d installed at %d (%d bytes)", id, s.index, len(text))
}

func (s *Session) refresh(text string) {
	if text == s.text {
		return
	}
	s.text = text
	s.index = min(s.index, len(text))
	s.lastResult = NoMatch
	s.matchedLength = 0
	s.submatches = nil
}

// Find looks for the next match. It returns ErrNeedData when no fragment
// is available, except that an incremental session whose pattern changed
// may answer from its cache.
func (s *Session) Find() (Result, error) {
	if err := s.ready(); err != nil {
		return NoMatch, err
	}
	if s.inc != nil {
		return s.findIncremental(), nil
	}

	if !s.stepPastMatch() {
		return s.exhausted(), nil
	}
	s.patternChanged = false
	if s.scan(s.pattern) == NoMatch {
		return s.exhausted(), nil
	}
	return s.report(), nil
}

// Current returns the last reported match.
func (s *Session) Current() Match {
	var sub []int
	if s.submatches != nil {
		sub = make([]int, len(s.submatches))
		copy(sub, s.submatches)
	}
	return Match{
		Fragment:   s.fragment,
		Offset:     s.index,
		Length:     s.matchedLength,
		Submatches: sub,
	}
}

// MatchCount returns the number of matches reported to the caller.
func (s *Session) MatchCount() int { return s.matches }

// ResetCounts zeroes the match counter.
func (s *Session) ResetCounts() { s.matches = 0 }

// CanRestart reports whether a search that began at the cursor has run
// out of text and may continue from the beginning.
func (s *Session) CanRestart() bool {
	return s.options.Has(FromCursor) && s.hasData && s.index == noIndex
}

// Restart clears FromCursor and returns the session to StateNeedData so
// the caller can supply fragments from the beginning again.
func (s *Session) Restart() bool {
	if !s.CanRestart() {
		return false
	}
	s.options = s.options.Without(FromCursor)
	s.hasData = false
	s.lastResult = NoMatch
	s.log.Debug("restarting from the beginning")
	return true
}

// Summary returns the end-of-search message.
func (s *Session) Summary() string {
	switch s.matches {
	case 0:
		return fmt.Sprintf("No matches found for '%s'.", s.pattern)
	case 1:
		return "1 match found."
	default:
		return fmt.Sprintf("%d matches found.", s.matches)
	}
}

func (s *Session) ready() error {
	if !s.hasData {
		return ErrNeedData
	}
	if s.index == noIndex && !(s.inc != nil && s.patternChanged) {
		return ErrNeedData
	}
	return nil
}

// stepPastMatch moves one character past the previous match so the same
// match is not reported twice. It reports false when a backward search
// runs off the start of the fragment.
func (s *Session) stepPastMatch() bool {
	if s.lastResult != Matched || s.patternChanged {
		return true
	}
	if s.options.Has(FindBackwards) {
		s.index = prevPos(s.text, s.index)
		return s.index >= 0
	}
	s.index = nextPos(s.text, s.index)
	return true
}

// scan searches for p from the current index, consulting the validator.
// It records the candidate but does not report it.
func (s *Session) scan(p *Pattern) Result {
	backwards := s.options.Has(FindBackwards)
	for s.index >= 0 {
		loc := p.Locate(s.text, s.index, backwards)
		if loc == nil {
			break
		}
		s.index = loc[0]
		s.matchedLength = loc[1] - loc[0]
		s.submatches = loc
		if s.validator == nil || s.validator.Validate(s.fragment, s.text, loc[0], loc[1]-loc[0]) {
			return Matched
		}
		if backwards {
			s.index = prevPos(s.text, loc[0])
		} else {
			s.index = nextPos(s.text, loc[0])
		}
	}
	return NoMatch
}

func (s *Session) report() Result {
	s.lastResult = Matched
	s.matches++
	s.emit(notify.Event{
		Kind:   notify.KindHighlight,
		Text:   s.text,
		Offset: s.index,
		Length: s.matchedLength,
	})
	return Matched
}

func (s *Session) exhausted() Result {
	s.index = noIndex
	s.matchedLength = 0
	s.submatches = nil
	s.lastResult = NoMatch
	s.emit(notify.Event{Kind: notify.KindNoMatch, Text: s.text})
	return NoMatch
}

func (s *Session) emit(ev notify.Event) {
	if s.notifier == nil {
		return
	}
	ev.Session = s.id
	ev.Fragment = int(s.fragment)
	s.notifier.Notify(ev)
}
