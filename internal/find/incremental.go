package find

import (
	"strings"
	"unicode/utf8"
)

// cacheEntry is a saved session position: the first match of one pattern
// prefix, or the origin for the empty pattern.
type cacheEntry struct {
	fragment   FragmentID
	text       string
	index      int
	length     int
	submatches []int
	dirty      bool
}

// prefixCache maps pattern prefixes to the match found for them.
type prefixCache struct {
	entries map[string]*cacheEntry

	// origin is where the session first received data. The empty pattern
	// always resolves to it.
	origin *cacheEntry

	// matched is the longest prefix of the live pattern matched at the
	// current position. tracking is false when the position no longer
	// corresponds to matched.
	matched  string
	tracking bool

	disabled bool
}

func newPrefixCache(disabled bool) *prefixCache {
	return &prefixCache{
		entries:  make(map[string]*cacheEntry),
		tracking: true,
		disabled: disabled,
	}
}

// lookup returns the entry for pattern, dirty or not, or nil.
func (c *prefixCache) lookup(pattern string) *cacheEntry {
	if pattern == "" {
		return c.origin
	}
	return c.entries[pattern]
}

func (c *prefixCache) store(pattern string, e *cacheEntry) {
	if c.disabled || pattern == "" {
		return
	}
	c.entries[pattern] = e
}

// evictLonger drops every entry longer than n bytes.
func (c *prefixCache) evictLonger(n int) int {
	evicted := 0
	for k := range c.entries {
		if len(k) > n {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

// invalidate marks entries taken from fragment id dirty when its text
// differs, and keeps the origin's copy of the text current.
func (c *prefixCache) invalidate(id FragmentID, text string) int {
	marked := 0
	for _, e := range c.entries {
		if e.fragment == id && !e.dirty && e.text != text {
			e.dirty = true
			marked++
		}
	}
	if c.origin != nil && c.origin.fragment == id {
		c.origin.text = text
		c.origin.index = min(c.origin.index, len(text))
	}
	return marked
}

// reset forgets every prefix; the origin survives.
func (c *prefixCache) reset() {
	c.evictLonger(0)
	c.matched = ""
	c.tracking = false
}

func (s *Session) snapshot() *cacheEntry {
	return &cacheEntry{
		fragment:   s.fragment,
		text:       s.text,
		index:      s.index,
		length:     s.matchedLength,
		submatches: s.submatches,
	}
}

func (s *Session) restore(e *cacheEntry) {
	s.fragment = e.fragment
	s.text = e.text
	s.index = e.index
	s.matchedLength = e.length
	s.submatches = e.submatches
	s.hasData = true
}

// findIncremental answers Find for an incremental session. A changed
// pattern is resolved against the cache: shrinking restores a saved
// match, growing by a suffix continues from the current match, and
// anything else restarts from the origin.
func (s *Session) findIncremental() Result {
	c := s.inc
	live := s.pattern.String()
	changed := s.patternChanged
	s.patternChanged = false

	if !changed && c.tracking {
		if c.matched != live {
			// Still stepping toward the live pattern, now on a new fragment.
			return s.extend(c.matched, live)
		}
		if !s.stepPastMatch() {
			return s.exhausted()
		}
		if s.scan(s.pattern) == NoMatch {
			return s.exhausted()
		}
		c.store(live, s.snapshot())
		return s.report()
	}

	steppable := s.pattern.steppable() && !c.disabled
	if c.tracking {
		switch {
		case strings.HasPrefix(c.matched, live):
			e, prefix, clean := s.recover(live)
			if clean {
				s.restore(e)
				c.matched = live
				s.log.Debug("cache hit for %q at %d:%d", live, e.fragment, e.index)
				return s.report()
			}
			if e != nil && steppable {
				s.restore(e)
				s.lastResult = NoMatch
				c.matched = prefix
				s.log.Debug("cache entry for %q dirty, resuming from %q", live, prefix)
				return s.extend(prefix, live)
			}
		case strings.HasPrefix(live, c.matched) && steppable:
			if s.index == noIndex {
				s.lastResult = NoMatch
				return NoMatch
			}
			if e := c.lookup(c.matched); e != nil && e.dirty {
				// The fragment under the current match was edited.
				e, prefix, _ := s.recover(c.matched)
				if e == nil {
					break
				}
				s.restore(e)
				s.lastResult = NoMatch
				c.matched = prefix
				s.log.Debug("cache entry for %q dirty, resuming from %q", live, prefix)
				return s.extend(prefix, live)
			}
			return s.extend(c.matched, live)
		}
	}

	s.resetIncremental()
	return s.extend("", live)
}

// recover finds the cache entry for live, walking back through shorter
// prefixes past dirty or missing entries, and evicts everything longer
// than the prefix it settles on. clean reports whether live itself hit.
func (s *Session) recover(live string) (e *cacheEntry, prefix string, clean bool) {
	c := s.inc
	prefix = live
	e = c.lookup(prefix)
	clean = e != nil && !e.dirty

	for e == nil || e.dirty {
		if prefix == "" {
			break
		}
		_, size := utf8.DecodeLastRuneInString(prefix)
		prefix = prefix[:len(prefix)-size]
		e = c.lookup(prefix)
	}
	if e == nil {
		return nil, "", false
	}

	if n := c.evictLonger(len(prefix)); n > 0 {
		s.log.Debug("evicted %d cache entries longer than %q", n, prefix)
	}
	return e, prefix, clean
}

// resetIncremental returns to the origin and forgets every prefix.
func (s *Session) resetIncremental() {
	c := s.inc
	c.reset()
	if c.origin != nil {
		s.restore(c.origin)
	}
	s.matchedLength = 0
	s.submatches = nil
	s.lastResult = NoMatch
	c.tracking = true
	s.log.Debug("incremental search restarted from origin")
}

// extend searches successively longer prefixes of live, starting one
// character past from, caching each match. Patterns that cannot be
// stepped are searched in one go.
func (s *Session) extend(from, live string) Result {
	c := s.inc
	step := from
	for {
		if s.pattern.steppable() && !c.disabled && len(step) < len(live) {
			_, size := utf8.DecodeRuneInString(live[len(step):])
			step = live[:len(step)+size]
		} else {
			step = live
		}

		p := s.pattern
		if step != live {
			p = s.pattern.prefix(len(step))
		}
		if s.scan(p) == NoMatch {
			return s.exhausted()
		}
		c.store(step, s.snapshot())
		c.matched = step
		if step == live {
			return s.report()
		}
	}
}
