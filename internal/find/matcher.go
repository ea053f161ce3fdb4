package find

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// locateIn searches a single run of text, applying the whole-word check
// and retrying one character further in the search direction on rejection.
func (p *Pattern) locateIn(text string, start int, backwards bool) []int {
	if start < 0 {
		return nil
	}
	if start > len(text) {
		if !backwards {
			return nil
		}
		start = len(text)
	}

	for {
		var loc []int
		if backwards {
			loc = p.candidateBackward(text, start)
		} else {
			loc = p.candidateForward(text, start)
		}
		if loc == nil {
			return nil
		}
		if !p.wholeWords || isWholeWord(text, loc[0], loc[1]) {
			return loc
		}

		if backwards {
			start = prevPos(text, loc[0])
			if start < 0 {
				return nil
			}
		} else {
			if loc[0] >= len(text) {
				return nil
			}
			start = nextPos(text, loc[0])
		}
	}
}

func (p *Pattern) candidateForward(text string, start int) []int {
	if p.re != nil {
		return p.regexForward(text, start)
	}
	if p.caseSensitive {
		i := strings.Index(text[start:], p.expr)
		if i < 0 {
			return nil
		}
		return []int{start + i, start + i + len(p.expr)}
	}
	for i := start; ; i = nextPos(text, i) {
		if n, ok := hasPrefixFold(text[i:], p.expr); ok {
			return []int{i, i + n}
		}
		if i >= len(text) {
			return nil
		}
	}
}

func (p *Pattern) candidateBackward(text string, start int) []int {
	if p.re != nil {
		return p.regexBackward(text, start)
	}
	if p.caseSensitive {
		// A match beginning at start must still fit in the text.
		start = min(start, len(text)-len(p.expr))
		if start < 0 {
			return nil
		}
		i := strings.LastIndex(text[:start+len(p.expr)], p.expr)
		if i < 0 {
			return nil
		}
		return []int{i, i + len(p.expr)}
	}
	for i := start; i >= 0; i = prevPos(text, i) {
		if n, ok := hasPrefixFold(text[i:], p.expr); ok {
			return []int{i, i + n}
		}
	}
	return nil
}

// regexForward returns the first match starting at or after start. Past
// the origin the search runs from the preceding character through the
// lead expression, so the match sees the same context it would in a
// search of the whole text. A start-anchored expression only matches at 0.
func (p *Pattern) regexForward(text string, start int) []int {
	if p.anchoredStart && start > 0 {
		return nil
	}
	if start == 0 || p.lead == nil {
		loc := p.re.FindStringSubmatchIndex(text[start:])
		if loc == nil {
			return nil
		}
		return shift(loc, start)
	}
	from := prevPos(text, start)
	loc := p.lead.FindStringSubmatchIndex(text[from:])
	if loc == nil {
		return nil
	}
	loc = shift(loc, from)
	loc[0] = nextPos(text, loc[0])
	return loc
}

// regexBackward returns the last match beginning at or before start by
// walking forward matches from the beginning of the text.
func (p *Pattern) regexBackward(text string, start int) []int {
	var last []int
	for pos := 0; pos <= start; {
		loc := p.regexForward(text, pos)
		if loc == nil || loc[0] > start {
			break
		}
		last = loc
		if loc[0] >= len(text) {
			break
		}
		pos = nextPos(text, loc[0])
	}
	return last
}

func shift(loc []int, by int) []int {
	out := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			out[i] = v
			continue
		}
		out[i] = v + by
	}
	return out
}

// hasPrefixFold reports whether s begins with prefix under simple Unicode
// case folding, and how many bytes of s the prefix covers.
func hasPrefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if !equalFoldRune(sr, pr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// isWholeWord reports whether text[start:end] is not touched by a word
// character on either side.
func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordChar(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordChar(r) {
			return false
		}
	}
	return true
}

// isWordChar returns true if the rune is a word character.
func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// nextPos returns the offset of the character after the one at i.
// At or past the end it returns i+1.
func nextPos(text string, i int) int {
	if i >= len(text) {
		return i + 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + size
}

// prevPos returns the offset of the character before i, or -1 at 0.
func prevPos(text string, i int) int {
	if i <= 0 {
		return -1
	}
	if i > len(text) {
		return len(text)
	}
	_, size := utf8.DecodeLastRuneInString(text[:i])
	return i - size
}
