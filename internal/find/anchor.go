package find

import (
	"sort"
	"strings"
)

type line struct {
	offset int
	text   string
}

// splitLines splits text on '\n', keeping each line's byte offset.
func splitLines(text string) []line {
	lines := make([]line, 0, strings.Count(text, "\n")+1)
	off := 0
	for {
		i := strings.IndexByte(text[off:], '\n')
		if i < 0 {
			lines = append(lines, line{offset: off, text: text[off:]})
			return lines
		}
		lines = append(lines, line{offset: off, text: text[off : off+i]})
		off += i + 1
	}
}

// lineAt returns the index of the line whose span [offset, offset+len]
// contains pos.
func lineAt(lines []line, pos int) int {
	i := sort.Search(len(lines), func(i int) bool { return lines[i].offset > pos })
	return max(i-1, 0)
}

// locateLines matches an anchored expression one line at a time so that
// ^ and $ refer to line boundaries. Results are fragment-relative.
func (p *Pattern) locateLines(text string, start int, backwards bool) []int {
	if start < 0 {
		return nil
	}
	if start > len(text) {
		if !backwards {
			return nil
		}
		start = len(text)
	}

	lines := splitLines(text)
	first := lineAt(lines, start)

	if backwards {
		for i := first; i >= 0; i-- {
			ln := lines[i]
			local := len(ln.text)
			if i == first {
				local = min(start-ln.offset, len(ln.text))
			}
			if loc := p.locateIn(ln.text, local, true); loc != nil {
				return shift(loc, ln.offset)
			}
		}
		return nil
	}

	for i := first; i < len(lines); i++ {
		ln := lines[i]
		local := 0
		if i == first {
			local = start - ln.offset
		}
		if loc := p.locateIn(ln.text, local, false); loc != nil {
			return shift(loc, ln.offset)
		}
	}
	return nil
}
