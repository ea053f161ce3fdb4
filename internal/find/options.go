package find

import (
	"fmt"
	"strings"
)

// Options is a set of flags controlling a search.
type Options uint32

const (
	// CaseSensitive matches letter case exactly.
	CaseSensitive Options = 1 << iota
	// WholeWordsOnly rejects matches touching a word character on either side.
	WholeWordsOnly
	// FromCursor starts the search at a caller-supplied position.
	FromCursor
	// SelectedTextOnly restricts matches to the caller's selection.
	SelectedTextOnly
	// FindBackwards searches toward the start of the text.
	FindBackwards
	// RegularExpression treats the pattern as a regular expression.
	RegularExpression
	// Incremental enables the prefix match cache.
	Incremental
	// PromptOnReplace asks for a decision before each replacement.
	PromptOnReplace
	// BackReference expands \0 to \9 in replacement templates.
	BackReference
)

var optionNames = []struct {
	flag Options
	name string
}{
	{CaseSensitive, "caseSensitive"},
	{WholeWordsOnly, "wholeWords"},
	{FromCursor, "fromCursor"},
	{SelectedTextOnly, "selectedText"},
	{FindBackwards, "backwards"},
	{RegularExpression, "regex"},
	{Incremental, "incremental"},
	{PromptOnReplace, "prompt"},
	{BackReference, "backReference"},
}

// Has reports whether every flag in flag is set.
func (o Options) Has(flag Options) bool {
	return o&flag == flag
}

// With returns o with flag set.
func (o Options) With(flag Options) Options {
	return o | flag
}

// Without returns o with flag cleared.
func (o Options) Without(flag Options) Options {
	return o &^ flag
}

// String returns the set flag names joined by "|".
func (o Options) String() string {
	if o == 0 {
		return "none"
	}
	var names []string
	for _, n := range optionNames {
		if o.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseOptions converts flag names (as printed by String) into Options.
func ParseOptions(names ...string) (Options, error) {
	var o Options
	for _, name := range names {
		found := false
		for _, n := range optionNames {
			if strings.EqualFold(n.name, name) {
				o |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown option %q", name)
		}
	}
	return o, nil
}

// matching is the subset of options that affects pattern compilation.
const matching = CaseSensitive | WholeWordsOnly | RegularExpression
