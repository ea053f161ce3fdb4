package find

import (
	"strings"

	"github.com/coregx/coregex"
)

// Kind distinguishes literal patterns from regular expressions.
type Kind int

const (
	// Literal patterns match their text verbatim.
	Literal Kind = iota
	// Structured patterns are regular expressions.
	Structured
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Structured {
		return "structured"
	}
	return "literal"
}

// Pattern is an immutable compiled search pattern.
type Pattern struct {
	expr          string
	kind          Kind
	caseSensitive bool
	wholeWords    bool

	re            *coregex.Regexp
	lead          *coregex.Regexp
	anchoredStart bool
	anchoredEnd   bool
}

// Compile builds a Pattern from expr. RegularExpression selects the
// structured variant; CaseSensitive and WholeWordsOnly apply to both.
func Compile(expr string, opts Options) (*Pattern, error) {
	p := &Pattern{
		expr:          expr,
		kind:          Literal,
		caseSensitive: opts.Has(CaseSensitive),
		wholeWords:    opts.Has(WholeWordsOnly),
	}
	if !opts.Has(RegularExpression) {
		return p, nil
	}

	src := expr
	if !p.caseSensitive {
		src = "(?i)" + src
	}
	re, err := coregex.Compile(src)
	if err != nil {
		return nil, &PatternError{Expr: expr, Err: err}
	}
	p.kind = Structured
	p.re = re
	// lead consumes the character before a search start so assertions
	// such as \b still see it.
	if lead, err := coregex.Compile("(?s:.)(?:" + src + ")"); err == nil {
		p.lead = lead
	}
	p.anchoredStart = strings.HasPrefix(expr, "^")
	p.anchoredEnd = hasUnescapedSuffix(expr, '$')
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, opts Options) *Pattern {
	p, err := Compile(expr, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression the pattern was compiled from.
func (p *Pattern) String() string { return p.expr }

// Kind returns whether p is literal or structured.
func (p *Pattern) Kind() Kind { return p.kind }

// IsEmpty reports whether the expression is the empty string.
func (p *Pattern) IsEmpty() bool { return p.expr == "" }

// Groups returns the number of capture groups. Literal patterns have none.
func (p *Pattern) Groups() int {
	if p.re == nil {
		return 0
	}
	return p.re.NumSubexp()
}

// Anchored reports whether the expression begins with ^ or ends with an
// unescaped $. Anchored patterns are matched line by line.
func (p *Pattern) Anchored() bool {
	return p.anchoredStart || p.anchoredEnd
}

// steppable reports whether the first match of every prefix of p lies at
// or before the first match of p, which is what incremental stepping
// relies on.
func (p *Pattern) steppable() bool {
	return p.kind == Literal && !p.wholeWords
}

// prefix returns a literal pattern for the first n bytes of p's expression.
func (p *Pattern) prefix(n int) *Pattern {
	q := *p
	q.expr = p.expr[:n]
	return &q
}

// Locate finds p in text. Forward searches return the first match starting
// at or after start; backward searches return the last match starting at or
// before start. The result holds the match span followed by capture group
// spans, fragment-relative, with -1 for groups that did not participate.
// A nil result means no match.
func (p *Pattern) Locate(text string, start int, backwards bool) []int {
	if p.Anchored() {
		return p.locateLines(text, start, backwards)
	}
	return p.locateIn(text, start, backwards)
}

func hasUnescapedSuffix(s string, c byte) bool {
	if len(s) == 0 || s[len(s)-1] != c {
		return false
	}
	slashes := 0
	for i := len(s) - 2; i >= 0 && s[i] == '\\'; i-- {
		slashes++
	}
	return slashes%2 == 0
}
