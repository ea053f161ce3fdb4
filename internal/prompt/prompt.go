// Package prompt asks the user what to do with each proposed replacement.
//
// On a terminal the answer is a single key read in raw mode. Otherwise
// answers are read a line at a time, which keeps scripted input and tests
// simple.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/output"
)

const question = "Replace? [y]es [n]o [a]ll [q]uit: "

// Prompter shows proposals and reads decisions.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// fd is the terminal file descriptor, or -1 when input is not a
	// terminal.
	fd int
}

// New creates a prompter reading from in. A terminal is put into raw mode
// for each answer.
func New(in *os.File, out io.Writer) *Prompter {
	p := NewReader(in, out)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		p.fd = fd
	}
	return p
}

// NewReader creates a prompter that reads one answer per line.
func NewReader(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// Decider returns a document.Decider that labels proposals with path.
func (p *Prompter) Decider(path string) document.Decider {
	return func(prop find.Proposal) (find.Decision, error) {
		return p.Ask(path, prop)
	}
}

// Ask shows prop and waits for an answer. End of input and q both stop
// the run with document.ErrStop. Unrecognised answers repeat the question.
func (p *Prompter) Ask(path string, prop find.Proposal) (find.Decision, error) {
	if err := p.show(path, prop); err != nil {
		return 0, err
	}
	for {
		if _, err := io.WriteString(p.out, question); err != nil {
			return 0, err
		}
		key, err := p.read()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return 0, document.ErrStop
		}
		if err != nil {
			return 0, err
		}
		if p.fd >= 0 {
			fmt.Fprintln(p.out)
		}

		d, ok, stop := Parse(key)
		if stop {
			return 0, document.ErrStop
		}
		if ok {
			return d, nil
		}
	}
}

func (p *Prompter) show(path string, prop find.Proposal) error {
	lead := fmt.Sprintf("%s:%d:%d: ", path, int(prop.Fragment)+1, prop.Offset+1)
	before := prop.Original[:min(prop.Offset, len(prop.Original))]
	_, err := fmt.Fprintf(p.out, "%s%s\n%s\n%s%s\n",
		lead, prop.Original,
		output.Caret(lead+before, prop.Matched),
		strings.Repeat(" ", max(len(lead)-3, 0))+"-> ", prop.Preview)
	return err
}

// read returns the next answer: one key in raw mode, otherwise the first
// rune of the next non-empty line.
func (p *Prompter) read() (rune, error) {
	if p.fd >= 0 {
		state, err := term.MakeRaw(p.fd)
		if err != nil {
			return 0, fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(p.fd, state)

		r, _, err := p.in.ReadRune()
		return r, err
	}

	for {
		line, err := p.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			r := []rune(line)[0]
			return r, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Parse maps an answer key to a decision. stop is set for keys that end
// the run; ok is false for keys with no meaning.
func Parse(key rune) (d find.Decision, ok bool, stop bool) {
	switch key {
	case 'y', 'Y', ' ':
		return find.DecideReplace, true, false
	case 'n', 'N', 0x7f:
		return find.DecideSkip, true, false
	case 'a', 'A', '!':
		return find.DecideReplaceAll, true, false
	case 'q', 'Q', 0x1b, 0x03:
		return 0, false, true
	default:
		return 0, false, false
	}
}
