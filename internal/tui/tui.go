// Package tui is a full-screen incremental search over one document.
//
// Typing extends the pattern and backspace shortens it; both are answered
// by an incremental session so the highlighted match follows every
// keystroke. Ctrl-S or Down moves to the next match, Enter accepts the
// current match and Escape or Ctrl-C cancels. Reload swaps in new document
// text while the search is live.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
)

// ErrNotIncremental is returned by New for a session without the
// Incremental option.
var ErrNotIncremental = errors.New("tui needs an incremental session")

// Result is what the user settled on.
type Result struct {
	Pattern string
	Hit     document.Hit
	// Found is false when the final pattern had no match.
	Found bool
	// Canceled is set when the user left with Escape or Ctrl-C.
	Canceled bool
}

// reload carries new document lines through the event queue.
type reload struct{ lines []string }

// App is the interactive search screen.
type App struct {
	screen tcell.Screen
	doc    *document.Document
	finder *document.Finder
	s      *find.Session
	log    *logging.Logger
	title  string
	styles styles

	pattern []rune
	hit     document.Hit
	found   bool
	failed  bool
	errMsg  string
	top     int

	result *Result
}

// Option configures an App.
type Option func(*App)

// WithHighlight sets the match highlight colour.
func WithHighlight(c colorful.Color) Option {
	return func(a *App) {
		a.styles.match = tcell.StyleDefault.
			Background(tcell.GetColor(c.Hex())).
			Foreground(tcell.ColorBlack)
	}
}

// WithTitle sets the text shown at the start of the status line.
func WithTitle(title string) Option {
	return func(a *App) { a.title = title }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// New creates an App drawing on screen, which must already be initialised.
func New(screen tcell.Screen, doc *document.Document, s *find.Session, opts ...Option) (*App, error) {
	if !s.Options().Has(find.Incremental) {
		return nil, ErrNotIncremental
	}
	a := &App{
		screen: screen,
		doc:    doc,
		s:      s,
		finder: document.NewFinder(doc, s, find.Position{}),
		log:    logging.Discard,
		styles: defaultStyles(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("tui")
	return a, nil
}

// Run handles events until the user accepts or cancels, or ctx is done.
func (a *App) Run(ctx context.Context) (Result, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
	})
	defer stop()

	a.Draw()
	for a.result == nil {
		ev := a.screen.PollEvent()
		if ev == nil {
			return a.finish(true), nil
		}
		if ie, ok := ev.(*tcell.EventInterrupt); ok {
			if err, ok := ie.Data().(error); ok {
				return a.finish(true), err
			}
		}
		a.HandleEvent(ev)
		if a.result == nil {
			a.Draw()
		}
	}
	return *a.result, nil
}

// Reload replaces the document text. It is safe to call from any
// goroutine; the change is applied by Run.
func (a *App) Reload(lines []string) error {
	return a.screen.PostEvent(tcell.NewEventInterrupt(reload{lines: lines}))
}

// HandleEvent applies one event. It reports whether the App is done.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(e)
	case *tcell.EventInterrupt:
		if r, ok := e.Data().(reload); ok {
			a.applyReload(r.lines)
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return a.result != nil
}

func (a *App) handleKey(e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC, tcell.KeyCtrlG:
		a.finish(true)
	case tcell.KeyEnter:
		a.finish(false)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.pattern) > 0 {
			a.pattern = a.pattern[:len(a.pattern)-1]
			a.search()
		}
	case tcell.KeyCtrlS, tcell.KeyDown:
		a.next()
	case tcell.KeyRune:
		a.pattern = append(a.pattern, e.Rune())
		a.search()
	}
}

// search re-evaluates the live pattern.
func (a *App) search() {
	h, ok, err := a.finder.Type(string(a.pattern))
	a.apply(h, ok, err)
}

// next moves to the following match of the live pattern.
func (a *App) next() {
	if a.failed {
		return
	}
	h, ok, err := a.finder.Next()
	a.apply(h, ok, err)
}

func (a *App) apply(h document.Hit, ok bool, err error) {
	a.errMsg = ""
	if err != nil {
		a.errMsg = err.Error()
		a.log.Debug("pattern %q: %v", string(a.pattern), err)
		return
	}
	a.failed = !ok
	if ok {
		a.hit, a.found = h, true
		a.scrollTo(h.Line)
	}
}

func (a *App) applyReload(lines []string) {
	changed := a.finder.Sync(lines)
	a.log.Debug("reload: %d lines changed", len(changed))
	if len(changed) == 0 {
		return
	}
	if a.found && a.hit.Line >= a.doc.Len() {
		a.found = false
	}
	a.search()
}

func (a *App) finish(canceled bool) Result {
	r := Result{
		Pattern:  string(a.pattern),
		Hit:      a.hit,
		Found:    a.found && !a.failed && len(a.pattern) > 0,
		Canceled: canceled,
	}
	a.result = &r
	return r
}

// scrollTo keeps line inside the text area.
func (a *App) scrollTo(line int) {
	_, h := a.screen.Size()
	rows := max(h-1, 1)
	switch {
	case line < a.top:
		a.top = line
	case line >= a.top+rows:
		a.top = line - rows + 1
	}
}

// Status returns the status line text.
func (a *App) Status() string {
	label := "I-search"
	if a.failed {
		label = "Failing I-search"
	}
	if a.title != "" {
		label = a.title + " " + label
	}
	status := fmt.Sprintf("%s: %s", label, string(a.pattern))
	if a.errMsg != "" {
		status += "  [" + a.errMsg + "]"
	} else if a.found && !a.failed && len(a.pattern) > 0 {
		status += fmt.Sprintf("  [line %d, column %d]", a.hit.Line+1, a.hit.Offset+1)
	}
	return status
}
