package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/tui"
	"github.com/dshills/keysearch/internal/watch"
)

// IsearchCmd searches one file interactively as the pattern is typed.
type IsearchCmd struct {
	SearchFlags
	NoWatch bool `long:"no-watch" description:"do not reload the file when it changes on disk"`

	Args struct {
		File string `positional-arg-name:"FILE" required:"yes"`
	} `positional-args:"yes"`

	env *env
}

// Execute implements flags.Commander.
func (c *IsearchCmd) Execute(_ []string) error {
	e := c.env
	path := c.Args.File
	doc, err := e.readDocument(path)
	if err != nil {
		return err
	}

	opts := e.cfg.Search().Options().With(find.Incremental).Without(find.FromCursor | find.PromptOnReplace)
	v, err := e.validator(&c.SearchFlags)
	if err != nil {
		return err
	}
	s, err := find.New("", opts, e.sessionOptions(v)...)
	if err != nil {
		return err
	}
	color, err := e.cfg.Output().Color()
	if err != nil {
		return err
	}

	screen, err := e.newScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	app, err := tui.New(screen, doc, s,
		tui.WithHighlight(color),
		tui.WithTitle(path),
		tui.WithLogger(e.log))
	if err != nil {
		screen.Fini()
		return err
	}

	if !c.NoWatch && path != stdinName {
		stop, err := c.follow(path, app)
		if err != nil {
			screen.Fini()
			return err
		}
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	res, err := app.Run(ctx)
	screen.Fini()
	if err != nil {
		return err
	}
	if res.Canceled || !res.Found {
		return errNoMatch
	}

	printer, err := e.printer(false)
	if err != nil {
		return err
	}
	return printer.Hit(path, res.Hit)
}

// follow reloads path into app whenever it changes. The returned function
// stops watching.
func (c *IsearchCmd) follow(path string, app *tui.App) (func(), error) {
	e := c.env
	w, err := watch.New(
		watch.WithDebounce(e.cfg.Watch().Debounce),
		watch.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ch := range w.Changes() {
			if ch.Removed {
				continue
			}
			doc, err := e.readDocument(path)
			if err != nil {
				e.log.Warn("reload: %v", err)
				continue
			}
			if err := app.Reload(doc.Lines()); err != nil {
				e.log.Warn("reload: %v", err)
			}
		}
	}()

	return func() {
		w.Close()
		<-done
	}, nil
}
