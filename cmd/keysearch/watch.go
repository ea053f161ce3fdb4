package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/watch"
)

// WatchCmd prints the matches in a set of files and prints them again
// every time one of the files changes.
type WatchCmd struct {
	SearchFlags
	ScanFlags
	Caret bool `long:"caret" description:"underline each match with carets"`

	Args struct {
		Pattern string   `positional-arg-name:"PATTERN" required:"yes"`
		Files   []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`

	env *env

	// ctx ends the command; nil means until interrupted.
	ctx context.Context
}

func (c *WatchCmd) overlay(cfg *config.Config) error {
	if err := c.SearchFlags.overlay(cfg); err != nil {
		return err
	}
	return c.overlayScan(cfg)
}

// Execute implements flags.Commander.
func (c *WatchCmd) Execute(_ []string) error {
	e := c.env
	q, err := e.newQuery(&c.SearchFlags, c.Args.Pattern)
	if err != nil {
		return err
	}
	printer, err := e.printer(c.Caret)
	if err != nil {
		return err
	}

	w, err := watch.New(
		watch.WithDebounce(e.cfg.Watch().Debounce),
		watch.WithLogger(e.log))
	if err != nil {
		return err
	}
	defer w.Close()

	rescan := func(path string) error {
		doc, err := e.readDocument(path)
		if err != nil {
			if e.skip(err) {
				return nil
			}
			return err
		}
		_, err = q.run(path, doc, printer, true)
		return err
	}

	files, err := e.expand(c.Args.Files, c.Recursive)
	if err != nil {
		return err
	}
	// Changes report absolute paths; print the names as given.
	names := make(map[string]string)
	for _, path := range files {
		if err := w.Add(path); err != nil {
			return err
		}
		if abs, err := filepath.Abs(path); err == nil {
			names[abs] = path
		}
		if err := rescan(path); err != nil {
			return err
		}
	}

	ctx := c.ctx
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
	}

	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-w.Changes():
			if !ok {
				return nil
			}
			if ch.Removed {
				e.log.Warn("%s was removed", ch.Path)
				continue
			}
			path := ch.Path
			if name, ok := names[path]; ok {
				path = name
			}
			if err := rescan(path); err != nil {
				e.log.Error("%v", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			e.log.Warn("watch: %v", err)
		}
	}
}
