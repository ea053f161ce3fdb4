package main

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/notify"
	"github.com/dshills/keysearch/internal/output"
	"github.com/dshills/keysearch/internal/scan"
)

// ReplaceCmd replaces matches of a pattern, rewriting the files.
type ReplaceCmd struct {
	SearchFlags
	ScanFlags
	Prompt  bool `short:"p" long:"prompt" description:"ask before every replacement"`
	BackRef bool `short:"r" long:"backref" description:"expand \\0 to \\9 in the replacement"`
	DryRun  bool `short:"n" long:"dry-run" description:"print the result instead of rewriting files"`

	Args struct {
		Pattern     string   `positional-arg-name:"PATTERN" required:"yes"`
		Replacement string   `positional-arg-name:"REPLACEMENT" required:"yes"`
		Files       []string `positional-arg-name:"FILE"`
	} `positional-args:"yes"`

	env *env
}

func (c *ReplaceCmd) overlay(cfg *config.Config) error {
	if err := c.SearchFlags.overlay(cfg); err != nil {
		return err
	}
	if err := c.overlayScan(cfg); err != nil {
		return err
	}
	if c.Prompt {
		if err := cfg.Set("search.prompt", true); err != nil {
			return err
		}
	}
	if c.BackRef {
		return cfg.Set("search.backReference", true)
	}
	return nil
}

// replaced is the outcome of replacing in one document.
type replaced struct {
	doc     *document.Document
	count   int
	matches int
	summary string
}

// Execute implements flags.Commander.
func (c *ReplaceCmd) Execute(_ []string) error {
	e := c.env
	search := e.cfg.Search()
	pattern := search.NormalizePattern(c.Args.Pattern)
	template := search.NormalizePattern(c.Args.Replacement)
	opts := search.Options().Without(find.Incremental)
	if _, err := find.Compile(pattern, opts); err != nil {
		return err
	}

	cursor, err := c.cursor()
	if err != nil {
		return err
	}
	v, err := e.validator(&c.SearchFlags)
	if err != nil {
		return err
	}
	files, err := e.expand(c.Args.Files, c.Recursive)
	if err != nil {
		return err
	}
	if opts.Has(find.PromptOnReplace) && slices.Contains(files, stdinName) {
		return errors.New("prompting reads answers from standard input, so the text must come from files")
	}

	// Summaries move to stderr when stdout carries the rewritten text.
	var summaries io.Writer = e.stdout
	if c.DryRun || slices.Contains(files, stdinName) {
		summaries = e.stderr
	}
	printer, err := e.printerTo(summaries, false)
	if err != nil {
		return err
	}

	job := func(_ context.Context, path string) (replaced, error) {
		doc, err := e.readDocument(path)
		if err != nil {
			return replaced{}, err
		}
		b := document.NewBoundary(cursor, opts.Has(find.FindBackwards))
		n := notify.New()
		defer n.Close()
		n.SubscribeKind(notify.KindReplaced, b.Observe)
		log := e.log.WithField("file", path)
		n.SubscribeKind(notify.KindReplaced, func(ev notify.Event) {
			log.Debug("line %d: replaced %d bytes at %d with %d", ev.Fragment+1, ev.Length, ev.Offset, ev.ReplacedLength)
		})

		r, err := find.NewReplacer(pattern, template, opts, e.sessionOptions(find.AllOf(b, v), find.WithNotifier(n))...)
		if err != nil {
			return replaced{}, err
		}
		var decide document.Decider
		if opts.Has(find.PromptOnReplace) {
			decide = e.newPrompter().Decider(path)
		}
		count, err := document.ReplaceWrapped(doc, r, cursor, b, decide)
		if err != nil {
			return replaced{}, err
		}
		log.Info("%s", r.Summary())
		return replaced{doc: doc, count: count, matches: r.MatchCount(), summary: r.Summary()}, nil
	}

	total := 0
	emit := func(res scan.Result[replaced]) error {
		if res.Err != nil {
			if e.skip(res.Err) {
				return nil
			}
			return res.Err
		}
		rep := res.Value
		total += rep.count

		dest := res.Path
		if c.DryRun {
			dest = stdinName
		}
		if rep.count > 0 || dest == stdinName {
			if err := e.writeDocument(dest, rep.doc); err != nil {
				return err
			}
		}
		return printer.Summary(output.Summary{
			Path:         res.Path,
			Matches:      rep.matches,
			Replacements: rep.count,
			Message:      rep.summary,
		})
	}

	if opts.Has(find.PromptOnReplace) {
		// One file at a time so questions follow the previous summary.
		for _, path := range files {
			rep, jobErr := job(context.Background(), path)
			if err := emit(scan.Result[replaced]{Path: path, Value: rep, Err: jobErr}); err != nil {
				return err
			}
		}
	} else if err := scan.Run(context.Background(), files, e.cfg.Scan().Workers, job, emit); err != nil {
		return err
	}

	if total == 0 {
		return errNoMatch
	}
	return nil
}
