package main

import (
	"context"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/output"
	"github.com/dshills/keysearch/internal/scan"
)

// FindCmd prints every match of a pattern.
type FindCmd struct {
	SearchFlags
	ScanFlags
	Caret   bool `long:"caret" description:"underline each match with carets"`
	Summary bool `long:"summary" description:"print a summary for every file"`

	Args struct {
		Pattern string   `positional-arg-name:"PATTERN" required:"yes"`
		Files   []string `positional-arg-name:"FILE"`
	} `positional-args:"yes"`

	env *env
}

func (c *FindCmd) overlay(cfg *config.Config) error {
	if err := c.SearchFlags.overlay(cfg); err != nil {
		return err
	}
	return c.overlayScan(cfg)
}

// Execute implements flags.Commander.
func (c *FindCmd) Execute(_ []string) error {
	e := c.env
	q, err := e.newQuery(&c.SearchFlags, c.Args.Pattern)
	if err != nil {
		return err
	}
	printer, err := e.printer(c.Caret)
	if err != nil {
		return err
	}
	files, err := e.expand(c.Args.Files, c.Recursive)
	if err != nil {
		return err
	}

	total := 0
	err = scan.Run(context.Background(), files, e.cfg.Scan().Workers,
		func(_ context.Context, path string) (report, error) {
			doc, err := e.readDocument(path)
			if err != nil {
				return report{}, err
			}
			return q.search(path, doc)
		},
		func(r scan.Result[report]) error {
			if r.Err != nil {
				if e.skip(r.Err) {
					return nil
				}
				return r.Err
			}
			total += len(r.Value.hits)
			return q.print(r.Path, r.Value, printer, c.Summary)
		})
	if err != nil {
		return err
	}
	if total == 0 {
		return errNoMatch
	}
	return nil
}

// query is a search prepared from flags and configuration, ready to run
// over any number of documents.
type query struct {
	e         *env
	pattern   string
	opts      find.Options
	cursor    find.Position
	validator find.Validator
}

// report is what a query found in one document.
type report struct {
	hits    []document.Hit
	matches int
	summary string
}

func (e *env) newQuery(sf *SearchFlags, pattern string) (*query, error) {
	search := e.cfg.Search()
	cursor, err := sf.cursor()
	if err != nil {
		return nil, err
	}
	v, err := e.validator(sf)
	if err != nil {
		return nil, err
	}
	q := &query{
		e:         e,
		pattern:   search.NormalizePattern(pattern),
		opts:      search.Options().Without(find.Incremental | find.PromptOnReplace),
		cursor:    cursor,
		validator: v,
	}
	// Surface a bad pattern before any file is read.
	if _, err := find.Compile(q.pattern, q.opts); err != nil {
		return nil, err
	}
	return q, nil
}

// search collects every match in doc. It is safe to call concurrently.
func (q *query) search(path string, doc *document.Document) (report, error) {
	b := document.NewBoundary(q.cursor, q.opts.Has(find.FindBackwards))
	s, err := find.New(q.pattern, q.opts, q.e.sessionOptions(find.AllOf(b, q.validator))...)
	if err != nil {
		return report{}, err
	}
	hits, err := document.FindWrapped(doc, s, q.cursor, b)
	if err != nil {
		return report{}, err
	}
	q.e.log.WithFields(map[string]any{"file": path, "session": s.ID()}).Info("%s", s.Summary())
	return report{hits: hits, matches: s.MatchCount(), summary: s.Summary()}, nil
}

func (q *query) print(path string, r report, printer output.Printer, summary bool) error {
	for _, h := range r.hits {
		if err := printer.Hit(path, h); err != nil {
			return err
		}
	}
	if !summary {
		return nil
	}
	return printer.Summary(output.Summary{Path: path, Matches: r.matches, Message: r.summary})
}

// run searches doc and prints the result, returning the number of hits.
func (q *query) run(path string, doc *document.Document, printer output.Printer, summary bool) (int, error) {
	r, err := q.search(path, doc)
	if err != nil {
		return 0, err
	}
	return len(r.hits), q.print(path, r, printer, summary)
}
