package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/find"
)

// SearchFlags are the search options shared by every command. Positions
// and line numbers on the command line are 1-based.
type SearchFlags struct {
	CaseSensitive bool   `short:"s" long:"case-sensitive" description:"match letter case exactly"`
	IgnoreCase    bool   `short:"i" long:"ignore-case" description:"fold letter case (overrides configuration)"`
	WholeWords    bool   `short:"w" long:"word" description:"only match whole words"`
	Regex         bool   `short:"e" long:"regex" description:"treat the pattern as a regular expression"`
	Backwards     bool   `short:"b" long:"backwards" description:"search from the end towards the start"`
	At            string `long:"at" value-name:"LINE[:COL]" description:"start at a position and wrap around once"`
	Lines         string `long:"lines" value-name:"FROM[:TO]" description:"only match within a line range"`
	Lua           string `long:"lua" value-name:"FILE" description:"Lua script that accepts or rejects each match"`
	LuaFunction   string `long:"lua-function" value-name:"NAME" description:"Lua function to call (default accept)"`
}

func (f *SearchFlags) overlay(cfg *config.Config) error {
	settings := []struct {
		on    bool
		path  string
		value any
	}{
		{f.CaseSensitive, "search.caseSensitive", true},
		{f.IgnoreCase, "search.caseSensitive", false},
		{f.WholeWords, "search.wholeWords", true},
		{f.Regex, "search.regex", true},
		{f.Backwards, "search.backwards", true},
		{f.At != "", "search.fromCursor", true},
		{f.Lines != "", "search.selectedText", true},
		{f.Lua != "", "lua.script", f.Lua},
		{f.LuaFunction != "", "lua.function", f.LuaFunction},
	}
	for _, s := range settings {
		if !s.on {
			continue
		}
		if err := cfg.Set(s.path, s.value); err != nil {
			return err
		}
	}
	if _, err := f.cursor(); err != nil {
		return err
	}
	_, _, err := f.selection()
	return err
}

// cursor returns the --at position as a zero-based find.Position.
func (f *SearchFlags) cursor() (find.Position, error) {
	if f.At == "" {
		return find.Position{}, nil
	}
	line, col, err := parsePair(f.At, 1)
	if err != nil {
		return find.Position{}, fmt.Errorf("--at %q: %w", f.At, err)
	}
	return find.Position{Fragment: find.FragmentID(line - 1), Offset: col - 1}, nil
}

// selection returns the --lines range as a validator.
func (f *SearchFlags) selection() (find.SelectionValidator, bool, error) {
	if f.Lines == "" {
		return find.SelectionValidator{}, false, nil
	}
	from, to, err := parsePair(f.Lines, -1)
	if to == -1 {
		to = from
	}
	if err != nil {
		return find.SelectionValidator{}, false, fmt.Errorf("--lines %q: %w", f.Lines, err)
	}
	if to < from {
		return find.SelectionValidator{}, false, fmt.Errorf("--lines %q: range ends before it starts", f.Lines)
	}
	return find.SelectionValidator{
		Start: find.Position{Fragment: find.FragmentID(from - 1)},
		End:   find.Position{Fragment: find.FragmentID(to - 1), Offset: math.MaxInt32},
	}, true, nil
}

// parsePair parses "A" or "A:B" of positive integers. B defaults to def.
func parsePair(s string, def int) (int, int, error) {
	first, second, hasSecond := strings.Cut(s, ":")
	a, err := strconv.Atoi(first)
	if err != nil || a < 1 {
		return 0, 0, fmt.Errorf("%q is not a positive number", first)
	}
	if !hasSecond {
		return a, def, nil
	}
	b, err := strconv.Atoi(second)
	if err != nil || b < 1 {
		return 0, 0, fmt.Errorf("%q is not a positive number", second)
	}
	return a, b, nil
}

// ScanFlags select the files to work on.
type ScanFlags struct {
	Recursive bool     `short:"R" long:"recursive" description:"search directories recursively"`
	Include   []string `long:"include" value-name:"GLOB" description:"only search files matching GLOB (repeatable)"`
	Exclude   []string `long:"exclude" value-name:"GLOB" description:"skip files and directories matching GLOB (repeatable)"`
	Jobs      int      `short:"j" long:"jobs" value-name:"N" description:"number of files searched at once"`
}

// overlayScan adds the flags to the scan section. Excludes extend the
// configured list; includes replace it.
func (f *ScanFlags) overlayScan(cfg *config.Config) error {
	if len(f.Include) > 0 {
		if err := cfg.Set("scan.include", f.Include); err != nil {
			return err
		}
	}
	if len(f.Exclude) > 0 {
		exclude := append(cfg.Scan().Exclude, f.Exclude...)
		if err := cfg.Set("scan.exclude", exclude); err != nil {
			return err
		}
	}
	if f.Jobs != 0 {
		return cfg.Set("scan.workers", f.Jobs)
	}
	return nil
}
