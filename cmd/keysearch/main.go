// Package main is the keysearch command line tool.
//
// keysearch finds and replaces text in files with the same engine an
// editor uses for its find and replace dialogs, including an interactive
// incremental search.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes. A search that finds nothing exits with exitNoMatch like grep.
const (
	exitOK      = 0
	exitNoMatch = 1
	exitError   = 2
)

// errNoMatch is returned by commands that found nothing.
var errNoMatch = errors.New("no matches")

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Config   string `short:"c" long:"config" value-name:"FILE" description:"configuration file (TOML or YAML)"`
	LogLevel string `long:"log-level" value-name:"LEVEL" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	Format   string `long:"format" choice:"text" choice:"json" description:"output format"`
	Color    string `long:"color" value-name:"HEX" description:"match highlight colour"`
	Version  bool   `short:"v" long:"version" description:"show version information"`

	Find    FindCmd    `command:"find" description:"Print every match of a pattern"`
	Replace ReplaceCmd `command:"replace" description:"Replace matches of a pattern"`
	Isearch IsearchCmd `command:"isearch" description:"Search a file interactively as you type"`
	Watch   WatchCmd   `command:"watch" description:"Print matches again whenever the files change"`
}

func main() {
	os.Exit(run(os.Args[1:], newEnv(os.Stdin, os.Stdout, os.Stderr)))
}

func run(args []string, e *env) int {
	opts := &Options{}
	opts.Find.env = e
	opts.Replace.env = e
	opts.Isearch.env = e
	opts.Watch.env = e

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if opts.Version {
			fmt.Fprintf(e.stdout, "keysearch %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
			return nil
		}
		if cmd == nil {
			return errors.New("no command given, see --help")
		}
		if err := e.setup(opts, cmd); err != nil {
			return err
		}
		defer e.close()
		return cmd.Execute(args)
	}

	_, err := parser.ParseArgs(args)
	return exitCode(err, e.stdout, e.stderr)
}

func exitCode(err error, stdout, stderr io.Writer) int {
	var ferr *flags.Error
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errNoMatch):
		return exitNoMatch
	case errors.As(err, &ferr) && ferr.Type == flags.ErrHelp:
		fmt.Fprintln(stdout, ferr.Message)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}
