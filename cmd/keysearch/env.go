package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keysearch/internal/config"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
	"github.com/dshills/keysearch/internal/luafilter"
	"github.com/dshills/keysearch/internal/output"
	"github.com/dshills/keysearch/internal/prompt"
)

// env holds what commands share: standard streams, the loaded
// configuration and the logger.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// newScreen opens the terminal for isearch.
	newScreen func() (tcell.Screen, error)
	// newPrompter creates the reader for replace decisions.
	newPrompter func() *prompt.Prompter

	cfg *config.Config
	log *logging.Logger

	closers []func()
}

func newEnv(stdin *os.File, stdout, stderr io.Writer) *env {
	return &env{
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		newScreen:   tcell.NewScreen,
		newPrompter: func() *prompt.Prompter { return prompt.New(stdin, stderr) },
		log:         logging.Discard,
	}
}

// overlayer is implemented by commands whose flags override configuration.
type overlayer interface {
	overlay(cfg *config.Config) error
}

// setup loads configuration for cmd: defaults, file, environment, then
// command line flags.
func (e *env) setup(opts *Options, cmd any) error {
	var cfgOpts []config.Option
	if opts.Config != "" {
		cfgOpts = append(cfgOpts, config.WithFile(opts.Config))
	}
	e.cfg = config.New(cfgOpts...)
	if err := e.cfg.Load(); err != nil {
		return err
	}

	global := []struct {
		path  string
		value string
	}{
		{"logging.level", opts.LogLevel},
		{"output.format", opts.Format},
		{"output.highlightColor", opts.Color},
	}
	for _, g := range global {
		if g.value == "" {
			continue
		}
		if err := e.cfg.Set(g.path, g.value); err != nil {
			return err
		}
	}
	if o, ok := cmd.(overlayer); ok {
		if err := o.overlay(e.cfg); err != nil {
			return err
		}
	}
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	e.log = logging.New(e.cfg.Logging().LoggerConfig(e.stderr))
	e.log.Debug("configuration sources: %v", e.cfg.Sources())
	return nil
}

// close releases what commands registered with defer.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

func (e *env) onClose(fn func()) {
	e.closers = append(e.closers, fn)
}

// printer returns the configured result printer writing to stdout.
func (e *env) printer(caret bool) (output.Printer, error) {
	return e.printerTo(e.stdout, caret)
}

func (e *env) printerTo(w io.Writer, caret bool) (output.Printer, error) {
	return output.FromConfig(e.cfg.Output(), w, caret)
}

// validator builds the extra validation for a session from the search
// flags and the Lua section. It returns nil when nothing restricts matches.
func (e *env) validator(sf *SearchFlags, extra ...find.Validator) (find.Validator, error) {
	validators := extra

	if sel, ok, err := sf.selection(); err != nil {
		return nil, err
	} else if ok && e.cfg.Search().SelectedText {
		validators = append(validators, sel)
	}

	if lua := e.cfg.Lua(); lua.Enabled() {
		f, err := luafilter.Load(lua.Script,
			luafilter.WithFunction(lua.Function),
			luafilter.WithTimeout(lua.Timeout),
			luafilter.WithLogger(e.log))
		if err != nil {
			return nil, err
		}
		e.onClose(func() {
			if err := f.Err(); err != nil {
				e.log.Warn("lua filter: %v", err)
			}
			calls, rejected := f.Stats()
			e.log.Debug("lua filter: %d calls, %d rejected", calls, rejected)
			f.Close()
		})
		validators = append(validators, f)
	}

	switch len(validators) {
	case 0:
		return nil, nil
	case 1:
		return validators[0], nil
	default:
		return find.AllOf(validators...), nil
	}
}

// sessionOptions returns the options shared by every session a command
// creates.
func (e *env) sessionOptions(v find.Validator, extra ...find.SessionOption) []find.SessionOption {
	opts := []find.SessionOption{find.WithLogger(e.log.WithComponent("find"))}
	if v != nil {
		opts = append(opts, find.WithValidator(v))
	}
	return append(opts, extra...)
}
