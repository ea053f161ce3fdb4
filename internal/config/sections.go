package config

import (
	"io"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// SearchConfig holds the default search options.
type SearchConfig struct {
	CaseSensitive bool
	WholeWords    bool
	Regex         bool
	Backwards     bool
	FromCursor    bool
	Incremental   bool
	Prompt        bool
	BackReference bool
	SelectedText  bool

	// Normalize applies Unicode NFC normalization to typed patterns.
	Normalize bool
}

// Options converts the section to a find option set.
func (s SearchConfig) Options() find.Options {
	flags := []struct {
		on   bool
		flag find.Options
	}{
		{s.CaseSensitive, find.CaseSensitive},
		{s.WholeWords, find.WholeWordsOnly},
		{s.Regex, find.RegularExpression},
		{s.Backwards, find.FindBackwards},
		{s.FromCursor, find.FromCursor},
		{s.Incremental, find.Incremental},
		{s.Prompt, find.PromptOnReplace},
		{s.BackReference, find.BackReference},
		{s.SelectedText, find.SelectedTextOnly},
	}
	var opts find.Options
	for _, f := range flags {
		if f.on {
			opts = opts.With(f.flag)
		}
	}
	return opts
}

// NormalizePattern returns p in NFC form when Normalize is set.
func (s SearchConfig) NormalizePattern(p string) string {
	if !s.Normalize {
		return p
	}
	return norm.NFC.String(p)
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is text or json.
	Format string
}

// LoggerConfig converts the section to a logging.Config writing to w.
func (l LoggingConfig) LoggerConfig(w io.Writer) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(l.Level)
	if strings.EqualFold(l.Format, "json") {
		cfg.Format = logging.FormatJSON
	}
	if w != nil {
		cfg.Output = w
	}
	return cfg
}

func (l LoggingConfig) validate() []error {
	var errs []error
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Path: "logging.level", Message: "unknown level", Value: l.Level})
	}
	if !oneOf(l.Format, "text", "json") {
		errs = append(errs, &ValidationError{Path: "logging.format", Message: "must be text or json", Value: l.Format})
	}
	return errs
}

// OutputConfig holds result printer settings.
type OutputConfig struct {
	// Format is text or json.
	Format string
	// HighlightColor is the hex colour used to highlight matches.
	HighlightColor string
}

// Color parses HighlightColor.
func (o OutputConfig) Color() (colorful.Color, error) {
	return colorful.Hex(o.HighlightColor)
}

// JSON reports whether results are printed as JSON lines.
func (o OutputConfig) JSON() bool {
	return strings.EqualFold(o.Format, "json")
}

func (o OutputConfig) validate() []error {
	var errs []error
	if !oneOf(o.Format, "text", "json") {
		errs = append(errs, &ValidationError{Path: "output.format", Message: "must be text or json", Value: o.Format})
	}
	if _, err := o.Color(); err != nil {
		errs = append(errs, &ValidationError{Path: "output.highlightColor", Message: "not a hex colour", Value: o.HighlightColor})
	}
	return errs
}

// LuaConfig holds the Lua match filter settings.
type LuaConfig struct {
	// Script is the path of the filter script. Empty disables filtering.
	Script string
	// Function is the global function called for every candidate.
	Function string
	// Timeout bounds one call of Function. Zero means unlimited.
	Timeout time.Duration
}

// Enabled reports whether a filter script is configured.
func (l LuaConfig) Enabled() bool { return l.Script != "" }

func (l LuaConfig) validate() []error {
	var errs []error
	if l.Enabled() && l.Function == "" {
		errs = append(errs, &ValidationError{Path: "lua.function", Message: "required when lua.script is set", Value: l.Function})
	}
	if l.Timeout < 0 {
		errs = append(errs, &ValidationError{Path: "lua.timeout", Message: "must not be negative", Value: l.Timeout})
	}
	return errs
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	// Debounce is how long to wait for writes to settle before re-searching.
	Debounce time.Duration
}

func (w WatchConfig) validate() []error {
	if w.Debounce < 0 {
		return []error{&ValidationError{Path: "watch.debounce", Message: "must not be negative", Value: w.Debounce}}
	}
	return nil
}

// Scan defaults.
const (
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultWorkers     = 4
)

func defaultExcludes() []any {
	return []any{
		"**/.git/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/__pycache__/**",
		"**/.venv/**",
		"**/.idea/**",
		"**/.vscode/**",
		"**/*.min.js",
		"**/*.min.css",
	}
}

// ScanConfig controls how directories are expanded into files.
type ScanConfig struct {
	// Include keeps only files matching one of these globs when non-empty.
	Include []string
	// Exclude skips files and directories matching any of these globs.
	Exclude []string
	// MaxFileSize skips larger files. Zero means no limit.
	MaxFileSize int64
	// Workers is the number of files searched at once.
	Workers int
}

func (s ScanConfig) validate() []error {
	var errs []error
	if s.MaxFileSize < 0 {
		errs = append(errs, &ValidationError{Path: "scan.maxFileSize", Message: "must not be negative", Value: s.MaxFileSize})
	}
	if s.Workers < 1 {
		errs = append(errs, &ValidationError{Path: "scan.workers", Message: "must be at least 1", Value: s.Workers})
	}
	return errs
}

// Search returns the search section.
func (c *Config) Search() SearchConfig {
	return SearchConfig{
		CaseSensitive: c.getBoolOr("search.caseSensitive", false),
		WholeWords:    c.getBoolOr("search.wholeWords", false),
		Regex:         c.getBoolOr("search.regex", false),
		Backwards:     c.getBoolOr("search.backwards", false),
		FromCursor:    c.getBoolOr("search.fromCursor", false),
		Incremental:   c.getBoolOr("search.incremental", false),
		Prompt:        c.getBoolOr("search.prompt", false),
		BackReference: c.getBoolOr("search.backReference", false),
		SelectedText:  c.getBoolOr("search.selectedText", false),
		Normalize:     c.getBoolOr("search.normalize", true),
	}
}

// Logging returns the logging section.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  c.getStringOr("logging.level", "warn"),
		Format: c.getStringOr("logging.format", "text"),
	}
}

// Output returns the output section.
func (c *Config) Output() OutputConfig {
	return OutputConfig{
		Format:         c.getStringOr("output.format", "text"),
		HighlightColor: c.getStringOr("output.highlightColor", "#ffaf00"),
	}
}

// Lua returns the Lua filter section.
func (c *Config) Lua() LuaConfig {
	return LuaConfig{
		Script:   c.getStringOr("lua.script", ""),
		Function: c.getStringOr("lua.function", "accept"),
		Timeout:  c.getDurationOr("lua.timeout", 250*time.Millisecond),
	}
}

// Watch returns the watch section.
func (c *Config) Watch() WatchConfig {
	return WatchConfig{
		Debounce: c.getDurationOr("watch.debounce", 100*time.Millisecond),
	}
}

// Scan returns the directory scanning section.
func (c *Config) Scan() ScanConfig {
	return ScanConfig{
		Include:     c.getStringsOr("scan.include", nil),
		Exclude:     c.getStringsOr("scan.exclude", nil),
		MaxFileSize: int64(c.getIntOr("scan.maxFileSize", DefaultMaxFileSize)),
		Workers:     c.getIntOr("scan.workers", DefaultWorkers),
	}
}

// These methods only return the default for ErrSettingNotFound.
// Type errors are recorded and return the default.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getStringsOr(path string, defaultValue []string) []string {
	v, err := c.GetStrings(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
