package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dshills/keysearch/internal/config/loader"
)

// Layer names, lowest precedence first.
const (
	LayerDefaults = "defaults"
	LayerFile     = "file"
	LayerEnv      = "env"
	LayerFlags    = "flags"
)

var layerOrder = []string{LayerDefaults, LayerFile, LayerEnv, LayerFlags}

// Config holds layered keysearch settings: built-in defaults, an optional
// TOML or YAML file, KEYSEARCH_ environment variables and command-line
// flags, in increasing precedence.
type Config struct {
	mu sync.RWMutex

	fs   loader.FileSystem
	file string
	env  loader.Loader

	layers map[string]map[string]any
	merged map[string]any

	// configErrors stores type errors met by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. Its extension selects the format.
func WithFile(path string) Option {
	return func(c *Config) {
		c.file = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fs
	}
}

// WithEnvLoader replaces the environment loader. A nil loader disables
// the environment layer.
func WithEnvLoader(l loader.Loader) Option {
	return func(c *Config) {
		c.env = l
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// file and environment layers.
func New(opts ...Option) *Config {
	c := &Config{
		fs:  loader.DefaultFS(),
		env: loader.NewEnvLoader(loader.DefaultEnvPrefix),
		layers: map[string]map[string]any{
			LayerDefaults: defaultConfig(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.remerge()
	return c
}

// Load reads the file and environment layers. A missing file is not an
// error.
func (c *Config) Load() error {
	var fileData map[string]any
	if c.file != "" {
		l, err := loader.ForPath(c.fs, c.file)
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.file, err)
		}
		if fileData, err = l.Load(); err != nil {
			return err
		}
	}

	var envData map[string]any
	if c.env != nil {
		var err error
		if envData, err = c.env.Load(); err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLayer(LayerFile, fileData)
	c.setLayer(LayerEnv, envData)
	c.remerge()
	return nil
}

// Set sets a value in the flags layer, which overrides every other source.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flags := c.layers[LayerFlags]
	if flags == nil {
		flags = make(map[string]any)
	}
	if !loader.SetPath(flags, path, value) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	c.layers[LayerFlags] = flags
	c.remerge()
	return nil
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Lookup(c.merged, path)
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.merged)
}

// Sources returns the names of the layers that hold data, lowest
// precedence first.
func (c *Config) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range layerOrder {
		if len(c.layers[name]) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetStrings returns a list of strings at the given path. A single string
// is split on commas, which is how lists arrive from the environment.
func (c *Config) GetStrings(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: "[]" + typeName(item)}
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		// Flags and files sometimes quote booleans.
		if b, err := strconv.ParseBool(val); err == nil {
			return b, nil
		}
	case int64:
		// KEYSEARCH_SEARCH_REGEX=1 arrives as a number.
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	case int:
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	}
	return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration and integers are read as milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: strconv.Quote(val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// ConfigErrors returns the type errors met while reading sections.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	out := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		out[k] = v
	}
	return out
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Logging().validate()...)
	errs = append(errs, c.Output().validate()...)
	errs = append(errs, c.Lua().validate()...)
	errs = append(errs, c.Watch().validate()...)
	errs = append(errs, c.Scan().validate()...)

	cerrs := c.ConfigErrors()
	paths := make([]string, 0, len(cerrs))
	for path := range cerrs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		errs = append(errs, cerrs[path])
	}
	return errors.Join(errs...)
}

func (c *Config) setLayer(name string, data map[string]any) {
	if data == nil {
		delete(c.layers, name)
		return
	}
	c.layers[name] = data
}

// remerge rebuilds the merged view. Callers hold c.mu.
func (c *Config) remerge() {
	merged := make(map[string]any)
	for _, name := range layerOrder {
		merged = loader.DeepMerge(merged, loader.Clone(c.layers[name]))
	}
	c.merged = merged
}

func (c *Config) recordConfigError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

func defaultConfig() map[string]any {
	return map[string]any{
		"search": map[string]any{
			"caseSensitive": false,
			"wholeWords":    false,
			"regex":         false,
			"backwards":     false,
			"fromCursor":    false,
			"incremental":   false,
			"prompt":        false,
			"backReference": false,
			"selectedText":  false,
			"normalize":     true,
		},
		"logging": map[string]any{
			"level":  "warn",
			"format": "text",
		},
		"output": map[string]any{
			"format":         "text",
			"highlightColor": "#ffaf00",
		},
		"lua": map[string]any{
			"script":   "",
			"function": "accept",
			"timeout":  "250ms",
		},
		"watch": map[string]any{
			"debounce": "100ms",
		},
		"scan": map[string]any{
			"include":     []any{},
			"exclude":     defaultExcludes(),
			"maxFileSize": DefaultMaxFileSize,
			"workers":     DefaultWorkers,
		},
	}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
