package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
)

func TestSearch_Options(t *testing.T) {
	c := New(WithEnvLoader(nil))
	assert.Equal(t, find.Options(0), c.Search().Options())

	require.NoError(t, c.Set("search.caseSensitive", true))
	require.NoError(t, c.Set("search.regex", true))
	require.NoError(t, c.Set("search.prompt", true))
	require.NoError(t, c.Set("search.selectedText", true))

	want := find.CaseSensitive | find.RegularExpression | find.PromptOnReplace | find.SelectedTextOnly
	assert.Equal(t, want, c.Search().Options())
}

func TestSearch_AllFlags(t *testing.T) {
	s := SearchConfig{
		CaseSensitive: true, WholeWords: true, Regex: true, Backwards: true, FromCursor: true,
		Incremental: true, Prompt: true, BackReference: true, SelectedText: true,
	}
	opts := s.Options()
	for _, f := range []find.Options{
		find.CaseSensitive, find.WholeWordsOnly, find.RegularExpression, find.FindBackwards,
		find.FromCursor, find.Incremental, find.PromptOnReplace, find.BackReference, find.SelectedTextOnly,
	} {
		assert.True(t, opts.Has(f), "missing %s", f)
	}
}

func TestSearch_NormalizePattern(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	s := SearchConfig{Normalize: true}
	assert.Equal(t, composed, s.NormalizePattern(decomposed))

	s.Normalize = false
	assert.Equal(t, decomposed, s.NormalizePattern(decomposed))

	assert.True(t, New(WithEnvLoader(nil)).Search().Normalize, "normalization is on by default")
}

func TestSection_TypeErrorsFallBack(t *testing.T) {
	c := New(WithEnvLoader(nil))
	require.NoError(t, c.Set("search.caseSensitive", 12))
	require.NoError(t, c.Set("lua.timeout", "lots"))

	assert.False(t, c.Search().CaseSensitive)
	assert.Equal(t, 250*time.Millisecond, c.Lua().Timeout)

	errs := c.ConfigErrors()
	assert.ErrorIs(t, errs["search.caseSensitive"], ErrTypeMismatch)
	assert.ErrorIs(t, errs["lua.timeout"], ErrTypeMismatch)
	assert.ErrorIs(t, c.Validate(), ErrTypeMismatch)
}

func TestLogging_LoggerConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := LoggingConfig{Level: "debug", Format: "JSON"}.LoggerConfig(&buf)

	assert.Equal(t, logging.LevelDebug, cfg.Level)
	assert.Equal(t, logging.FormatJSON, cfg.Format)
	assert.Same(t, &buf, cfg.Output)

	cfg = LoggingConfig{Level: "error", Format: "text"}.LoggerConfig(nil)
	assert.Equal(t, logging.LevelError, cfg.Level)
	assert.Equal(t, logging.FormatText, cfg.Format)
	assert.NotNil(t, cfg.Output)
}

func TestOutput_Color(t *testing.T) {
	col, err := OutputConfig{HighlightColor: "#FF8000"}.Color()
	require.NoError(t, err)
	assert.Equal(t, "#ff8000", col.Hex())

	_, err = OutputConfig{HighlightColor: "orange"}.Color()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := New(WithEnvLoader(nil))
	require.NoError(t, c.Validate())

	require.NoError(t, c.Set("output.highlightColor", "nope"))
	require.NoError(t, c.Set("output.format", "xml"))
	require.NoError(t, c.Set("logging.level", "loud"))
	require.NoError(t, c.Set("lua.script", "f.lua"))
	require.NoError(t, c.Set("lua.function", ""))
	require.NoError(t, c.Set("watch.debounce", "-1s"))

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	for _, path := range []string{"output.highlightColor", "output.format", "logging.level", "lua.function", "watch.debounce"} {
		assert.Contains(t, err.Error(), path)
	}
}

func TestWatch_Debounce(t *testing.T) {
	c := New(WithEnvLoader(nil))
	assert.Equal(t, 100*time.Millisecond, c.Watch().Debounce)

	require.NoError(t, c.Set("watch.debounce", "2s"))
	assert.Equal(t, 2*time.Second, c.Watch().Debounce)
}

func TestLua_Enabled(t *testing.T) {
	c := New(WithEnvLoader(nil))
	assert.False(t, c.Lua().Enabled())
	assert.Equal(t, "accept", c.Lua().Function)

	require.NoError(t, c.Set("lua.script", "filter.lua"))
	assert.True(t, c.Lua().Enabled())
}

func TestScan(t *testing.T) {
	c := New(WithEnvLoader(nil))
	s := c.Scan()
	assert.Empty(t, s.Include)
	assert.Contains(t, s.Exclude, "**/.git/**")
	assert.EqualValues(t, DefaultMaxFileSize, s.MaxFileSize)
	assert.Equal(t, DefaultWorkers, s.Workers)

	require.NoError(t, c.Set("scan.include", "*.go, *.md"))
	require.NoError(t, c.Set("scan.exclude", []any{"**/testdata/**"}))
	require.NoError(t, c.Set("scan.workers", 1))
	s = c.Scan()
	assert.Equal(t, []string{"*.go", "*.md"}, s.Include)
	assert.Equal(t, []string{"**/testdata/**"}, s.Exclude)
	assert.Equal(t, 1, s.Workers)
	require.NoError(t, c.Validate())

	require.NoError(t, c.Set("scan.workers", 0))
	require.NoError(t, c.Set("scan.maxFileSize", -1))
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.workers")
	assert.Contains(t, err.Error(), "scan.maxFileSize")
}

func TestScan_FromFile(t *testing.T) {
	c := New(WithFile("k.toml"), WithFileSystem(memFS{"k.toml": "[scan]\ninclude = [\"*.txt\"]\nmaxFileSize = 2048\n"}), WithEnvLoader(nil))
	require.NoError(t, c.Load())
	s := c.Scan()
	assert.Equal(t, []string{"*.txt"}, s.Include)
	assert.EqualValues(t, 2048, s.MaxFileSize)
	assert.Empty(t, c.ConfigErrors())
}
