package config

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keysearch/internal/config/loader"
)

type memFS map[string]string

func (m memFS) Open(string) (fs.File, error) { return nil, fs.ErrNotExist }

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func (m memFS) Stat(string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

type staticEnv map[string]any

func (e staticEnv) Load() (map[string]any, error) { return loader.Clone(e), nil }

type failingEnv struct{}

func (failingEnv) Load() (map[string]any, error) { return nil, errors.New("no environment") }

func TestNew_Defaults(t *testing.T) {
	c := New(WithEnvLoader(nil))

	s, err := c.GetString("logging.level")
	require.NoError(t, err)
	assert.Equal(t, "warn", s)

	b, err := c.GetBool("search.caseSensitive")
	require.NoError(t, err)
	assert.False(t, b)

	assert.Equal(t, []string{LayerDefaults}, c.Sources())
}

func TestLoad_Precedence(t *testing.T) {
	files := memFS{"/k.toml": `
[search]
caseSensitive = true
regex = true

[logging]
level = "info"
`}
	env := staticEnv{
		"search":  map[string]any{"regex": false},
		"logging": map[string]any{"level": "debug"},
	}

	c := New(WithFileSystem(files), WithFile("/k.toml"), WithEnvLoader(env))
	require.NoError(t, c.Load())
	require.NoError(t, c.Set("logging.level", "error"))

	search := c.Search()
	assert.True(t, search.CaseSensitive, "file overrides default")
	assert.False(t, search.Regex, "env overrides file")
	assert.Equal(t, "error", c.Logging().Level, "flags override env")
	assert.Equal(t, []string{LayerDefaults, LayerFile, LayerEnv, LayerFlags}, c.Sources())
}

func TestLoad_YAML(t *testing.T) {
	files := memFS{"/k.yml": "output:\n  format: json\nlua:\n  timeout: 50ms\n"}
	c := New(WithFileSystem(files), WithFile("/k.yml"), WithEnvLoader(nil))
	require.NoError(t, c.Load())

	assert.True(t, c.Output().JSON())
	assert.Equal(t, 50*time.Millisecond, c.Lua().Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	c := New(WithFileSystem(memFS{}), WithFile("/absent.toml"), WithEnvLoader(nil))
	require.NoError(t, c.Load())
	assert.Equal(t, []string{LayerDefaults}, c.Sources())
}

func TestLoad_Errors(t *testing.T) {
	c := New(WithFileSystem(memFS{}), WithFile("/k.ini"), WithEnvLoader(nil))
	assert.ErrorIs(t, c.Load(), loader.ErrUnsupportedFormat)

	c = New(WithFileSystem(memFS{"/k.toml": "[broken"}), WithFile("/k.toml"), WithEnvLoader(nil))
	var pe *loader.ParseError
	assert.ErrorAs(t, c.Load(), &pe)

	c = New(WithEnvLoader(failingEnv{}))
	assert.Error(t, c.Load())
}

func TestSet_InvalidPath(t *testing.T) {
	c := New(WithEnvLoader(nil))
	assert.ErrorIs(t, c.Set("", 1), ErrInvalidPath)
	assert.ErrorIs(t, c.Set("..", 1), ErrInvalidPath)
}

func TestGetters(t *testing.T) {
	c := New(WithEnvLoader(nil))
	require.NoError(t, c.Set("x.str", "s"))
	require.NoError(t, c.Set("x.i64", int64(7)))
	require.NoError(t, c.Set("x.f", 2.0))
	require.NoError(t, c.Set("x.quoted", "true"))
	require.NoError(t, c.Set("x.d", 3*time.Second))
	require.NoError(t, c.Set("x.ms", int64(250)))

	_, err := c.GetString("x.missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	_, err = c.GetString("x.i64")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "x.i64", te.Path)
	assert.Equal(t, "int", te.Actual)

	i, err := c.GetInt("x.i64")
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	i, err = c.GetInt("x.f")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	b, err := c.GetBool("x.quoted")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = c.GetBool("x.str")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	require.NoError(t, c.Set("x.one", int64(1)))
	b, err = c.GetBool("x.one")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = c.GetBool("x.i64")
	assert.ErrorIs(t, err, ErrTypeMismatch)

	d, err := c.GetDuration("x.d")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = c.GetDuration("x.ms")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	_, err = c.GetDuration("x.str")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMerged_IsACopy(t *testing.T) {
	c := New(WithEnvLoader(nil))
	m := c.Merged()
	m["logging"].(map[string]any)["level"] = "debug"

	assert.Equal(t, "warn", c.Logging().Level)
}
