// Package luafilter accepts or rejects match candidates with a Lua
// function, for use as a find.Validator.
//
// A filter script defines a global function, "accept" by default:
//
//	function accept(match, line, offset, fragment)
//	  return not line:find("^%s*%-%-")
//	end
//
// match is the candidate text, line the whole fragment, offset the
// 0-based byte offset of the candidate and fragment the fragment id. A
// truthy result keeps the candidate.
//
// Scripts run in a restricted state: only the base, table, string and
// math libraries are opened, and the loaders (dofile, loadfile, load,
// loadstring, require) are removed. print writes to the filter's logger.
package luafilter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
)

// DefaultFunction is the global called when no function is configured.
const DefaultFunction = "accept"

// Errors returned by filters.
var (
	// ErrClosed is returned when calling into a closed filter.
	ErrClosed = errors.New("lua filter is closed")

	// ErrNoFunction is returned when the script does not define the
	// configured function.
	ErrNoFunction = errors.New("lua filter function not defined")
)

// removedGlobals are base library functions that reach outside the state.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module"}

// Filter is a compiled filter script.
//
// gopher-lua states are not goroutine-safe; Filter serializes calls.
type Filter struct {
	mu sync.Mutex
	L  *lua.LState

	name    string
	fn      *lua.LFunction
	timeout time.Duration
	log     *logging.Logger

	calls    int
	rejected int
	err      error
	closed   bool
}

// Option configures a Filter.
type Option func(*Filter)

// WithFunction sets the global function called for each candidate.
func WithFunction(name string) Option {
	return func(f *Filter) {
		if name != "" {
			f.name = name
		}
	}
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) {
		f.timeout = d
	}
}

// WithLogger sets the logger that receives script errors and print output.
func WithLogger(l *logging.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

// Load compiles the script at path.
func Load(path string, opts ...Option) (*Filter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lua filter: %w", err)
	}
	return New(string(src), opts...)
}

// New compiles a filter from source and looks up its function.
func New(source string, opts ...Option) (*Filter, error) {
	f := &Filter{
		name: DefaultFunction,
		log:  logging.Discard,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.WithComponent("luafilter")

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(f.print))
	f.L = L

	if err := f.run(func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading lua filter: %w", err)
	}

	fn, ok := L.GetGlobal(f.name).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoFunction, f.name)
	}
	f.fn = fn
	return f, nil
}

func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}

// Validate calls the filter function for a candidate. A script error
// rejects the candidate; the first error is kept for Err.
func (f *Filter) Validate(fragment find.FragmentID, text string, offset, length int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		f.keep(ErrClosed)
		return false
	}
	f.calls++

	match := ""
	if offset >= 0 && offset+length <= len(text) {
		match = text[offset : offset+length]
	}

	var ok bool
	err := f.run(func() error {
		if err := f.L.CallByParam(lua.P{Fn: f.fn, NRet: 1, Protect: true},
			lua.LString(match), lua.LString(text), lua.LNumber(offset), lua.LNumber(fragment)); err != nil {
			return err
		}
		ok = lua.LVAsBool(f.L.Get(-1))
		f.L.Pop(1)
		return nil
	})
	if err != nil {
		f.log.Warn("%s(%d:%d) failed: %v", f.name, fragment, offset, err)
		f.keep(err)
		ok = false
	}
	if !ok {
		f.rejected++
	}
	return ok
}

// Err returns the first error raised by the script, if any.
func (f *Filter) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Stats returns how many candidates were checked and rejected.
func (f *Filter) Stats() (calls, rejected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.rejected
}

// Close releases the Lua state.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.L.Close()
	f.closed = true
}

// run executes fn under the call timeout, converting panics to errors.
func (f *Filter) run(fn func() error) (err error) {
	if f.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		f.L.SetContext(ctx)
		defer f.L.RemoveContext()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (f *Filter) keep(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *Filter) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	f.log.Info("%s", strings.Join(parts, "\t"))
	return 0
}
