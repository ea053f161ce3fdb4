package luafilter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/find"
	"github.com/dshills/keysearch/internal/logging"
)

const skipComments = `
function accept(match, line, offset, fragment)
  return not line:find("^%s*%-%-")
end
`

func TestFilter_Validate(t *testing.T) {
	f, err := New(skipComments)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	if !f.Validate(0, "local x = 1", 6, 1) {
		t.Error("code line rejected")
	}
	if f.Validate(1, "  -- x marks the spot", 5, 1) {
		t.Error("comment line accepted")
	}
	if calls, rejected := f.Stats(); calls != 2 || rejected != 1 {
		t.Errorf("Stats() = %d, %d; want 2, 1", calls, rejected)
	}
	if f.Err() != nil {
		t.Errorf("Err() = %v", f.Err())
	}
}

func TestFilter_Arguments(t *testing.T) {
	f, err := New(`
function check(match, line, offset, fragment)
  return match == "bc" and line == "abcd" and offset == 1 and fragment == 7
end
`, WithFunction("check"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if !f.Validate(7, "abcd", 1, 2) {
		t.Error("arguments were not passed as documented")
	}
}

func TestFilter_InSession(t *testing.T) {
	f, err := New(`function accept(match, line, offset) return offset > 0 end`)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	s, err := find.New("ab", 0, find.WithValidator(f))
	if err != nil {
		t.Fatal(err)
	}
	hits, err := document.FindAll(document.New([]string{"ab ab", "ab"}), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Line != 0 || hits[0].Offset != 3 {
		t.Errorf("hits = %+v, want only line 0 offset 3", hits)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   []Option
		want   error
	}{
		{"syntax", "function accept(", nil, nil},
		{"missing function", "x = 1", nil, ErrNoFunction},
		{"not a function", "accept = 5", nil, ErrNoFunction},
		{"other name", skipComments, []Option{WithFunction("keep")}, ErrNoFunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.source, tt.opts...)
			if err == nil {
				f.Close()
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os", "debug"} {
		src := `function accept() return ` + name + ` == nil end`
		f, err := New(src)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !f.Validate(0, "x", 0, 1) {
			t.Errorf("%s is reachable from a filter", name)
		}
		f.Close()
	}

	f, err := New(`function accept(m) return string.upper(m) == "X" and math.max(1, 2) == 2 and #table.concat({"a"}) == 1 end`)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !f.Validate(0, "x", 0, 1) {
		t.Error("safe libraries are not available")
	}
}

func TestFilter_RuntimeError(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})

	f, err := New(`function accept() error("boom") end`, WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Validate(0, "x", 0, 1) {
		t.Error("failing filter accepted the candidate")
	}
	if f.Err() == nil || !strings.Contains(f.Err().Error(), "boom") {
		t.Errorf("Err() = %v", f.Err())
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error not logged: %q", buf.String())
	}
}

func TestFilter_Timeout(t *testing.T) {
	f, err := New(`function accept() while true do end end`, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	done := make(chan bool, 1)
	go func() { done <- f.Validate(0, "x", 0, 1) }()

	select {
	case ok := <-done:
		if ok {
			t.Error("timed out call accepted the candidate")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout did not stop the script")
	}
	if f.Err() == nil {
		t.Error("timeout not reported by Err")
	}
}

func TestFilter_Print(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})

	f, err := New(`function accept(m) print("saw", m) return true end`, WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.Validate(0, "abc", 1, 1)
	if !strings.Contains(buf.String(), "saw\tb") {
		t.Errorf("print output = %q", buf.String())
	}
}

func TestFilter_Closed(t *testing.T) {
	f, err := New(skipComments)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	f.Close()

	if f.Validate(0, "x", 0, 1) {
		t.Error("closed filter accepted a candidate")
	}
	if !errors.Is(f.Err(), ErrClosed) {
		t.Errorf("Err() = %v, want ErrClosed", f.Err())
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.lua")
	if err := os.WriteFile(path, []byte(skipComments), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.Close()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
