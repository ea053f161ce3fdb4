package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestNew_DefaultOutput(t *testing.T) {
	logger := New(Config{})
	if logger.output == nil {
		t.Error("expected default output to be set")
	}
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf, Prefix: "test"})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	for _, want := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]", "test:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")

	output := buf.String()
	if strings.Contains(output, "[DEBUG]") || strings.Contains(output, "[INFO]") {
		t.Errorf("expected DEBUG and INFO to be filtered, got: %s", output)
	}
	if !strings.Contains(output, "[WARN]") {
		t.Error("expected WARN in output")
	}
	if logger.Enabled(LevelDebug) {
		t.Error("Enabled(LevelDebug) should be false at warn level")
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.Info("formatted %s %d", "test", 42)

	if !strings.Contains(buf.String(), "formatted test 42") {
		t.Errorf("expected formatted message, got: %s", buf.String())
	}
}

func TestLogger_WithFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.WithFields(map[string]any{"b": 2, "a": "x"}).Info("test")

	if !strings.Contains(buf.String(), "{a=x, b=2}") {
		t.Errorf("expected sorted fields, got: %s", buf.String())
	}
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: LevelInfo, Output: &buf})
	child := parent.WithComponent("find")

	parent.Info("parent")
	if strings.Contains(buf.String(), "component=") {
		t.Errorf("parent logger gained child field: %s", buf.String())
	}

	buf.Reset()
	child.Info("child")
	if !strings.Contains(buf.String(), "component=find") {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

func TestLogger_DisableEnable(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf})

	logger.Disable()
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got: %s", buf.String())
	}

	logger.Enable()
	logger.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected output after Enable")
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf, Prefix: "keysearch"})
	logger.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.WithField("session", "abc").WithField("a.b", 3).Debug("cache %s", "hit")

	line := strings.TrimSpace(buf.String())
	if !gjson.Valid(line) {
		t.Fatalf("invalid JSON line: %s", line)
	}
	if got := gjson.Get(line, "msg").String(); got != "cache hit" {
		t.Errorf("msg = %q", got)
	}
	if got := gjson.Get(line, "level").String(); got != "DEBUG" {
		t.Errorf("level = %q", got)
	}
	if got := gjson.Get(line, "fields.session").String(); got != "abc" {
		t.Errorf("fields.session = %q", got)
	}
	if got := gjson.Get(line, `fields.a\.b`).Int(); got != 3 {
		t.Errorf("fields.a.b = %d", got)
	}
	if got := gjson.Get(line, "time").String(); got != "2024-01-02T03:04:05.000" {
		t.Errorf("time = %q", got)
	}
}

func TestDiscard(t *testing.T) {
	Discard.Error("nothing")
	if Discard.Enabled(LevelError) {
		t.Error("Discard should never be enabled")
	}
	child := Discard.WithField("k", "v")
	if child.Enabled(LevelError) {
		t.Error("derived Discard logger should stay disabled")
	}
}
