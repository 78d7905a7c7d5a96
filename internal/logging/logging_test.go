package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = '%s', expected '%s'", tt.level, got, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		valid    bool
	}{
		{"debug", LogLevelDebug, true},
		{"DEBUG", LogLevelDebug, true},
		{"info", LogLevelInfo, true},
		{"warn", LogLevelWarn, true},
		{"Warning", LogLevelWarn, true},
		{"error", LogLevelError, true},
		{"unknown", LogLevelInfo, false},
		{"", LogLevelInfo, false},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel('%s') = %d, expected %d", tt.input, got, tt.expected)
		}
		if got := ValidLevel(tt.input); got != tt.valid {
			t.Errorf("ValidLevel('%s') = %v, expected %v", tt.input, got, tt.valid)
		}
	}
}

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: level, Output: &buf, Prefix: "test"})
	l.sink.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger(LogLevelDebug)
	l.WithFields(map[string]any{"plugin": "core", "event": "keydown"}).Warn("handler failed: %v", "boom")

	want := "2024-01-02T03:04:05.000 [WARN] test: handler failed: boom {event=keydown, plugin=core}\n"
	if got := buf.String(); got != want {
		t.Errorf("log line = %q, want %q", got, want)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LogLevelWarn)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	out := buf.String()
	if strings.Contains(out, "debug") || strings.Contains(out, "[INFO]") {
		t.Errorf("output contains filtered levels: %q", out)
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "[ERROR]") {
		t.Errorf("output missing enabled levels: %q", out)
	}
}

func TestLogger_DerivedSharesSink(t *testing.T) {
	l, buf := newTestLogger(LogLevelInfo)
	child := l.WithComponent("pipeline")
	l.SetLevel(LogLevelDebug)
	child.Debug("visible")
	if !strings.Contains(buf.String(), "visible {component=pipeline}") {
		t.Errorf("derived logger did not follow level change: %q", buf.String())
	}
	if l.fields != nil {
		t.Error("WithComponent mutated parent fields")
	}

	buf.Reset()
	l.Disable()
	child.Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
	l.Enable()
	child.Error("shown")
	if buf.Len() == 0 {
		t.Error("re-enabled logger wrote nothing")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("Nop logger wrote %q", buf.String())
	}
}
