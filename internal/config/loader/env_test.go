package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvLoaderLoad(t *testing.T) {
	t.Setenv("RICHTEXT_LOG_LEVEL", "debug")
	t.Setenv("RICHTEXT_METRICS", "true")
	t.Setenv("RICHTEXT_MAX_UNDO", "50")
	t.Setenv("RICHTEXT_EDITOR_SOME_FLAG", "on")
	t.Setenv("OTHER_LOG_LEVEL", "error")

	got, err := NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]any{
		"log":     map[string]any{"level": "debug"},
		"metrics": map[string]any{"enabled": true},
		"editor":  map[string]any{"maxUndo": int64(50), "someFlag": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestEnvLoaderCustomMapping(t *testing.T) {
	l := NewEnvLoaderWithMapping("X_", nil)
	l.lookup = func(name string) (string, bool) {
		if name == "X_LEVEL" {
			return "warn", true
		}
		return "", false
	}
	l.environ = func() []string { return []string{"X_LEVEL=warn"} }
	l.AddMapping("X_LEVEL", "log.level")
	got, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := getByPath(got, "log.level"); !ok || v != "warn" {
		t.Errorf("log.level = %v", v)
	}
	if _, ok := got["level"]; ok {
		t.Error("mapped variable also loaded by prefix")
	}
}

func TestEnvToPath(t *testing.T) {
	l := NewEnvLoader(EnvPrefix)
	tests := []struct {
		env  string
		want string
	}{
		{"RICHTEXT_LOG", "log"},
		{"RICHTEXT_LOG_LEVEL", "log.level"},
		{"RICHTEXT_EDITOR_MAX_UNDO", "editor.maxUndo"},
		{"RICHTEXT_A_B_C_D", "a.bCD"},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Yes", true},
		{"off", false},
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"1.5", 1.5},
		{"1.2.3", "1.2.3"},
		{`["a","b"]`, []any{"a", "b"}},
		{`{"k":1}`, map[string]any{"k": float64(1)}},
		{"[broken", "[broken"},
		{"debug", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseValue(tt.in)); diff != "" {
				t.Errorf("parseValue(%q) (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestEnvLoaderMappedOnly(t *testing.T) {
	t.Setenv("RICHTEXT_LOG_LEVEL", "warn")
	t.Setenv("RICHTEXT_UNKNOWN", "x")
	got, err := NewEnvLoaderWithMapping("", DefaultEnvMapping()).Load()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"log": map[string]any{"level": "warn"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}
