package plugin

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type ellipsisOptions struct {
	Replacement string   `mapstructure:"replacement"`
	Enabled     bool     `mapstructure:"enabled"`
	Extensions  []string `mapstructure:"extensions"`
}

func TestDecodeParams(t *testing.T) {
	var got ellipsisOptions
	err := DecodeParams(map[string]any{
		"replacement": "…",
		"enabled":     "true",
		"extensions":  []any{"png", "jpg"},
	}, &got)
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	want := ellipsisOptions{Replacement: "…", Enabled: true, Extensions: []string{"png", "jpg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded (-want +got):\n%s", diff)
	}

	if err := DecodeParams(map[string]any{"colour": "red"}, &got); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("unknown key error = %v, want ErrInvalidParams", err)
	}
	for _, v := range []any{7, "png", true} {
		if err := DecodeParams(map[string]any{"extensions": v}, &got); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("extensions %v: error = %v, want ErrInvalidParams", v, err)
		}
	}
	var arr ellipsisOptions
	if err := DecodeParams(map[string]any{"extensions": [2]string{"a", "b"}}, &arr); err != nil {
		t.Errorf("array extensions: %v", err)
	}

	defaults := ellipsisOptions{Replacement: "..."}
	if err := DecodeParams(nil, &defaults); err != nil || defaults.Replacement != "..." {
		t.Errorf("nil params: %v, %+v", err, defaults)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("b", func(params map[string]any, env Env) (Plugin, error) {
		if env.Logger == nil {
			return nil, errors.New("no logger")
		}
		return &Func{ID: "b"}, nil
	})
	r.MustRegister("a", func(map[string]any, Env) (Plugin, error) {
		return nil, ErrInvalidParams
	})

	if err := r.Register("a", nil); !errors.Is(err, ErrDuplicatePlugin) {
		t.Errorf("Register duplicate error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, r.Names()); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
	if !r.Has("a") || r.Has("zzz") {
		t.Error("Has misreported")
	}

	plugins, err := r.BuildAll([]Spec{{Name: "b"}}, Env{})
	if err != nil || len(plugins) != 1 || plugins[0].Name() != "b" {
		t.Errorf("BuildAll = %v, %v", plugins, err)
	}
	if _, err := r.Build("zzz", nil, Env{}); !errors.Is(err, ErrUnknownPlugin) {
		t.Errorf("Build unknown error = %v", err)
	}
	if _, err := r.BuildAll([]Spec{{Name: "b"}, {Name: "a"}}, Env{}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("BuildAll error = %v, want factory error", err)
	}
}
