package plugin

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/logging"
)

// Env carries the collaborators a plugin may need besides its parameters.
type Env struct {
	Logger   *logging.Logger
	Links    engine.LinkProvider
	Uploader Uploader
}

// Factory builds a plugin from its configured parameters.
type Factory func(params map[string]any, env Env) (Plugin, error)

// Spec names a plugin and its parameters, in pipeline order.
type Spec struct {
	Name   string         `mapstructure:"name" yaml:"name" toml:"name"`
	Params map[string]any `mapstructure:"params" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the plugin named name.
func (r *Registry) Build(name string, params map[string]any, env Env) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	if env.Logger == nil {
		env.Logger = logging.Nop()
	}
	p, err := f(params, env)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: %w", name, err)
	}
	return p, nil
}

// BuildAll creates plugins for specs in order.
func (r *Registry) BuildAll(specs []Spec, env Env) ([]Plugin, error) {
	out := make([]Plugin, 0, len(specs))
	for _, s := range specs {
		p, err := r.Build(s.Name, s.Params, env)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DecodeParams decodes params into the option struct pointed to by out.
// Unknown keys are rejected and scalar types are converted loosely, so
// "true" and 1 both decode into a bool. A scalar is never widened into a
// list.
func DecodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       rejectScalarToSlice,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// rejectScalarToSlice stops weak decoding from turning a single value into
// a one-element list.
func rejectScalarToSlice(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Slice || data == nil {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Slice, reflect.Array:
		return data, nil
	}
	return nil, fmt.Errorf("expected a list, got %s", from)
}
