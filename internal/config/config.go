package config

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/richtext/internal/config/loader"
	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugins"
	"github.com/dshills/richtext/internal/plugins/core"
)

// PluginSpec names a configured plugin and its parameters.
type PluginSpec = plugin.Spec

// Config is the editor configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log" toml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" toml:"metrics"`
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor" toml:"editor"`
	// Plugins lists the pipeline in precedence order.
	Plugins []PluginSpec `mapstructure:"plugins" yaml:"plugins" toml:"plugins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" toml:"level"`
}

// MetricsConfig configures the pipeline's prometheus collectors.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
}

// EditorConfig configures each document.
type EditorConfig struct {
	ReadOnly bool `mapstructure:"readOnly" yaml:"readOnly" toml:"readOnly"`
	MaxUndo  int  `mapstructure:"maxUndo" yaml:"maxUndo" toml:"maxUndo"`

	// CheckNormalize reruns the normalizer chain after each commit and
	// logs when it does not settle.
	CheckNormalize bool `mapstructure:"checkNormalize" yaml:"checkNormalize" toml:"checkNormalize"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		Editor:  EditorConfig{MaxUndo: engine.DefaultMaxUndoEntries},
		Plugins: plugins.DefaultSpecs(),
	}
}

// Options control where Load reads from.
type Options struct {
	// FS reads the config file. Defaults to the OS file system.
	FS loader.FileSystem
	// Env loads environment variables. Defaults to the variables of
	// loader.DefaultEnvMapping; set SkipEnv to ignore the environment.
	Env     loader.Loader
	SkipEnv bool
}

// Load reads the configuration at path over the defaults, then applies
// the environment. An empty path or a missing file leaves the defaults.
func Load(path string) (*Config, error) {
	return LoadWith(path, Options{})
}

// LoadWith is Load with explicit sources.
func LoadWith(path string, opts Options) (*Config, error) {
	if opts.FS == nil {
		opts.FS = loader.DefaultFS()
	}
	if opts.Env == nil {
		opts.Env = loader.NewEnvLoaderWithMapping("", loader.DefaultEnvMapping())
	}

	layers := []loader.Loader{}
	if path != "" {
		l, err := loader.ForPath(opts.FS, path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	if !opts.SkipEnv {
		layers = append(layers, opts.Env)
	}

	merged := map[string]any{}
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg := Default()
	if err := Decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode writes the settings in m over cfg. Keys m does not name keep
// their current values; lists in m replace lists in cfg.
func Decode(m map[string]any, cfg *Config) error {
	if _, ok := m["plugins"]; ok {
		cfg.Plugins = nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the configuration for errors that do not depend on the
// plugin registry. Unknown and duplicate plugins are reported when the
// pipeline is built.
func (c *Config) Validate() error {
	var errs []error
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Editor.MaxUndo < 0 {
		errs = append(errs, fmt.Errorf("editor.maxUndo: must not be negative, got %d", c.Editor.MaxUndo))
	}
	for i, p := range c.Plugins {
		switch p.Name {
		case "":
			errs = append(errs, fmt.Errorf("plugins[%d]: name is required", i))
		case core.Name:
			errs = append(errs, fmt.Errorf("plugins[%d]: %s always runs last and cannot be configured", i, core.Name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(c.Log.Level)
}
