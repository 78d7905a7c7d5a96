// Package app assembles editors from configuration. An Editor owns one
// plugin pipeline, built once from the configured plugin list with the
// core plugin appended, and opens any number of documents against it.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/richtext/internal/config"
	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugins"
	"github.com/dshills/richtext/internal/plugins/core"
)

// Editor is a configured plugin pipeline and the documents open on it.
type Editor struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *plugin.Registry
	plugins  []plugin.Plugin
	pipeline *plugin.Pipeline
	metrics  *metrics

	mu     sync.Mutex
	docs   map[string]*Document
	closed bool
}

type options struct {
	logger     *logging.Logger
	registry   *plugin.Registry
	registerer prometheus.Registerer
	env        plugin.Env
}

// Option configures an Editor.
type Option func(*options)

// WithLogger sets the logger. By default one is built from the config.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegistry sets the plugin registry. The default holds the built-in
// plugins.
func WithRegistry(r *plugin.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithRegisterer sets where metrics are registered when the config
// enables them. The default is prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithLinkProvider sets the collaborator asked for link targets.
func WithLinkProvider(p engine.LinkProvider) Option {
	return func(o *options) {
		o.env.Links = p
	}
}

// WithUploader sets the collaborator that stores pasted images.
func WithUploader(u plugin.Uploader) Option {
	return func(o *options) {
		o.env.Uploader = u
	}
}

// New builds an editor from cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*Editor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	o := options{
		registry:   plugins.Builtin(),
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		lc := logging.DefaultLoggerConfig()
		lc.Level = cfg.LogLevel()
		lc.Output = os.Stderr
		o.logger = logging.NewLogger(lc)
	}
	o.env.Logger = o.logger.WithComponent("plugin")

	specs := append(slices.Clone(cfg.Plugins), config.PluginSpec{Name: core.Name})
	built, err := o.registry.BuildAll(specs, o.env)
	if err != nil {
		return nil, &InitError{Component: "plugins", Err: err}
	}

	e := &Editor{
		cfg:      cfg,
		logger:   o.logger.WithComponent("editor"),
		registry: o.registry,
		plugins:  built,
		docs:     make(map[string]*Document),
	}
	var pm *plugin.Metrics
	if cfg.Metrics.Enabled {
		if pm, err = plugin.NewMetrics(o.registerer); err == nil {
			e.metrics, err = newMetrics(o.registerer)
		}
		if err != nil {
			e.closePlugins()
			return nil, &InitError{Component: "metrics", Err: err}
		}
	}
	e.pipeline, err = plugin.New(built,
		plugin.WithLogger(o.logger),
		plugin.WithMetrics(pm),
		plugin.WithNormalizeCheck(cfg.Editor.CheckNormalize),
	)
	if err != nil {
		e.closePlugins()
		return nil, &InitError{Component: "pipeline", Err: err}
	}
	e.logger.Debug("pipeline: %v", e.pipeline.Names())
	return e, nil
}

// Config returns the configuration the editor was built from.
func (e *Editor) Config() *config.Config { return e.cfg }

// Pipeline returns the editor's plugin pipeline.
func (e *Editor) Pipeline() *plugin.Pipeline { return e.pipeline }

// Registry returns the registry the pipeline was built from.
func (e *Editor) Registry() *plugin.Registry { return e.registry }

// Logger returns the editor's logger.
func (e *Editor) Logger() *logging.Logger { return e.logger }

// Open opens t as a new document on the editor's pipeline.
func (e *Editor) Open(t *tree.Tree) (*Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	eng, err := engine.New(t,
		engine.WithNormalizer(e.pipeline.Normalize),
		engine.WithDecorator(e.pipeline.Decorate),
		engine.WithReadOnly(e.cfg.Editor.ReadOnly),
		engine.WithMaxUndoEntries(e.cfg.Editor.MaxUndo),
	)
	if err != nil {
		return nil, err
	}
	d := &Document{Engine: eng, editor: e}
	e.docs[eng.ID()] = d
	e.metrics.opened()
	e.logger.Debug("opened document %s", eng.ID())
	return d, nil
}

// OpenSpec builds a tree from s and opens it.
func (e *Editor) OpenSpec(s tree.Spec) (*Document, error) {
	t, err := tree.New(s)
	if err != nil {
		return nil, err
	}
	return e.Open(t)
}

// Documents returns the open documents.
func (e *Editor) Documents() []*Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Document, 0, len(e.docs))
	for _, d := range e.docs {
		out = append(out, d)
	}
	return out
}

func (e *Editor) forget(d *Document) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs[d.ID()]; !ok {
		return false
	}
	delete(e.docs, d.ID())
	e.metrics.closed()
	return true
}

// Close stops background plugin work, waiting until ctx is done, then
// closes every document and releases plugin resources.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	err := e.pipeline.Close(ctx)
	for _, d := range e.Documents() {
		d.Close()
	}
	return errors.Join(err, e.closePlugins())
}

func (e *Editor) closePlugins() error {
	var errs []error
	for _, p := range e.plugins {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
