// Package escape collapses the selection when Escape is pressed.
package escape

import (
	"fmt"

	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "collapse-on-escape"

// Options configure the plugin.
type Options struct {
	// ToEdge is the selection edge to collapse to: start, end, anchor or
	// focus.
	ToEdge string `mapstructure:"toEdge"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{ToEdge: "end"}
}

// Plugin collapses a range selection on Escape.
type Plugin struct {
	edge cursor.Edge
}

// New creates the plugin.
func New(opts Options) (*Plugin, error) {
	edge, ok := cursor.ParseEdge(opts.ToEdge)
	if !ok {
		return nil, fmt.Errorf("%w: toEdge %q", plugin.ErrInvalidParams, opts.ToEdge)
	}
	return &Plugin{edge: edge}, nil
}

// Factory builds the plugin for a registry.
func Factory(params map[string]any, _ plugin.Env) (plugin.Plugin, error) {
	opts := DefaultOptions()
	if err := plugin.DecodeParams(params, &opts); err != nil {
		return nil, err
	}
	return New(opts)
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

// OnEscape implements plugin.EscapeHandler. A collapsed cursor is left to
// the next plugin.
func (p *Plugin) OnEscape(ctx *plugin.Context) (plugin.Result, error) {
	s, ok := ctx.Selection()
	if !ok || s.IsCollapsed() {
		return plugin.PassThrough, nil
	}
	ctx.Tx().Collapse(p.edge)
	return plugin.Handled, nil
}
