// Package ellipsis replaces a typed "..." with a single ellipsis character.
package ellipsis

import (
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "ellipsis"

// Ellipsis is the replacement character.
const Ellipsis = "…"

// Plugin replaces three dots.
type Plugin struct{}

// New creates the plugin.
func New() *Plugin { return &Plugin{} }

// Factory builds the plugin for a registry. It takes no parameters.
func Factory(params map[string]any, _ plugin.Env) (plugin.Plugin, error) {
	var none struct{}
	if err := plugin.DecodeParams(params, &none); err != nil {
		return nil, err
	}
	return New(), nil
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	if ev.Text() != "." {
		return plugin.PassThrough, nil
	}
	c, ok := ctx.Caret()
	if !ok || !c.Collapsed() || !strings.HasSuffix(c.Before(), "..") {
		return plugin.PassThrough, nil
	}
	if ctx.Tree().Type(c.Block) == tree.CodeLine {
		return plugin.PassThrough, nil
	}
	tx := ctx.Tx()
	tx.DeleteRange(c.Range(tx.Tree(), c.Offset-2, c.Offset))
	tx.InsertText(Ellipsis)
	return plugin.Handled, nil
}
