// Package trailing keeps an editable block at the end of the document, so
// the cursor can always be placed after a list, code block or image.
package trailing

import (
	"fmt"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "trailing-block"

// Options configure the plugin.
type Options struct {
	// Type is the block type that must end the document.
	Type string `mapstructure:"type"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Type: string(tree.Paragraph)}
}

// Plugin appends a trailing block when the document ends with another type.
type Plugin struct {
	typ tree.Type
}

// New creates the plugin. The type must be a top-level text block.
func New(opts Options) (*Plugin, error) {
	typ, err := tree.ParseType(opts.Type)
	if err != nil {
		return nil, err
	}
	if !typ.IsTextBlock() || !tree.Allows(tree.Document, typ) {
		return nil, fmt.Errorf("%w: %q cannot end a document", tree.ErrInvalidType, typ)
	}
	return &Plugin{typ: typ}, nil
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

// Normalize implements plugin.Normalizer.
func (p *Plugin) Normalize(t *tree.Tree) *tree.Tree {
	kids := t.Children(t.Root())
	if len(kids) > 0 && t.Type(kids[len(kids)-1]) == p.typ {
		return t
	}
	e := t.Edit()
	if _, err := e.Insert(t.Root(), -1, tree.NewBlock(p.typ, tree.NewText(""))); err != nil {
		return t
	}
	out, err := e.Done()
	if err != nil {
		return t
	}
	return out
}
