// Package linkify turns pasted URLs into links.
package linkify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "paste-linkify"

// Options configure the plugin.
type Options struct {
	// Type is the inline type to wrap with.
	Type string `mapstructure:"type"`
	// CollapseTo is the selection edge to collapse to afterwards.
	CollapseTo string `mapstructure:"collapseTo"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Type: string(tree.Link), CollapseTo: "end"}
}

// Plugin wraps pasted URLs in links.
type Plugin struct {
	typ  tree.Type
	edge cursor.Edge
}

// New creates the plugin.
func New(opts Options) (*Plugin, error) {
	typ, err := tree.ParseType(opts.Type)
	if err != nil {
		return nil, err
	}
	if !typ.IsInline() {
		return nil, fmt.Errorf("%w: %q is not inline", tree.ErrInvalidType, typ)
	}
	edge, ok := cursor.ParseEdge(opts.CollapseTo)
	if !ok {
		return nil, fmt.Errorf("%w: collapseTo %q", plugin.ErrInvalidParams, opts.CollapseTo)
	}
	return &Plugin{typ: typ, edge: edge}, nil
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

// OnPaste implements plugin.PasteHandler. A selection becomes the link
// text; otherwise the URL itself is inserted and linked.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	href, ok := URL(paste.Text)
	if !ok {
		return plugin.PassThrough, nil
	}
	c, ok := ctx.Caret()
	if !ok || ctx.Tree().Type(c.Block) == tree.CodeLine {
		return plugin.PassThrough, nil
	}
	tx := ctx.Tx()
	data := tree.Data{"href": href}
	if !c.Collapsed() {
		tx.WrapInline(p.typ, data).Collapse(p.edge)
		return plugin.Handled, nil
	}
	tx.InsertText(href)
	r := c.Range(tx.Tree(), c.Offset, c.Offset+tree.GraphemeLen(href))
	tx.WrapInlineIn(r, p.typ, data)
	r = c.Range(tx.Tree(), c.Offset, c.Offset+tree.GraphemeLen(href))
	tx.SelectRange(r).Collapse(p.edge)
	return plugin.Handled, nil
}

// URL reports whether text is a single absolute URL and returns it trimmed.
func URL(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return s, u.Host != ""
	case "mailto":
		return s, u.Opaque != ""
	}
	return "", false
}
