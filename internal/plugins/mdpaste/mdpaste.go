// Package mdpaste converts pasted multi-line markdown into document blocks.
package mdpaste

import (
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "markdown-paste"

// Plugin converts markdown pastes.
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

// OnPaste implements plugin.PasteHandler. Single-line text is left to the
// plugins after this one.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	src := strings.ReplaceAll(paste.Text, "\r\n", "\n")
	if !strings.Contains(strings.TrimSpace(src), "\n") {
		return plugin.PassThrough, nil
	}
	blocks := Convert(src)
	if len(blocks) == 0 {
		return plugin.PassThrough, nil
	}
	tx := ctx.Tx()
	tx.Delete()
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	t := tx.Tree()
	parent, _ := t.Parent(c.Block)
	if !tree.Allows(t.Type(parent), tree.Paragraph) {
		return plugin.PassThrough, nil
	}

	var last tree.Key
	tx.Edit("insert_fragment", func(e *tree.Editor) error {
		blk := c.Block
		at := e.Tree().IndexOf(blk)
		switch {
		case c.Text == "":
			if err := e.Remove(blk); err != nil {
				return err
			}
		case c.AtEnd():
			at++
		case c.AtStart():
		default:
			pt, err := e.SplitBlock(c.Sel.Focus, 1)
			if err != nil {
				return err
			}
			next, _ := e.Tree().TextBlockOf(pt.Key)
			at = e.Tree().IndexOf(next)
		}
		for i, b := range blocks {
			k, err := e.Insert(parent, at+i, b)
			if err != nil {
				return err
			}
			last = k
		}
		return nil
	})
	if tx.Err() != nil {
		return plugin.PassThrough, tx.Err()
	}
	wt := tx.Tree()
	if k, ok := wt.LastText(last); ok {
		n, _ := wt.Node(k)
		tx.MoveTo(tree.Point{Key: k, Offset: n.Len()})
	}
	return plugin.Handled, nil
}
