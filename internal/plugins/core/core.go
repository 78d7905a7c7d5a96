// Package core provides the default editing behavior that runs after every
// configured plugin: typing, splitting and joining blocks, deleting, caret
// movement and plain-text paste.
package core

import (
	"slices"
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the core plugin.
const Name = "core"

// Plugin is the core plugin. It is stateless.
type Plugin struct{}

// New creates the core plugin.
func New() *Plugin { return &Plugin{} }

// Factory builds the core plugin for a registry. It takes no parameters.
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
	tx := ctx.Tx()
	switch {
	case ev.Text() != "":
		tx.InsertText(ev.Text())
	case ev.IsEnter():
		tx.SplitBlock(1)
	case ev.Is("Shift+Enter"):
		tx.InsertText("\n")
	case ev.Key == key.KeyBackspace && !ev.Modifiers.HasPrimary():
		tx.DeleteBackward()
	case ev.Key == key.KeyDelete && !ev.Modifiers.HasPrimary():
		tx.DeleteForward()
	case ev.Is("Mod+A"):
		return selectAll(ctx)
	case ev.Key == key.KeyLeft || ev.Key == key.KeyRight:
		return move(ctx, ev.Key == key.KeyRight, ev.Modifiers.HasShift())
	case ev.Key == key.KeyHome || ev.Key == key.KeyEnd:
		return lineEdge(ctx, ev.Key == key.KeyEnd, ev.Modifiers.HasShift())
	default:
		return plugin.PassThrough, nil
	}
	return plugin.Handled, nil
}

// OnPaste implements plugin.PasteHandler. Each pasted line after the first
// starts a new block.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	if paste.Text == "" {
		return plugin.PassThrough, nil
	}
	InsertLines(ctx, paste.Text)
	return plugin.Handled, nil
}

// InsertLines replaces the selection with text, splitting the block at
// every newline.
func InsertLines(ctx *plugin.Context, text string) {
	tx := ctx.Tx()
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	tx.Delete()
	for i, line := range lines {
		if i > 0 {
			tx.SplitBlock(1)
		}
		tx.InsertText(line)
	}
}

func selectAll(ctx *plugin.Context) (plugin.Result, error) {
	t := ctx.Tree()
	first, ok1 := t.FirstText(t.Root())
	last, ok2 := t.LastText(t.Root())
	if !ok1 || !ok2 {
		return plugin.PassThrough, nil
	}
	n, _ := t.Node(last)
	ctx.Tx().Select(tree.Point{Key: first}, tree.Point{Key: last, Offset: n.Len()})
	return plugin.Handled, nil
}

// move steps the focus one grapheme, crossing into the neighboring text
// block at block edges. Without shift a range collapses to its edge.
func move(ctx *plugin.Context, forward, extend bool) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	tx, t := ctx.Tx(), ctx.Tree()
	if !extend && !c.Collapsed() {
		if forward {
			tx.MoveTo(c.Sel.End)
		} else {
			tx.MoveTo(c.Sel.Start)
		}
		return plugin.Handled, nil
	}

	var focus tree.Point
	switch {
	case forward && !c.AtEnd():
		focus = c.Point(t, c.Offset+1)
	case !forward && !c.AtStart():
		p, err := t.PointAt(c.Block, c.Offset-1, false)
		if err != nil {
			return plugin.PassThrough, nil
		}
		focus = p
	default:
		blk, ok := NeighborTextBlock(t, c.Block, forward)
		if !ok {
			return plugin.Handled, nil
		}
		if forward {
			k, _ := t.FirstText(blk)
			focus = tree.Point{Key: k}
		} else {
			k, _ := t.LastText(blk)
			n, _ := t.Node(k)
			focus = tree.Point{Key: k, Offset: n.Len()}
		}
	}
	anchor := focus
	if extend {
		anchor = c.Sel.Anchor
	}
	tx.Select(anchor, focus)
	return plugin.Handled, nil
}

func lineEdge(ctx *plugin.Context, end, extend bool) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	off := 0
	if end {
		off = tree.GraphemeLen(c.Text)
	}
	focus := c.Point(ctx.Tree(), off)
	anchor := focus
	if extend {
		anchor = c.Sel.Anchor
	}
	ctx.Tx().Select(anchor, focus)
	return plugin.Handled, nil
}

// NeighborTextBlock returns the text block before or after blk in document
// order, skipping void blocks.
func NeighborTextBlock(t *tree.Tree, blk tree.Key, forward bool) (tree.Key, bool) {
	leaves := t.Leaves(t.Root())
	i := slices.Index(leaves, blk)
	if i < 0 {
		return "", false
	}
	step := -1
	if forward {
		step = 1
	}
	for j := i + step; j >= 0 && j < len(leaves); j += step {
		if t.Type(leaves[j]).IsTextBlock() {
			return leaves[j], true
		}
	}
	return "", false
}
