// Package listedit implements structural editing inside lists: splitting
// items on Enter, leaving a list from an empty item, and changing item depth
// with Tab and Shift+Tab.
package listedit

import (
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "edit-list"

// Plugin edits lists.
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

// Item locates the list item holding a text block.
type Item struct {
	Block tree.Key
	Item  tree.Key
	List  tree.Key
}

// ItemOf returns the list item whose direct child is the text block blk.
func ItemOf(t *tree.Tree, blk tree.Key) (Item, bool) {
	item, ok := t.Parent(blk)
	if !ok || t.Type(item) != tree.ListItem {
		return Item{}, false
	}
	list, ok := t.Parent(item)
	if !ok || !t.Type(list).IsList() {
		return Item{}, false
	}
	return Item{Block: blk, Item: item, List: list}, true
}

// Nested reports whether the item's list sits inside another item.
func (it Item) Nested(t *tree.Tree) bool {
	p, ok := t.Parent(it.List)
	return ok && t.Type(p) == tree.ListItem
}

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	t := ctx.Tree()
	it, ok := ItemOf(t, c.Block)
	if !ok {
		return plugin.PassThrough, nil
	}
	switch {
	case ev.Is("Enter"):
		return p.enter(ctx, c, it)
	case ev.Is("Tab"):
		return indent(ctx, it)
	case ev.Is("Shift+Tab"):
		if it.Nested(t) {
			outdent(ctx, it)
		}
		return plugin.Handled, nil
	case ev.Is("Backspace"):
		if !c.Collapsed() || !c.AtStart() || t.IndexOf(c.Block) != 0 {
			return plugin.PassThrough, nil
		}
		leave(ctx, it)
		return plugin.Handled, nil
	}
	return plugin.PassThrough, nil
}

func (p *Plugin) enter(ctx *plugin.Context, c plugin.Caret, it Item) (plugin.Result, error) {
	t := ctx.Tree()
	if c.Collapsed() && c.Text == "" && len(t.Children(it.Item)) == 1 {
		leave(ctx, it)
		return plugin.Handled, nil
	}
	tx := ctx.Tx()
	tx.SplitBlock(2)
	if t.Type(it.List) != tree.TodoList {
		return plugin.Handled, nil
	}
	next, ok := ctx.Caret()
	if !ok {
		return plugin.Handled, nil
	}
	if n, ok := ItemOf(ctx.Tree(), next.Block); ok {
		tx.SetNodeData(n.Item, tree.Data{"checked": false})
	}
	return plugin.Handled, nil
}

// leave takes the item one level up: out of a nested list into the parent
// list, or out of a top-level list as a plain block.
func leave(ctx *plugin.Context, it Item) {
	if it.Nested(ctx.Tree()) {
		outdent(ctx, it)
		return
	}
	ctx.Tx().LiftBlock(it.Block, 2)
}

// indent moves the item into the item before it, joining a trailing list of
// the same type there or starting a new one.
func indent(ctx *plugin.Context, it Item) (plugin.Result, error) {
	t := ctx.Tree()
	idx := t.IndexOf(it.Item)
	if idx <= 0 {
		return plugin.Handled, nil
	}
	prev := t.Children(it.List)[idx-1]
	typ := t.Type(it.List)
	ctx.Tx().Edit("indent_item", func(e *tree.Editor) error {
		kids := e.Tree().Children(prev)
		if last := kids[len(kids)-1]; e.Tree().Type(last) == typ {
			return e.Move(it.Item, last, -1)
		}
		w, err := e.Wrap(it.Item, tree.Wrapper{Type: typ})
		if err != nil {
			return err
		}
		return e.Move(w, prev, -1)
	})
	return plugin.Handled, nil
}

// outdent moves a nested item after its parent item. Items that followed it
// stay nested under it.
func outdent(ctx *plugin.Context, it Item) {
	ctx.Tx().Edit("outdent_item", func(e *tree.Editor) error {
		if err := e.Lift(it.Item, 1); err != nil {
			return err
		}
		t := e.Tree()
		parent, _ := t.Parent(it.Item)
		kids := t.Children(parent)
		if i := t.IndexOf(it.Item); i+1 < len(kids) && t.Type(kids[i+1]).IsList() {
			if err := e.Move(kids[i+1], it.Item, -1); err != nil {
				return err
			}
		}
		return e.Lift(it.Item, 1)
	})
}
