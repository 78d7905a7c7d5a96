package engine

import (
	"context"
	"fmt"

	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/tree"
)

// LinkProvider obtains a link target from outside the core, typically by
// asking the user.
type LinkProvider interface {
	ProvideLink(ctx context.Context) (string, error)
}

// LinkProviderFunc adapts a function to LinkProvider.
type LinkProviderFunc func(ctx context.Context) (string, error)

// ProvideLink calls f.
func (f LinkProviderFunc) ProvideLink(ctx context.Context) (string, error) {
	return f(ctx)
}

// HasMark reports whether m is active in the current selection.
func (e *Engine) HasMark(m tree.Mark) bool {
	return e.Selection().HasMark(m)
}

// IsBlockType reports whether the start block of the selection has type typ.
func (e *Engine) IsBlockType(typ tree.Type) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Type(e.sel.StartBlock) == typ
}

// StartBlock returns the node holding the start of the selection.
func (e *Engine) StartBlock() (tree.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Node(e.sel.StartBlock)
}

// Node returns the node at k in the current tree.
func (e *Engine) Node(k tree.Key) (tree.Node, error) {
	return e.Tree().Node(k)
}

// NodeData returns the data of the node at k.
func (e *Engine) NodeData(k tree.Key) (tree.Data, error) {
	n, err := e.Tree().Node(k)
	if err != nil {
		return nil, err
	}
	return n.Data, nil
}

// Decorations returns presentation spans for the text runs under k.
func (e *Engine) Decorations(k tree.Key) []Decoration {
	if e.decorate == nil {
		return nil
	}
	return e.decorate(e.Tree(), k)
}

// RequestDataPatch merges patch into the data of k.
func (e *Engine) RequestDataPatch(k tree.Key, patch tree.Data) (*change.Change, error) {
	return e.Update(func(tx *change.Transaction) error {
		tx.SetNodeData(k, patch)
		return nil
	})
}

// RequestMarkToggle toggles m across the selection.
func (e *Engine) RequestMarkToggle(m tree.Mark) (*change.Change, error) {
	return e.Update(func(tx *change.Transaction) error {
		tx.ToggleMark(m)
		return nil
	})
}

// RequestBlockType sets the selected blocks to typ, or back to paragraph if
// the start block already has type typ.
func (e *Engine) RequestBlockType(typ tree.Type) (*change.Change, error) {
	return e.Update(func(tx *change.Transaction) error {
		target := typ
		if sel, err := tx.Selection(); err == nil && tx.Tree().Type(sel.StartBlock) == typ {
			target = tree.Paragraph
		}
		tx.SetBlocks(target)
		return nil
	})
}

// RequestInlineWrap wraps the selection in an inline element.
func (e *Engine) RequestInlineWrap(typ tree.Type, data tree.Data) (*change.Change, error) {
	return e.Update(func(tx *change.Transaction) error {
		tx.WrapInline(typ, data)
		return nil
	})
}

// RequestLinkCreation asks p for an href and wraps the selection in a link
// to it. The engine is not locked while p runs; if the document changes or
// closes in the meantime the request fails with ErrStaleReference.
func (e *Engine) RequestLinkCreation(ctx context.Context, p LinkProvider) (*change.Change, error) {
	version := e.Version()
	href, err := p.ProvideLink(ctx)
	if err != nil {
		return nil, fmt.Errorf("link provider: %w", err)
	}
	return e.Update(func(tx *change.Transaction) error {
		if tx.Version() != version {
			return fmt.Errorf("%w: document changed while waiting for a link", ErrStaleReference)
		}
		tx.WrapInline(tree.Link, tree.Data{"href": href})
		return nil
	})
}
