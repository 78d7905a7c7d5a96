// Package widget provides the query and command side of the editor's
// presentational components. Rendering is left to the host; widgets only
// report state and turn clicks into change requests.
package widget

import (
	"context"
	"fmt"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Document is the part of a document the widgets use. *engine.Engine and
// *app.Document satisfy it.
type Document interface {
	Tree() *tree.Tree
	Selection() cursor.Selection
	ReadOnly() bool
	HasMark(m tree.Mark) bool
	IsBlockType(typ tree.Type) bool
	NodeData(k tree.Key) (tree.Data, error)
	Update(fn func(tx *change.Transaction) error) (*change.Change, error)
	RequestDataPatch(k tree.Key, patch tree.Data) (*change.Change, error)
	RequestMarkToggle(m tree.Mark) (*change.Change, error)
	RequestBlockType(typ tree.Type) (*change.Change, error)
	RequestLinkCreation(ctx context.Context, p engine.LinkProvider) (*change.Change, error)
}

var _ Document = (*engine.Engine)(nil)

// ButtonKind says what a toolbar button acts on.
type ButtonKind int

const (
	MarkButton ButtonKind = iota
	BlockButton
	LinkButton
)

// Button is one toolbar entry. Group starts at 0 and increases at each
// separator.
type Button struct {
	Kind   ButtonKind
	Mark   tree.Mark
	Block  tree.Type
	Group  int
	Active bool
}

// Label returns the mark or block type the button toggles.
func (b Button) Label() string {
	switch b.Kind {
	case MarkButton:
		return string(b.Mark)
	case BlockButton:
		return string(b.Block)
	}
	return string(tree.Link)
}

var (
	toolbarMarks  = []tree.Mark{tree.MarkBold, tree.MarkItalic, tree.MarkDeleted, tree.MarkCode}
	toolbarBlocks = []tree.Type{tree.Heading1, tree.Heading2, tree.BlockQuote}
)

// Toolbar reports formatting state for the current selection and applies
// button clicks.
type Toolbar struct {
	doc   Document
	links engine.LinkProvider
}

// NewToolbar creates a toolbar over doc. links supplies targets for the
// link button and may be nil.
func NewToolbar(doc Document, links engine.LinkProvider) *Toolbar {
	return &Toolbar{doc: doc, links: links}
}

// HasMark reports whether m is active in the selection.
func (t *Toolbar) HasMark(m tree.Mark) bool {
	return t.doc.HasMark(m)
}

// IsBlock reports whether the selection's start block has type typ.
func (t *Toolbar) IsBlock(typ tree.Type) bool {
	return t.doc.IsBlockType(typ)
}

// InLink reports whether the selection starts inside a link.
func (t *Toolbar) InLink() bool {
	_, ok := t.link()
	return ok
}

func (t *Toolbar) link() (tree.Key, bool) {
	s := t.doc.Selection()
	return t.doc.Tree().Closest(s.Start.Key, func(typ tree.Type) bool { return typ == tree.Link })
}

// Buttons returns the toolbar in display order with their active state.
func (t *Toolbar) Buttons() []Button {
	out := make([]Button, 0, len(toolbarMarks)+len(toolbarBlocks)+1)
	for _, m := range toolbarMarks {
		out = append(out, Button{Kind: MarkButton, Mark: m, Group: 0, Active: t.HasMark(m)})
	}
	for _, typ := range toolbarBlocks {
		out = append(out, Button{Kind: BlockButton, Block: typ, Group: 1, Active: t.IsBlock(typ)})
	}
	return append(out, Button{Kind: LinkButton, Group: 2, Active: t.InLink()})
}

// ClickMark toggles m across the selection.
func (t *Toolbar) ClickMark(m tree.Mark) error {
	_, err := t.doc.RequestMarkToggle(m)
	return err
}

// ClickBlock sets the selected blocks to typ, or back to paragraph when typ
// is already active.
func (t *Toolbar) ClickBlock(typ tree.Type) error {
	_, err := t.doc.RequestBlockType(typ)
	return err
}

// CreateLink removes the link around the selection, or otherwise asks the
// link provider for a target and wraps the selection in a link to it.
func (t *Toolbar) CreateLink(ctx context.Context) error {
	if l, ok := t.link(); ok {
		_, err := t.doc.Update(func(tx *change.Transaction) error {
			tx.UnwrapBlock(l)
			return nil
		})
		return err
	}
	if t.links == nil {
		return fmt.Errorf("create link: %w", ErrNoLinkProvider)
	}
	_, err := t.doc.RequestLinkCreation(ctx, t.links)
	return err
}

// Click applies b.
func (t *Toolbar) Click(ctx context.Context, b Button) error {
	switch b.Kind {
	case MarkButton:
		return t.ClickMark(b.Mark)
	case BlockButton:
		return t.ClickBlock(b.Block)
	}
	return t.CreateLink(ctx)
}
