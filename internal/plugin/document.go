package plugin

import (
	"context"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Document is the handle plugins edit. *engine.Engine implements it.
type Document interface {
	Tree() *tree.Tree
	Selection() cursor.Selection
	Version() uint64
	Closed() bool
	ReadOnly() bool
	Begin() *change.Transaction
	Apply(tx *change.Transaction) (*change.Change, error)
	Update(fn func(tx *change.Transaction) error) (*change.Change, error)
	RequestLinkCreation(ctx context.Context, p engine.LinkProvider) (*change.Change, error)
}

var _ Document = (*engine.Engine)(nil)
