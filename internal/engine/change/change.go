package change

import (
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Change records a committed transaction.
type Change struct {
	// Version is the document version the transaction was built against.
	Version uint64

	Before *tree.Tree
	After  *tree.Tree

	SelectionBefore cursor.Selection
	Selection       cursor.Selection

	// Ops names the edits in the order they were applied.
	Ops []string
}

// Empty reports whether the change left both tree and selection as they were.
func (c *Change) Empty() bool {
	return tree.Equal(c.Before, c.After) &&
		c.SelectionBefore.Anchor == c.Selection.Anchor &&
		c.SelectionBefore.Focus == c.Selection.Focus &&
		c.SelectionBefore.Marks.Equal(c.Selection.Marks)
}

// TreeChanged reports whether the change modified the tree.
func (c *Change) TreeChanged() bool {
	return !tree.Equal(c.Before, c.After)
}
