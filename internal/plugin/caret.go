package plugin

import (
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Caret locates the focus of a selection within its text block.
type Caret struct {
	Sel    cursor.Selection
	Block  tree.Key
	Offset int
	Text   string
}

// Caret returns the caret of the transaction's current selection.
func (c *Context) Caret() (Caret, bool) {
	s, ok := c.Selection()
	if !ok {
		return Caret{}, false
	}
	return CaretOf(c.Tree(), s)
}

// CaretOf locates the focus of s in t.
func CaretOf(t *tree.Tree, s cursor.Selection) (Caret, bool) {
	blk, off, err := t.BlockOffset(s.Focus)
	if err != nil {
		return Caret{}, false
	}
	return Caret{Sel: s, Block: blk, Offset: off, Text: t.TextOf(blk)}, true
}

// Collapsed reports whether the selection is a plain cursor.
func (c Caret) Collapsed() bool { return c.Sel.IsCollapsed() }

// Before returns the block text before the caret.
func (c Caret) Before() string { return tree.SliceText(c.Text, 0, c.Offset) }

// After returns the block text after the caret.
func (c Caret) After() string { return tree.SliceText(c.Text, c.Offset, tree.GraphemeLen(c.Text)) }

// AtStart reports whether the caret is at the start of its block.
func (c Caret) AtStart() bool { return c.Offset == 0 }

// AtEnd reports whether the caret is at the end of its block.
func (c Caret) AtEnd() bool { return c.Offset == tree.GraphemeLen(c.Text) }

// Point returns the point at block offset off, preferring the later run at
// a run boundary.
func (c Caret) Point(t *tree.Tree, off int) tree.Point {
	p, err := t.PointAt(c.Block, off, true)
	if err != nil {
		return c.Sel.Focus
	}
	return p
}

// Range returns the range of block offsets [from, to).
func (c Caret) Range(t *tree.Tree, from, to int) tree.Range {
	a, _ := t.PointAt(c.Block, from, true)
	b, _ := t.PointAt(c.Block, to, false)
	return tree.Span(a, b)
}
