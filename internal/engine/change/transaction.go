package change

import (
	"fmt"
	"slices"

	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Transaction accumulates edits against a working copy of a tree. Methods
// return the transaction so calls can be chained; check Err or Commit for
// the outcome.
type Transaction struct {
	base    *tree.Tree
	sel     cursor.Selection
	version uint64
	ed      *tree.Editor

	anchor  tree.Point
	focus   tree.Point
	carried tree.MarkSet
	carry   bool

	created tree.Key
	ops     []string
	err     error
	done    bool
}

// New starts a transaction on t with selection sel. version identifies the
// document state t belongs to.
func New(t *tree.Tree, sel cursor.Selection, version uint64) *Transaction {
	tx := &Transaction{
		base:    t,
		sel:     sel,
		version: version,
		ed:      t.Edit(),
		anchor:  sel.Anchor,
		focus:   sel.Focus,
	}
	if sel.Carried {
		tx.carried, tx.carry = sel.Marks, true
	}
	return tx
}

// Version returns the document version the transaction was built against.
func (tx *Transaction) Version() uint64 { return tx.version }

// Base returns the tree the transaction started from.
func (tx *Transaction) Base() *tree.Tree { return tx.base }

// Tree returns the working tree with every edit so far applied.
func (tx *Transaction) Tree() *tree.Tree { return tx.ed.Tree() }

// Err returns the first error recorded.
func (tx *Transaction) Err() error { return tx.err }

// Ops returns the names of the edits applied so far.
func (tx *Transaction) Ops() []string { return slices.Clone(tx.ops) }

// Created returns the key of the node created by the most recent edit that
// created one.
func (tx *Transaction) Created() tree.Key { return tx.created }

// Selection derives the current selection against the working tree.
func (tx *Transaction) Selection() (cursor.Selection, error) {
	if tx.anchor.Key == "" {
		return cursor.Selection{}, ErrNoSelection
	}
	s, err := cursor.Derive(tx.ed.Tree(), tx.anchor, tx.focus)
	if err != nil {
		return cursor.Selection{}, err
	}
	if tx.carry && s.IsCollapsed() {
		s = s.WithMarks(tx.carried)
	}
	return s, nil
}

// Fail records err as the transaction's failure.
func (tx *Transaction) Fail(err error) *Transaction {
	if tx.err == nil {
		tx.err = err
	}
	return tx
}

// Commit validates the working tree and returns the change. A transaction
// can be committed once.
func (tx *Transaction) Commit() (*Change, error) {
	if tx.done {
		return nil, ErrCommitted
	}
	tx.done = true
	if tx.err != nil {
		return nil, tx.err
	}
	after, err := tx.ed.Done()
	if err != nil {
		return nil, err
	}
	var sel cursor.Selection
	if tx.anchor.Key != "" {
		if sel, err = cursor.Derive(after, tx.anchor, tx.focus); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if tx.carry && sel.IsCollapsed() {
			sel = sel.WithMarks(tx.carried)
		}
	}
	return &Change{
		Version:         tx.version,
		Before:          tx.base,
		After:           after,
		SelectionBefore: tx.sel,
		Selection:       sel,
		Ops:             tx.ops,
	}, nil
}

func (tx *Transaction) apply(name string, fn func(e *tree.Editor) error) *Transaction {
	if tx.err != nil {
		return tx
	}
	if tx.done {
		return tx.Fail(ErrCommitted)
	}
	if err := fn(tx.ed); err != nil {
		return tx.Fail(fmt.Errorf("%s: %w", name, err))
	}
	tx.ops = append(tx.ops, name)
	return tx
}

// preserving applies an edit that does not change the text of any block the
// selection sits in, keeping the selection at the same block offsets.
func (tx *Transaction) preserving(name string, fn func(e *tree.Editor) error) *Transaction {
	wt := tx.ed.Tree()
	a, aerr := wt.Resolve(tx.anchor)
	f, ferr := wt.Resolve(tx.focus)
	if aerr != nil || ferr != nil {
		return tx.apply(name, fn)
	}
	collapsed := a == f
	anchorFirst := wt.Compare(a, f) <= 0
	ab, ao, _ := wt.BlockOffset(a)
	fb, fo, _ := wt.BlockOffset(f)
	if tx.apply(name, fn); tx.err != nil {
		return tx
	}
	nt := tx.ed.Tree()
	tx.anchor = remap(nt, ab, ao, !collapsed && anchorFirst)
	tx.focus = remap(nt, fb, fo, !collapsed && !anchorFirst)
	return tx
}

// remap finds block offset off of blk in t. A removed block maps to the
// start of the document, or to no point at all when no text is left.
func remap(t *tree.Tree, blk tree.Key, off int, forward bool) tree.Point {
	if t.Attached(blk) {
		if p, err := t.PointAt(blk, off, forward); err == nil {
			return p
		}
	}
	if first, ok := t.FirstText(t.Root()); ok {
		return tree.Point{Key: first}
	}
	return tree.Point{}
}

func (tx *Transaction) collapseTo(p tree.Point) {
	tx.anchor, tx.focus = p, p
	tx.carry = false
}

func (tx *Transaction) selection() (cursor.Selection, bool) {
	s, err := tx.Selection()
	if err != nil {
		tx.Fail(err)
		return cursor.Selection{}, false
	}
	return s, true
}

// Select moves the selection. It drops carried marks.
func (tx *Transaction) Select(anchor, focus tree.Point) *Transaction {
	if tx.err != nil {
		return tx
	}
	tx.anchor, tx.focus = anchor, focus
	tx.carry = false
	tx.ops = append(tx.ops, "select")
	return tx
}

// SelectRange moves the selection to r.
func (tx *Transaction) SelectRange(r tree.Range) *Transaction {
	return tx.Select(r.Anchor, r.Focus)
}

// MoveTo collapses the selection at p.
func (tx *Transaction) MoveTo(p tree.Point) *Transaction {
	return tx.Select(p, p)
}

// Collapse collapses the selection to edge e.
func (tx *Transaction) Collapse(e cursor.Edge) *Transaction {
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	return tx.MoveTo(s.Point(e))
}

// SetCarriedMarks sets the marks the next typed text will carry.
func (tx *Transaction) SetCarriedMarks(marks tree.MarkSet) *Transaction {
	if tx.err != nil {
		return tx
	}
	tx.carried, tx.carry = marks, true
	tx.ops = append(tx.ops, "set_carried_marks")
	return tx
}

// SetNodeData merges patch into the data of k.
func (tx *Transaction) SetNodeData(k tree.Key, patch tree.Data) *Transaction {
	return tx.preserving("set_node_data", func(e *tree.Editor) error {
		return e.SetData(k, patch)
	})
}

// SetBlockType retypes the block k.
func (tx *Transaction) SetBlockType(k tree.Key, typ tree.Type) *Transaction {
	return tx.preserving("set_block_type", func(e *tree.Editor) error {
		return e.SetType(k, typ)
	})
}

// SetBlocks retypes every text block the selection touches.
func (tx *Transaction) SetBlocks(typ tree.Type) *Transaction {
	blocks := tx.SelectedBlocks()
	if tx.err != nil {
		return tx
	}
	return tx.preserving("set_blocks", func(e *tree.Editor) error {
		for _, b := range blocks {
			if err := e.SetType(b, typ); err != nil {
				return err
			}
		}
		return nil
	})
}

// SelectedBlocks returns the text blocks from the start to the end of the
// selection in document order.
func (tx *Transaction) SelectedBlocks() []tree.Key {
	s, ok := tx.selection()
	if !ok {
		return nil
	}
	wt := tx.ed.Tree()
	first, _ := wt.TextBlockOf(s.Start.Key)
	last, _ := wt.TextBlockOf(s.End.Key)
	leaves := wt.Leaves(wt.Root())
	i, j := slices.Index(leaves, first), slices.Index(leaves, last)
	if i < 0 || j < i {
		return nil
	}
	var out []tree.Key
	for _, k := range leaves[i : j+1] {
		if wt.Type(k).IsTextBlock() {
			out = append(out, k)
		}
	}
	return out
}

// ToggleMark toggles m across the selection. On a collapsed selection the
// mark is toggled in the carried marks instead.
func (tx *Transaction) ToggleMark(m tree.Mark) *Transaction {
	return tx.markSelection("toggle_mark", m, func(has bool) bool { return !has })
}

// AddMark adds m across the selection.
func (tx *Transaction) AddMark(m tree.Mark) *Transaction {
	return tx.markSelection("add_mark", m, func(bool) bool { return true })
}

// RemoveMark removes m across the selection.
func (tx *Transaction) RemoveMark(m tree.Mark) *Transaction {
	return tx.markSelection("remove_mark", m, func(bool) bool { return false })
}

func (tx *Transaction) markSelection(name string, m tree.Mark, want func(has bool) bool) *Transaction {
	if tx.err != nil {
		return tx
	}
	if !m.Valid() {
		return tx.Fail(fmt.Errorf("%s: %w: mark %q", name, tree.ErrInvalidType, m))
	}
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	if s.IsCollapsed() {
		marks := s.Marks.Without(m)
		if want(s.Marks.Has(m)) {
			marks = s.Marks.With(m)
		}
		tx.carried, tx.carry = marks, true
		tx.ops = append(tx.ops, name)
		return tx
	}
	return tx.preserving(name, func(e *tree.Editor) error {
		switch name {
		case "add_mark":
			return e.AddMark(s.Range(), m)
		case "remove_mark":
			return e.RemoveMark(s.Range(), m)
		}
		return e.ToggleMark(s.Range(), m)
	})
}

// ToggleMarkIn toggles m across r without consulting the selection.
func (tx *Transaction) ToggleMarkIn(r tree.Range, m tree.Mark) *Transaction {
	return tx.preserving("toggle_mark", func(e *tree.Editor) error {
		return e.ToggleMark(r, m)
	})
}

// AddMarkIn adds m across r.
func (tx *Transaction) AddMarkIn(r tree.Range, m tree.Mark) *Transaction {
	return tx.preserving("add_mark", func(e *tree.Editor) error {
		return e.AddMark(r, m)
	})
}

// WrapInline wraps the selection in a new inline element. Created returns
// its key.
func (tx *Transaction) WrapInline(typ tree.Type, data tree.Data) *Transaction {
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	return tx.WrapInlineIn(s.Range(), typ, data)
}

// WrapInlineIn wraps r in a new inline element.
func (tx *Transaction) WrapInlineIn(r tree.Range, typ tree.Type, data tree.Data) *Transaction {
	return tx.preserving("wrap_inline", func(e *tree.Editor) error {
		k, err := e.WrapInline(r, typ, data)
		tx.created = k
		return err
	})
}

// InsertText replaces the selection with text carrying the active marks and
// collapses the cursor after it.
func (tx *Transaction) InsertText(text string) *Transaction {
	s, ok := tx.selection()
	if !ok || text == "" {
		return tx
	}
	return tx.apply("insert_text", func(e *tree.Editor) error {
		at := s.Focus
		if !s.IsCollapsed() {
			var err error
			if at, err = e.DeleteRange(s.Range()); err != nil {
				return err
			}
		}
		end, err := e.InsertText(at, text, s.Marks)
		if err != nil {
			return err
		}
		tx.collapseTo(end)
		return nil
	})
}

// InsertTextAt inserts text at p with the marks of the run at p and
// collapses the cursor after it.
func (tx *Transaction) InsertTextAt(p tree.Point, text string) *Transaction {
	return tx.apply("insert_text", func(e *tree.Editor) error {
		at, err := e.Tree().Resolve(p)
		if err != nil {
			return err
		}
		n, _ := e.Tree().Node(at.Key)
		end, err := e.InsertText(at, text, n.Marks)
		if err != nil {
			return err
		}
		tx.collapseTo(end)
		return nil
	})
}

// DeleteRange removes the content of r and collapses the cursor where it was.
func (tx *Transaction) DeleteRange(r tree.Range) *Transaction {
	return tx.apply("delete_range", func(e *tree.Editor) error {
		at, err := e.DeleteRange(r)
		if err != nil {
			return err
		}
		tx.collapseTo(at)
		return nil
	})
}

// Delete removes the selected content. A collapsed selection is left alone.
func (tx *Transaction) Delete() *Transaction {
	s, ok := tx.selection()
	if !ok || s.IsCollapsed() {
		return tx
	}
	return tx.DeleteRange(s.Range())
}

// DeleteBackward deletes the selection, or the grapheme before a collapsed
// cursor. At the start of a block the block is merged into the previous one.
func (tx *Transaction) DeleteBackward() *Transaction {
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	if !s.IsCollapsed() {
		return tx.DeleteRange(s.Range())
	}
	p := s.Focus
	if p.Offset > 0 {
		return tx.DeleteRange(tree.Span(tree.Point{Key: p.Key, Offset: p.Offset - 1}, p))
	}
	wt := tx.ed.Tree()
	blk, _ := wt.TextBlockOf(p.Key)
	for k, ok := wt.PrevText(p.Key); ok; k, ok = wt.PrevText(k) {
		if b, _ := wt.TextBlockOf(k); b != blk {
			break
		}
		if n, _ := wt.Node(k); n.Len() > 0 {
			return tx.DeleteRange(tree.Span(tree.Point{Key: k, Offset: n.Len() - 1}, tree.Point{Key: k, Offset: n.Len()}))
		}
	}
	return tx.MergeBlock(blk)
}

// DeleteForward deletes the selection, or the grapheme after a collapsed
// cursor. At the end of a block the next block is merged into this one.
func (tx *Transaction) DeleteForward() *Transaction {
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	if !s.IsCollapsed() {
		return tx.DeleteRange(s.Range())
	}
	wt := tx.ed.Tree()
	p := s.Focus
	if n, _ := wt.Node(p.Key); p.Offset < n.Len() {
		return tx.DeleteRange(tree.Span(p, tree.Point{Key: p.Key, Offset: p.Offset + 1}))
	}
	blk, _ := wt.TextBlockOf(p.Key)
	for k, ok := wt.NextText(p.Key); ok; k, ok = wt.NextText(k) {
		if b, _ := wt.TextBlockOf(k); b != blk {
			break
		}
		if n, _ := wt.Node(k); n.Len() > 0 {
			return tx.DeleteRange(tree.Span(tree.Point{Key: k}, tree.Point{Key: k, Offset: 1})).MoveTo(p)
		}
	}
	leaves := wt.Leaves(wt.Root())
	i := slices.Index(leaves, blk)
	if i < 0 || i+1 >= len(leaves) {
		return tx
	}
	next := leaves[i+1]
	if wt.Type(next).IsVoid() {
		return tx.RemoveNode(next)
	}
	return tx.MergeBlock(next)
}

// SplitBlock deletes the selection and splits the block at the cursor,
// depth levels deep, moving the cursor to the start of the new block.
func (tx *Transaction) SplitBlock(depth int) *Transaction {
	s, ok := tx.selection()
	if !ok {
		return tx
	}
	return tx.apply("split_block", func(e *tree.Editor) error {
		at := s.Focus
		if !s.IsCollapsed() {
			var err error
			if at, err = e.DeleteRange(s.Range()); err != nil {
				return err
			}
		}
		next, err := e.SplitBlock(at, depth)
		if err != nil {
			return err
		}
		tx.collapseTo(next)
		return nil
	})
}

// MergeBlock joins the block k onto the previous block and moves the cursor
// to the join point.
func (tx *Transaction) MergeBlock(k tree.Key) *Transaction {
	return tx.apply("merge_block", func(e *tree.Editor) error {
		at, err := e.MergeBlock(k)
		if err != nil {
			return err
		}
		tx.collapseTo(at)
		return nil
	})
}

// InsertNode inserts s under parent at index.
func (tx *Transaction) InsertNode(parent tree.Key, index int, s tree.Spec) *Transaction {
	return tx.preserving("insert_node", func(e *tree.Editor) error {
		k, err := e.Insert(parent, index, s)
		tx.created = k
		return err
	})
}

// InsertBlockAfter inserts s as the next sibling of k.
func (tx *Transaction) InsertBlockAfter(k tree.Key, s tree.Spec) *Transaction {
	return tx.preserving("insert_node", func(e *tree.Editor) error {
		nk, err := e.InsertAfter(k, s)
		tx.created = nk
		return err
	})
}

// RemoveNode removes the subtree at k.
func (tx *Transaction) RemoveNode(k tree.Key) *Transaction {
	return tx.preserving("remove_node", func(e *tree.Editor) error {
		return e.Remove(k)
	})
}

// MoveNode moves k under parent at index.
func (tx *Transaction) MoveNode(k, parent tree.Key, index int) *Transaction {
	return tx.preserving("move_node", func(e *tree.Editor) error {
		return e.Move(k, parent, index)
	})
}

// WrapBlock wraps the block k in layers, outermost first.
func (tx *Transaction) WrapBlock(k tree.Key, layers ...tree.Wrapper) *Transaction {
	return tx.preserving("wrap_block", func(e *tree.Editor) error {
		w, err := e.Wrap(k, layers...)
		tx.created = w
		return err
	})
}

// UnwrapBlock replaces the container k with its children.
func (tx *Transaction) UnwrapBlock(k tree.Key) *Transaction {
	return tx.preserving("unwrap_block", func(e *tree.Editor) error {
		return e.Unwrap(k)
	})
}

// LiftBlock moves the block k out of levels ancestors.
func (tx *Transaction) LiftBlock(k tree.Key, levels int) *Transaction {
	return tx.preserving("lift_block", func(e *tree.Editor) error {
		return e.Lift(k, levels)
	})
}

// Edit runs fn against the working tree as one named edit. The selection
// keeps its block offsets.
func (tx *Transaction) Edit(name string, fn func(e *tree.Editor) error) *Transaction {
	return tx.preserving(name, fn)
}
