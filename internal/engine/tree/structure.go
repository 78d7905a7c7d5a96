package tree

import (
	"fmt"
	"slices"
)

// Wrapper describes one container layer added by Wrap.
type Wrapper struct {
	Type Type
	Data Data
}

// InsertText inserts text carrying marks at p and returns the point after
// it. Text joins the run at p, or an adjacent run, when the marks match;
// otherwise it gets a run of its own.
func (e *Editor) InsertText(p Point, text string, marks MarkSet) (Point, error) {
	if e.err != nil {
		return Point{}, e.err
	}
	p, err := e.t.Resolve(p)
	if err != nil {
		return Point{}, e.fail(err)
	}
	if text == "" {
		return p, nil
	}
	en, _ := e.t.get(p.Key)
	run := en.node
	join := func(k Key, off int) Point {
		var after string
		e.update(k, func(n *Node) {
			before, rest := graphemeSplit(n.Text, off)
			n.Text = before + text + rest
			after = before + text
		})
		return Point{Key: k, Offset: GraphemeLen(after)}
	}
	if run.Marks.Equal(marks) {
		return join(p.Key, p.Offset), nil
	}
	if run.Text == "" {
		e.update(p.Key, func(n *Node) { n.Marks = marks })
		return join(p.Key, 0), nil
	}
	sibs := e.t.children(en.parent)
	idx := slices.Index(sibs, p.Key)
	if p.Offset == 0 && idx > 0 {
		if prev, _ := e.t.get(sibs[idx-1]); prev.node.IsText() && prev.node.Marks.Equal(marks) {
			return join(prev.node.Key, prev.node.Len()), nil
		}
	}
	if p.Offset == run.Len() && idx+1 < len(sibs) {
		if next, _ := e.t.get(sibs[idx+1]); next.node.IsText() && next.node.Marks.Equal(marks) {
			return join(next.node.Key, 0), nil
		}
	}
	at := idx + 1
	switch {
	case p.Offset == 0:
		at = idx
	case p.Offset < run.Len():
		if _, err := e.splitRun(p.Key, p.Offset); err != nil {
			return Point{}, e.fail(err)
		}
	}
	k := e.create(Node{Type: Text, Marks: marks, Text: text})
	e.attach(en.parent, at, k)
	return Point{Key: k, Offset: GraphemeLen(text)}, nil
}

// DeleteRange removes the content covered by r and returns the collapsed
// point where it was. A range spanning blocks removes every block in between
// and merges the last block into the first.
func (e *Editor) DeleteRange(r Range) (Point, error) {
	if e.err != nil {
		return Point{}, e.err
	}
	start, end, err := e.t.Order(r)
	if err != nil {
		return Point{}, e.fail(err)
	}
	if start == end {
		return start, nil
	}
	sb, _ := e.t.TextBlockOf(start.Key)
	eb, _ := e.t.TextBlockOf(end.Key)
	for _, s := range e.t.spans(start, end) {
		b, _ := e.t.TextBlockOf(s.key)
		if b != sb && b != eb {
			continue
		}
		var empty bool
		e.update(s.key, func(n *Node) {
			n.Text = graphemeSlice(n.Text, 0, s.from) + graphemeSlice(n.Text, s.to, n.Len())
			empty = n.Text == ""
		})
		if empty && s.key != start.Key {
			p, _, _ := e.detach(s.key)
			e.prune(p)
		}
	}
	if sb != eb {
		leaves := e.t.Leaves(e.t.root)
		from, to := slices.Index(leaves, sb), slices.Index(leaves, eb)
		if from < 0 || to <= from {
			return Point{}, e.fail(fmt.Errorf("%w: %q is not before %q", ErrInvalidRange, sb, eb))
		}
		for _, k := range leaves[from+1 : to] {
			if p, _, err := e.detach(k); err == nil {
				e.prune(p)
			}
		}
		if err := e.moveTail(eb, 0, sb); err != nil {
			return Point{}, e.fail(err)
		}
		p, _, _ := e.detach(eb)
		e.prune(p)
		e.compact(sb)
	}
	return start, nil
}

// SplitBlock splits the text block containing p and then depth-1 of its
// ancestors, returning the start of the new block. Inline elements around p
// are split too. The text runs on both sides of the cut keep their marks.
func (e *Editor) SplitBlock(p Point, depth int) (Point, error) {
	if e.err != nil {
		return Point{}, e.err
	}
	p, err := e.t.Resolve(p)
	if err != nil {
		return Point{}, e.fail(err)
	}
	blk, _ := e.t.TextBlockOf(p.Key)
	right, err := e.splitRun(p.Key, p.Offset)
	if err != nil {
		return Point{}, e.fail(err)
	}
	cur := right
	var rightBlock Key
	for level := 0; level < max(depth, 1) || !e.t.Type(cur).IsBlock(); {
		parent, ok := e.t.Parent(cur)
		if !ok || parent == e.t.root {
			return Point{}, e.fail(fmt.Errorf("%w: cannot split %s", ErrInvalidRange, Document))
		}
		pe, _ := e.t.get(parent)
		clone := e.create(Node{Type: pe.node.Type, Data: pe.node.Data.Clone()})
		idx := slices.Index(pe.node.Children, cur)
		if err := e.moveTail(parent, idx, clone); err != nil {
			return Point{}, e.fail(err)
		}
		e.attach(pe.parent, e.t.IndexOf(parent)+1, clone)
		if parent == blk {
			rightBlock = clone
		}
		if pe.node.Type.IsBlock() {
			level++
		}
		cur = clone
	}
	e.compact(blk)
	e.compact(rightBlock)
	first, _ := e.t.FirstText(rightBlock)
	return Point{Key: first}, nil
}

// MergeBlock joins the text block at k onto the end of the preceding text
// block and returns the join point. A preceding void block is removed
// instead. With nothing before k, MergeBlock does nothing.
func (e *Editor) MergeBlock(k Key) (Point, error) {
	if e.err != nil {
		return Point{}, e.err
	}
	blk, ok := e.t.TextBlockOf(k)
	if !ok {
		return Point{}, e.fail(fmt.Errorf("%w: %q is not in a text block", ErrInvalidType, k))
	}
	first, _ := e.t.FirstText(blk)
	leaves := e.t.Leaves(e.t.root)
	i := slices.Index(leaves, blk)
	if i <= 0 {
		return Point{Key: first}, nil
	}
	prev := leaves[i-1]
	if e.t.Type(prev).IsVoid() {
		p, _, _ := e.detach(prev)
		e.prune(p)
		return Point{Key: first}, nil
	}
	last, _ := e.t.LastText(prev)
	le, _ := e.t.get(last)
	at := Point{Key: last, Offset: le.node.Len()}
	moved := e.t.Texts(blk)
	if err := e.moveTail(blk, 0, prev); err != nil {
		return Point{}, e.fail(err)
	}
	p, _, _ := e.detach(blk)
	e.prune(p)
	e.compact(prev)
	if !e.t.Has(at.Key) || e.t.isDetached(at.Key, prev) {
		for _, m := range moved {
			if !e.t.isDetached(m, prev) {
				return Point{Key: m}, nil
			}
		}
	}
	return at, nil
}

// Attached reports whether k is reachable from the root. An Editor's
// working tree can hold removed subtrees until Done.
func (t *Tree) Attached(k Key) bool {
	return t.Has(k) && !t.isDetached(k, t.root)
}

// isDetached reports whether k no longer sits under root.
func (t *Tree) isDetached(k, root Key) bool {
	for cur := k; cur != ""; {
		if cur == root {
			return false
		}
		en, ok := t.get(cur)
		if !ok {
			return true
		}
		cur = en.parent
	}
	return true
}

// Insert builds s and inserts it under parent at index; a negative index
// appends. It returns the key of the new subtree.
func (e *Editor) Insert(parent Key, index int, s Spec) (Key, error) {
	if e.err != nil {
		return "", e.err
	}
	if _, err := e.entry(parent); err != nil {
		return "", e.fail(err)
	}
	if s.Type == Document {
		return "", e.fail(fmt.Errorf("%w: nested %s", ErrInvalidType, Document))
	}
	k, err := e.build(s, "")
	if err != nil {
		return "", e.fail(err)
	}
	if err := e.attach(parent, index, k); err != nil {
		return "", e.fail(err)
	}
	return k, nil
}

// InsertAfter inserts s as the next sibling of k.
func (e *Editor) InsertAfter(k Key, s Spec) (Key, error) {
	if e.err != nil {
		return "", e.err
	}
	p, ok := e.t.Parent(k)
	if !ok {
		return "", e.fail(fmt.Errorf("%w: %q has no parent", ErrInvalidRange, k))
	}
	return e.Insert(p, e.t.IndexOf(k)+1, s)
}

// Remove deletes the subtree at k.
func (e *Editor) Remove(k Key) error {
	if e.err != nil {
		return e.err
	}
	if _, _, err := e.detach(k); err != nil {
		return e.fail(err)
	}
	return nil
}

// Move reattaches k under parent at index.
func (e *Editor) Move(k, parent Key, index int) error {
	if e.err != nil {
		return e.err
	}
	if _, err := e.entry(parent); err != nil {
		return e.fail(err)
	}
	if e.isDescendant(parent, k) {
		return e.fail(fmt.Errorf("%w: cannot move %q into itself", ErrInvalidRange, k))
	}
	if _, _, err := e.detach(k); err != nil {
		return e.fail(err)
	}
	if err := e.attach(parent, index, k); err != nil {
		return e.fail(err)
	}
	return nil
}

// Wrap places the block k inside new containers, outermost first, and
// returns the outermost one.
func (e *Editor) Wrap(k Key, layers ...Wrapper) (Key, error) {
	if e.err != nil {
		return "", e.err
	}
	if len(layers) == 0 {
		return k, nil
	}
	parent, idx, err := e.detach(k)
	if err != nil {
		return "", e.fail(err)
	}
	at, index := parent, idx
	var outer Key
	for _, l := range layers {
		if l.Type.Kind() != KindContainer {
			return "", e.fail(fmt.Errorf("%w: %q is not a container", ErrInvalidType, l.Type))
		}
		w := e.create(Node{Type: l.Type, Data: l.Data.Clone()})
		e.attach(at, index, w)
		if outer == "" {
			outer = w
		}
		at, index = w, -1
	}
	e.attach(at, -1, k)
	return outer, nil
}

// Unwrap replaces the container k with its children.
func (e *Editor) Unwrap(k Key) error {
	if e.err != nil {
		return e.err
	}
	kids := e.t.Children(k)
	parent, idx, err := e.detach(k)
	if err != nil {
		return e.fail(err)
	}
	for i, c := range kids {
		e.detach(c)
		e.attach(parent, idx+i, c)
	}
	return nil
}

// Lift moves the block k out of its parent, levels times. Siblings after k
// move into a copy of the parent placed after it; an emptied parent is
// removed.
func (e *Editor) Lift(k Key, levels int) error {
	if e.err != nil {
		return e.err
	}
	for range max(levels, 1) {
		pe, err := e.entry(k)
		if err != nil {
			return e.fail(err)
		}
		parent := pe.parent
		if parent == "" || parent == e.t.root {
			return e.fail(fmt.Errorf("%w: cannot lift %q out of %s", ErrInvalidRange, k, Document))
		}
		pp, _ := e.t.get(parent)
		idx := slices.Index(pp.node.Children, k)
		if idx+1 < len(pp.node.Children) {
			clone := e.create(Node{Type: pp.node.Type, Data: pp.node.Data.Clone()})
			if err := e.moveTail(parent, idx+1, clone); err != nil {
				return e.fail(err)
			}
			e.attach(pp.parent, e.t.IndexOf(parent)+1, clone)
		}
		e.detach(k)
		e.attach(pp.parent, e.t.IndexOf(parent)+1, k)
		if len(e.t.children(parent)) == 0 {
			e.detach(parent)
		}
	}
	return nil
}
