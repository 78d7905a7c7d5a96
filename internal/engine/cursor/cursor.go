package cursor

import (
	"errors"
	"fmt"

	"github.com/dshills/richtext/internal/engine/tree"
)

// ErrNoBlockAncestor indicates a malformed tree where the anchor has no
// block-kind ancestor.
var ErrNoBlockAncestor = errors.New("no block ancestor")

// Derive computes the selection for anchor and focus in t. Points on
// elements resolve to their text runs and offsets are clamped to the run.
func Derive(t *tree.Tree, anchor, focus tree.Point) (Selection, error) {
	a, err := t.Clamp(anchor)
	if err != nil {
		return Selection{}, err
	}
	f, err := t.Clamp(focus)
	if err != nil {
		return Selection{}, err
	}
	s := Selection{Anchor: a, Focus: f, Start: a, End: f}
	if t.Compare(a, f) > 0 {
		s.Start, s.End = f, a
	}
	blk, ok := t.Closest(a.Key, tree.Type.IsBlock)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s", ErrNoBlockAncestor, a.Key)
	}
	s.StartBlock = blk
	s.Marks = activeMarks(t, s)
	return s, nil
}

// At derives a collapsed selection at p.
func At(t *tree.Tree, p tree.Point) (Selection, error) {
	return Derive(t, p, p)
}

// Start derives a collapsed selection at the first text of the document.
func Start(t *tree.Tree) (Selection, error) {
	return At(t, tree.Point{Key: t.Root()})
}

// Refresh derives s again against t, keeping carried marks while the cursor
// stays collapsed at the same point.
func Refresh(t *tree.Tree, s Selection) (Selection, error) {
	next, err := Derive(t, s.Anchor, s.Focus)
	if err != nil {
		return Selection{}, err
	}
	if s.Carried && next.IsCollapsed() && next.Anchor == s.Anchor {
		next = next.WithMarks(s.Marks)
	}
	return next, nil
}

// Collapse derives a collapsed selection at edge e of s.
func Collapse(t *tree.Tree, s Selection, e Edge) (Selection, error) {
	return At(t, s.Point(e))
}

func activeMarks(t *tree.Tree, s Selection) tree.MarkSet {
	segs, _ := t.Segments(tree.Span(s.Start, s.End))
	if len(segs) == 0 {
		return marksBefore(t, s.Start)
	}
	var marks tree.MarkSet
	for i, seg := range segs {
		n, _ := t.Node(seg.Key)
		if i == 0 {
			marks = n.Marks
			continue
		}
		marks = marks.Intersect(n.Marks)
	}
	return marks
}

// marksBefore returns the marks of the run immediately preceding p inside
// its block, or those of p's own run when nothing precedes it.
func marksBefore(t *tree.Tree, p tree.Point) tree.MarkSet {
	n, err := t.Node(p.Key)
	if err != nil {
		return nil
	}
	if p.Offset > 0 {
		return n.Marks
	}
	prev, ok := t.PrevText(p.Key)
	if !ok {
		return n.Marks
	}
	b1, _ := t.TextBlockOf(p.Key)
	b2, _ := t.TextBlockOf(prev)
	if b1 != b2 {
		return n.Marks
	}
	pn, _ := t.Node(prev)
	return pn.Marks
}
