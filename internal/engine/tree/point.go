package tree

import (
	"cmp"
	"fmt"
	"slices"
)

// Point is a position inside a text run, measured in grapheme clusters.
type Point struct {
	Key    Key `yaml:"key"`
	Offset int `yaml:"offset"`
}

// String formats p as key:offset.
func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Key, p.Offset)
}

// Range is a selection between an anchor and a focus point. The focus may
// precede the anchor.
type Range struct {
	Anchor Point `yaml:"anchor"`
	Focus  Point `yaml:"focus"`
}

// Collapsed returns an empty range at p.
func Collapsed(p Point) Range {
	return Range{Anchor: p, Focus: p}
}

// Span returns the range from anchor to focus.
func Span(anchor, focus Point) Range {
	return Range{Anchor: anchor, Focus: focus}
}

// IsCollapsed reports whether anchor and focus are the same point.
func (r Range) IsCollapsed() bool {
	return r.Anchor == r.Focus
}

// Resolve maps p onto a text run. A point on an element resolves to the start
// of its first text run when Offset is 0 and to the end of its last text run
// otherwise.
func (t *Tree) Resolve(p Point) (Point, error) {
	e, err := t.must(p.Key)
	if err != nil {
		return Point{}, err
	}
	if e.node.IsText() {
		if p.Offset < 0 || p.Offset > e.node.Len() {
			return Point{}, fmt.Errorf("%w: offset %d outside %q", ErrInvalidRange, p.Offset, p.Key)
		}
		return p, nil
	}
	if p.Offset == 0 {
		if k, ok := t.FirstText(p.Key); ok {
			return Point{Key: k}, nil
		}
	} else if k, ok := t.LastText(p.Key); ok {
		n, _ := t.get(k)
		return Point{Key: k, Offset: n.node.Len()}, nil
	}
	return Point{}, fmt.Errorf("%w: %q holds no text", ErrInvalidRange, p.Key)
}

// Clamp resolves p, pulling an out-of-bounds offset back inside its run.
func (t *Tree) Clamp(p Point) (Point, error) {
	e, err := t.must(p.Key)
	if err != nil {
		return Point{}, err
	}
	if e.node.IsText() {
		p.Offset = max(0, min(p.Offset, e.node.Len()))
		return p, nil
	}
	return t.Resolve(p)
}

// Compare orders two resolved points in document order.
func (t *Tree) Compare(a, b Point) int {
	if a.Key == b.Key {
		return cmp.Compare(a.Offset, b.Offset)
	}
	return slices.Compare(t.path(a.Key), t.path(b.Key))
}

// Order resolves r and returns its points in document order.
func (t *Tree) Order(r Range) (start, end Point, err error) {
	if start, err = t.Resolve(r.Anchor); err != nil {
		return
	}
	if end, err = t.Resolve(r.Focus); err != nil {
		return
	}
	if t.Compare(start, end) > 0 {
		start, end = end, start
	}
	return start, end, nil
}

// span is the covered part [from, to) of one text run.
type span struct {
	key      Key
	from, to int
}

// spans returns the non-empty parts of each text run between start and end.
func (t *Tree) spans(start, end Point) []span {
	var out []span
	for k := start.Key; ; {
		e, _ := t.get(k)
		s := span{key: k, from: 0, to: e.node.Len()}
		if k == start.Key {
			s.from = start.Offset
		}
		if k == end.Key {
			s.to = end.Offset
		}
		if s.to > s.from {
			out = append(out, s)
		}
		if k == end.Key {
			return out
		}
		next, ok := t.NextText(k)
		if !ok {
			return out
		}
		k = next
	}
}

// Segment is the covered part [From, To) of one text run.
type Segment struct {
	Key      Key
	From, To int
}

// Segments resolves r and returns the non-empty part of every text run it
// covers, in document order.
func (t *Tree) Segments(r Range) ([]Segment, error) {
	start, end, err := t.Order(r)
	if err != nil {
		return nil, err
	}
	spans := t.spans(start, end)
	out := make([]Segment, len(spans))
	for i, s := range spans {
		out[i] = Segment{Key: s.key, From: s.from, To: s.to}
	}
	return out, nil
}

// BlockOffset returns the text block holding p and the offset of p within
// the text of that block.
func (t *Tree) BlockOffset(p Point) (Key, int, error) {
	p, err := t.Resolve(p)
	if err != nil {
		return "", 0, err
	}
	blk, _ := t.TextBlockOf(p.Key)
	off := 0
	for _, r := range t.Texts(blk) {
		if r == p.Key {
			return blk, off + p.Offset, nil
		}
		e, _ := t.get(r)
		off += e.node.Len()
	}
	return "", 0, fmt.Errorf("%w: %q", ErrUnknownKey, p.Key)
}

// PointAt maps an offset within the text of blk back to a point. At a
// boundary between runs it picks the later run when forward is set and the
// earlier one otherwise.
func (t *Tree) PointAt(blk Key, off int, forward bool) (Point, error) {
	runs := t.Texts(blk)
	if len(runs) == 0 {
		return Point{}, fmt.Errorf("%w: %q holds no text", ErrInvalidRange, blk)
	}
	acc := 0
	for i, r := range runs {
		e, _ := t.get(r)
		n := e.node.Len()
		if off < acc+n || (off == acc+n && (!forward || i == len(runs)-1)) {
			return Point{Key: r, Offset: max(off-acc, 0)}, nil
		}
		acc += n
	}
	last := runs[len(runs)-1]
	e, _ := t.get(last)
	return Point{Key: last, Offset: e.node.Len()}, nil
}
