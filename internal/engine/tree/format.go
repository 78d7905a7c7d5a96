package tree

import (
	"fmt"
	"slices"
)

// SetData merges patch into the data of k.
func (e *Editor) SetData(k Key, patch Data) error {
	if e.err != nil {
		return e.err
	}
	if err := e.update(k, func(n *Node) { n.Data = n.Data.Merge(patch) }); err != nil {
		return e.fail(err)
	}
	return nil
}

// SetType retypes the block at k, keeping its children. The parent is
// checked when the editor is done, so a retype may be followed by a lift.
func (e *Editor) SetType(k Key, typ Type) error {
	if e.err != nil {
		return e.err
	}
	if !typ.IsBlock() || typ == Document {
		return e.fail(fmt.Errorf("%w: %q is not a block type", ErrInvalidType, typ))
	}
	en, err := e.entry(k)
	if err != nil {
		return e.fail(err)
	}
	if !en.node.Type.IsBlock() || en.node.Type == Document {
		return e.fail(fmt.Errorf("%w: %q is a %s", ErrInvalidType, k, en.node.Type))
	}
	for _, c := range en.node.Children {
		if ct := e.t.Type(c); !Allows(typ, ct) {
			return e.fail(fmt.Errorf("%w: %s may not contain %s", ErrInvalidType, typ, ct))
		}
	}
	en.node.Type = typ
	e.store(k, en)
	if en.parent != "" {
		e.touched[en.parent] = struct{}{}
	}
	return nil
}

// SetText replaces the payload of the text run k.
func (e *Editor) SetText(k Key, text string) error {
	return e.setRun(k, func(n *Node) { n.Text = text })
}

// SetMarks replaces the marks of the text run k.
func (e *Editor) SetMarks(k Key, marks MarkSet) error {
	for _, m := range marks {
		if !m.Valid() {
			return e.fail(fmt.Errorf("%w: mark %q", ErrInvalidType, m))
		}
	}
	return e.setRun(k, func(n *Node) { n.Marks = NewMarkSet(marks...) })
}

func (e *Editor) setRun(k Key, fn func(n *Node)) error {
	if e.err != nil {
		return e.err
	}
	en, err := e.entry(k)
	if err != nil {
		return e.fail(err)
	}
	if !en.node.IsText() {
		return e.fail(fmt.Errorf("%w: %q is not a text run", ErrInvalidType, k))
	}
	fn(&en.node)
	e.store(k, en)
	return nil
}

type markMode int

const (
	markToggle markMode = iota
	markAdd
	markRemove
)

// ToggleMark adds m to every run in r unless all of them already carry it, in
// which case m is removed from all of them. A collapsed range is a no-op.
func (e *Editor) ToggleMark(r Range, m Mark) error {
	return e.mark(r, m, markToggle)
}

// AddMark adds m to every run in r.
func (e *Editor) AddMark(r Range, m Mark) error {
	return e.mark(r, m, markAdd)
}

// RemoveMark removes m from every run in r.
func (e *Editor) RemoveMark(r Range, m Mark) error {
	return e.mark(r, m, markRemove)
}

func (e *Editor) mark(r Range, m Mark, mode markMode) error {
	if e.err != nil {
		return e.err
	}
	if !m.Valid() {
		return e.fail(fmt.Errorf("%w: mark %q", ErrInvalidType, m))
	}
	start, end, err := e.t.Order(r)
	if err != nil {
		return e.fail(err)
	}
	spans := e.t.spans(start, end)
	add := mode == markAdd
	if mode == markToggle {
		add = slices.ContainsFunc(spans, func(s span) bool {
			en, _ := e.t.get(s.key)
			return !en.node.Marks.Has(m)
		})
	}
	for _, s := range spans {
		k, err := e.isolate(s)
		if err != nil {
			return e.fail(err)
		}
		e.update(k, func(n *Node) {
			if add {
				n.Marks = n.Marks.With(m)
			} else {
				n.Marks = n.Marks.Without(m)
			}
		})
	}
	return nil
}

// WrapInline wraps the runs covered by r in a new inline element and returns
// its key. The runs must be siblings directly inside one text block.
func (e *Editor) WrapInline(r Range, typ Type, data Data) (Key, error) {
	if e.err != nil {
		return "", e.err
	}
	if !typ.IsInline() {
		return "", e.fail(fmt.Errorf("%w: %q is not an inline type", ErrInvalidType, typ))
	}
	start, end, err := e.t.Order(r)
	if err != nil {
		return "", e.fail(err)
	}
	spans := e.t.spans(start, end)
	if len(spans) == 0 {
		return "", e.fail(fmt.Errorf("%w: empty range", ErrInvalidRange))
	}
	parent, _ := e.t.Parent(spans[0].key)
	if !e.t.Type(parent).IsTextBlock() {
		return "", e.fail(fmt.Errorf("%w: range starts inside %s", ErrInvalidRange, e.t.Type(parent)))
	}
	for _, s := range spans[1:] {
		if p, _ := e.t.Parent(s.key); p != parent {
			return "", e.fail(fmt.Errorf("%w: range crosses %q", ErrInvalidRange, p))
		}
	}
	runs := make([]Key, len(spans))
	for i, s := range spans {
		if runs[i], err = e.isolate(s); err != nil {
			return "", e.fail(err)
		}
	}
	kids := e.t.children(parent)
	first := slices.Index(kids, runs[0])
	last := slices.Index(kids, runs[len(runs)-1])
	if first < 0 || last-first+1 != len(runs) {
		return "", e.fail(fmt.Errorf("%w: range is not contiguous", ErrInvalidRange))
	}
	inline := e.create(Node{Type: typ, Data: data.Clone()})
	for _, k := range runs {
		if _, _, err := e.detach(k); err != nil {
			return "", e.fail(err)
		}
		e.attach(inline, -1, k)
	}
	e.attach(parent, first, inline)
	return inline, nil
}

// splitRun cuts the run k at off. k keeps the left half; the right half gets
// a new key and is returned.
func (e *Editor) splitRun(k Key, off int) (Key, error) {
	en, err := e.entry(k)
	if err != nil {
		return "", err
	}
	left, right := graphemeSplit(en.node.Text, off)
	en.node.Text = left
	e.store(k, en)
	r := e.create(Node{Type: Text, Marks: en.node.Marks, Text: right})
	idx := slices.Index(e.t.children(en.parent), k)
	return r, e.attach(en.parent, idx+1, r)
}

// isolate splits runs so that s covers a whole run, and returns that run.
func (e *Editor) isolate(s span) (Key, error) {
	en, err := e.entry(s.key)
	if err != nil {
		return "", err
	}
	n := en.node.Len()
	k := s.key
	if s.from > 0 {
		if k, err = e.splitRun(k, s.from); err != nil {
			return "", err
		}
	}
	if s.to < n {
		if _, err = e.splitRun(k, s.to-s.from); err != nil {
			return "", err
		}
	}
	return k, nil
}
