package tree

// WithNodeData returns a tree where the data of k is merged with patch.
func (t *Tree) WithNodeData(k Key, patch Data) (*Tree, error) {
	e := t.Edit()
	e.SetData(k, patch)
	return e.Done()
}

// WithBlockType returns a tree where every block in keys has type typ.
func (t *Tree) WithBlockType(keys []Key, typ Type) (*Tree, error) {
	e := t.Edit()
	for _, k := range keys {
		e.SetType(k, typ)
	}
	return e.Done()
}

// WithMarkToggled returns a tree with m toggled uniformly across r.
func (t *Tree) WithMarkToggled(r Range, m Mark) (*Tree, error) {
	e := t.Edit()
	e.ToggleMark(r, m)
	return e.Done()
}

// WithInlineWrap returns a tree where the runs covered by r are wrapped in a
// new inline element, and the key of that element.
func (t *Tree) WithInlineWrap(r Range, typ Type, data Data) (*Tree, Key, error) {
	e := t.Edit()
	k, _ := e.WrapInline(r, typ, data)
	nt, err := e.Done()
	if err != nil {
		return nil, "", err
	}
	return nt, k, nil
}

// WithTextInserted returns a tree with text inserted at p, and the point
// after it.
func (t *Tree) WithTextInserted(p Point, text string, marks MarkSet) (*Tree, Point, error) {
	e := t.Edit()
	at, _ := e.InsertText(p, text, marks)
	return done(e, at)
}

// WithTextDeleted returns a tree without the content of r.
func (t *Tree) WithTextDeleted(r Range) (*Tree, Point, error) {
	e := t.Edit()
	at, _ := e.DeleteRange(r)
	return done(e, at)
}

// WithBlockSplit returns a tree with the block at p split depth levels deep.
func (t *Tree) WithBlockSplit(p Point, depth int) (*Tree, Point, error) {
	e := t.Edit()
	at, _ := e.SplitBlock(p, depth)
	return done(e, at)
}

// WithBlocksMerged returns a tree where the block at k is joined onto the
// block before it.
func (t *Tree) WithBlocksMerged(k Key) (*Tree, Point, error) {
	e := t.Edit()
	at, _ := e.MergeBlock(k)
	return done(e, at)
}

// WithNodeInserted returns a tree with s inserted under parent at index.
func (t *Tree) WithNodeInserted(parent Key, index int, s Spec) (*Tree, Key, error) {
	e := t.Edit()
	k, _ := e.Insert(parent, index, s)
	nt, err := e.Done()
	if err != nil {
		return nil, "", err
	}
	return nt, k, nil
}

// WithNodeRemoved returns a tree without the subtree at k.
func (t *Tree) WithNodeRemoved(k Key) (*Tree, error) {
	e := t.Edit()
	e.Remove(k)
	return e.Done()
}

// WithNodeMoved returns a tree where k sits under parent at index.
func (t *Tree) WithNodeMoved(k, parent Key, index int) (*Tree, error) {
	e := t.Edit()
	e.Move(k, parent, index)
	return e.Done()
}

// WithBlockWrapped returns a tree where k is wrapped in layers.
func (t *Tree) WithBlockWrapped(k Key, layers ...Wrapper) (*Tree, Key, error) {
	e := t.Edit()
	w, _ := e.Wrap(k, layers...)
	nt, err := e.Done()
	if err != nil {
		return nil, "", err
	}
	return nt, w, nil
}

// WithBlockLifted returns a tree where k is lifted out of levels ancestors.
func (t *Tree) WithBlockLifted(k Key, levels int) (*Tree, error) {
	e := t.Edit()
	e.Lift(k, levels)
	return e.Done()
}

func done(e *Editor, at Point) (*Tree, Point, error) {
	nt, err := e.Done()
	if err != nil {
		return nil, Point{}, err
	}
	return nt, at, nil
}
