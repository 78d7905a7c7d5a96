package tree

import "fmt"

// Spec describes a subtree to build. Empty keys are assigned on build.
type Spec struct {
	Key      Key     `yaml:"key,omitempty"`
	Type     Type    `yaml:"type"`
	Data     Data    `yaml:"data,omitempty"`
	Marks    MarkSet `yaml:"marks,omitempty"`
	Text     string  `yaml:"text,omitempty"`
	Children []Spec  `yaml:"children,omitempty"`
}

// NewText returns a text run spec.
func NewText(text string, marks ...Mark) Spec {
	return Spec{Type: Text, Text: text, Marks: NewMarkSet(marks...)}
}

// NewBlock returns an element spec.
func NewBlock(typ Type, children ...Spec) Spec {
	return Spec{Type: typ, Children: children}
}

// NewDocument returns a document spec.
func NewDocument(blocks ...Spec) Spec {
	return NewBlock(Document, blocks...)
}

// WithKey returns a copy of s using key k.
func (s Spec) WithKey(k Key) Spec {
	s.Key = k
	return s
}

// WithData returns a copy of s carrying d.
func (s Spec) WithData(d Data) Spec {
	s.Data = d
	return s
}

// New builds a tree from a document spec.
func New(doc Spec) (*Tree, error) {
	if doc.Type != Document {
		return nil, fmt.Errorf("%w: root must be %s, got %q", ErrInvalidType, Document, doc.Type)
	}
	e := (&Tree{nodes: emptyNodes}).Edit()
	root, err := e.build(doc, "")
	if err != nil {
		return nil, err
	}
	e.t.root = root
	return e.Done()
}

// MustNew is like New but panics on error.
func MustNew(doc Spec) *Tree {
	t, err := New(doc)
	if err != nil {
		panic(err)
	}
	return t
}

// build stores the subtree described by s under parent and returns its key.
// The new subtree root is not attached to parent's child list.
func (e *Editor) build(s Spec, parent Key) (Key, error) {
	if !s.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s.Type)
	}
	if s.Type != Text && (len(s.Marks) > 0 || s.Text != "") {
		return "", fmt.Errorf("%w: %s cannot carry text or marks", ErrInvalidType, s.Type)
	}
	for _, m := range s.Marks {
		if !m.Valid() {
			return "", fmt.Errorf("%w: mark %q", ErrInvalidType, m)
		}
	}
	k := s.Key
	if k == "" {
		k = e.freshKey()
	} else if e.t.Has(k) {
		return "", fmt.Errorf("%w: %q", ErrDuplicateKey, k)
	}
	n := Node{Key: k, Type: s.Type, Data: s.Data.Clone(), Marks: NewMarkSet(s.Marks...), Text: s.Text}
	e.store(k, entry{node: n, parent: parent})
	for _, cs := range s.Children {
		if !Allows(s.Type, cs.Type) {
			return "", fmt.Errorf("%w: %s may not contain %s", ErrInvalidType, s.Type, cs.Type)
		}
		ck, err := e.build(cs, k)
		if err != nil {
			return "", err
		}
		n.Children = append(n.Children, ck)
	}
	e.store(k, entry{node: n, parent: parent})
	return k, nil
}

// Spec exports the subtree at k.
func (t *Tree) Spec(k Key) Spec {
	e, ok := t.get(k)
	if !ok {
		return Spec{}
	}
	s := Spec{Key: k, Type: e.node.Type, Data: e.node.Data.Clone(), Marks: e.node.Marks, Text: e.node.Text}
	for _, c := range e.node.Children {
		s.Children = append(s.Children, t.Spec(c))
	}
	return s
}
