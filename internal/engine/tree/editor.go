package tree

import (
	"fmt"
	"slices"
)

// Editor applies a sequence of edits to a private working copy of a tree.
// The first failing edit is recorded and turns every later edit into a no-op;
// Done validates the result and returns either the new tree or that error.
// The source tree is never modified.
type Editor struct {
	t       Tree
	touched map[Key]struct{}
	err     error
}

// Edit starts an editor on t.
func (t *Tree) Edit() *Editor {
	return &Editor{t: *t, touched: make(map[Key]struct{})}
}

// Tree returns a read-only view of the working state. It has not been
// validated yet.
func (e *Editor) Tree() *Tree {
	t := e.t
	return &t
}

// Err returns the first error recorded by the editor.
func (e *Editor) Err() error {
	return e.err
}

func (e *Editor) fail(err error) error {
	if e.err == nil {
		e.err = err
	}
	return err
}

// Done validates the working tree and returns it.
func (e *Editor) Done() (*Tree, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.fixup()
	if err := e.validate(); err != nil {
		return nil, e.fail(err)
	}
	t := e.t
	e.touched = make(map[Key]struct{})
	return &t, nil
}

func (e *Editor) entry(k Key) (entry, error) {
	return e.t.must(k)
}

func (e *Editor) store(k Key, en entry) {
	e.t.nodes = e.t.nodes.Assoc(k, en)
	e.touched[k] = struct{}{}
}

func (e *Editor) update(k Key, fn func(n *Node)) error {
	en, err := e.entry(k)
	if err != nil {
		return err
	}
	fn(&en.node)
	e.store(k, en)
	return nil
}

func (e *Editor) freshKey() Key {
	for {
		if k := NewKey(); !e.t.Has(k) {
			return k
		}
	}
}

// create stores a detached node with a fresh key.
func (e *Editor) create(n Node) Key {
	n.Key = e.freshKey()
	e.store(n.Key, entry{node: n})
	return n.Key
}

// attach inserts the stored node k into parent's children at index. An
// out-of-range index appends.
func (e *Editor) attach(parent Key, index int, k Key) error {
	pe, err := e.entry(parent)
	if err != nil {
		return err
	}
	kids := pe.node.Children
	if index < 0 || index > len(kids) {
		index = len(kids)
	}
	pe.node.Children = slices.Insert(slices.Clone(kids), index, k)
	e.store(parent, pe)
	ce, err := e.entry(k)
	if err != nil {
		return err
	}
	ce.parent = parent
	e.store(k, ce)
	return nil
}

// detach unlinks k from its parent. Done drops detached nodes that were not
// attached again.
func (e *Editor) detach(k Key) (parent Key, index int, err error) {
	ce, err := e.entry(k)
	if err != nil {
		return "", 0, err
	}
	if ce.parent == "" {
		return "", 0, fmt.Errorf("%w: %q has no parent", ErrInvalidRange, k)
	}
	pe, err := e.entry(ce.parent)
	if err != nil {
		return "", 0, err
	}
	index = slices.Index(pe.node.Children, k)
	pe.node.Children = slices.Delete(slices.Clone(pe.node.Children), index, index+1)
	e.store(ce.parent, pe)
	parent = ce.parent
	ce.parent = ""
	e.store(k, ce)
	return parent, index, nil
}

// moveTail moves the children of from starting at index to the end of to.
func (e *Editor) moveTail(from Key, index int, to Key) error {
	kids := e.t.children(from)
	if index >= len(kids) {
		return nil
	}
	tail := slices.Clone(kids[index:])
	for _, c := range tail {
		if _, _, err := e.detach(c); err != nil {
			return err
		}
		if err := e.attach(to, -1, c); err != nil {
			return err
		}
	}
	return nil
}

// prune detaches k and then its ancestors while they are empty containers or
// inlines.
func (e *Editor) prune(k Key) {
	for k != "" && k != e.t.root {
		en, ok := e.t.get(k)
		if !ok || len(en.node.Children) > 0 {
			return
		}
		switch en.node.Type.Kind() {
		case KindContainer, KindInline:
		default:
			return
		}
		p, _, err := e.detach(k)
		if err != nil {
			return
		}
		k = p
	}
}

// compact drops empty text runs from k unless they are its only content.
func (e *Editor) compact(k Key) {
	kids := e.t.children(k)
	if len(kids) < 2 {
		return
	}
	var empty []Key
	for _, c := range kids {
		if en, _ := e.t.get(c); en.node.IsText() && en.node.Text == "" {
			empty = append(empty, c)
		}
	}
	if len(empty) == len(kids) {
		empty = empty[1:]
	}
	for _, c := range empty {
		e.detach(c)
	}
}

func (e *Editor) isDescendant(k, of Key) bool {
	for cur := k; cur != ""; {
		if cur == of {
			return true
		}
		en, ok := e.t.get(cur)
		if !ok {
			return false
		}
		cur = en.parent
	}
	return false
}

func (e *Editor) drop(k Key) {
	en, ok := e.t.get(k)
	if !ok {
		return
	}
	for _, c := range en.node.Children {
		e.drop(c)
	}
	e.t.nodes = e.t.nodes.Dissoc(k)
	delete(e.touched, k)
}

// fixup removes empty links, drops orphans and gives empty text blocks an
// empty run.
func (e *Editor) fixup() {
	for k := range e.touched {
		if en, ok := e.t.get(k); ok && en.node.Type == Link && len(en.node.Children) == 0 && en.parent != "" {
			e.detach(k)
		}
	}
	var orphans []Key
	for k := range e.touched {
		if en, ok := e.t.get(k); ok && en.parent == "" && k != e.t.root {
			orphans = append(orphans, k)
		}
	}
	for _, k := range orphans {
		e.drop(k)
	}
	for k := range e.touched {
		if en, ok := e.t.get(k); ok && en.node.Type.IsTextBlock() && len(en.node.Children) == 0 {
			r := e.create(Node{Type: Text})
			e.attach(k, -1, r)
		}
	}
}

func (e *Editor) validate() error {
	root, ok := e.t.get(e.t.root)
	if !ok || root.node.Type != Document {
		return fmt.Errorf("%w: root must be %s", ErrInvalidType, Document)
	}
	for k := range e.touched {
		en, ok := e.t.get(k)
		if !ok {
			continue
		}
		n := en.node
		if n.Type == Document && k != e.t.root {
			return fmt.Errorf("%w: nested %s", ErrInvalidType, Document)
		}
		if !n.IsText() && len(n.Marks) > 0 {
			return fmt.Errorf("%w: marks on %s", ErrInvalidType, n.Type)
		}
		for _, c := range n.Children {
			ce, ok := e.t.get(c)
			if !ok {
				return fmt.Errorf("%w: dangling child %q", ErrUnknownKey, c)
			}
			if !Allows(n.Type, ce.node.Type) {
				return fmt.Errorf("%w: %s may not contain %s", ErrInvalidType, n.Type, ce.node.Type)
			}
		}
	}
	return nil
}
