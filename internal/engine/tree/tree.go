package tree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xiaq/persistent/hash"
	"github.com/xiaq/persistent/hashmap"
)

// entry is the stored form of a node together with its parent edge.
type entry struct {
	node   Node
	parent Key
}

var emptyNodes = hashmap.New(
	func(a, b any) bool { return a.(Key) == b.(Key) },
	func(k any) uint32 { return hash.String(string(k.(Key))) },
)

// Tree is an immutable document tree. Nodes live in a persistent hash map
// keyed by Key, so every edit copies only the entries it touches and shares
// the rest with the previous version. A *Tree is safe for concurrent reads.
type Tree struct {
	root  Key
	nodes hashmap.Map
}

func (t *Tree) get(k Key) (entry, bool) {
	v, ok := t.nodes.Index(k)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

func (t *Tree) must(k Key) (entry, error) {
	e, ok := t.get(k)
	if !ok {
		return entry{}, fmt.Errorf("%w: %q", ErrUnknownKey, k)
	}
	return e, nil
}

// Root returns the key of the document node.
func (t *Tree) Root() Key {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Has reports whether k is in the tree.
func (t *Tree) Has(k Key) bool {
	_, ok := t.get(k)
	return ok
}

// Node returns a copy of the node at k.
func (t *Tree) Node(k Key) (Node, error) {
	e, err := t.must(k)
	if err != nil {
		return Node{}, err
	}
	return e.node.clone(), nil
}

// Type returns the type of the node at k, or "" if k is unknown.
func (t *Tree) Type(k Key) Type {
	e, _ := t.get(k)
	return e.node.Type
}

// Parent returns the parent of k. The root has no parent.
func (t *Tree) Parent(k Key) (Key, bool) {
	e, ok := t.get(k)
	if !ok || e.parent == "" {
		return "", false
	}
	return e.parent, true
}

// Children returns the child keys of k.
func (t *Tree) Children(k Key) []Key {
	e, _ := t.get(k)
	return slices.Clone(e.node.Children)
}

// IndexOf returns the position of k among its siblings, or -1.
func (t *Tree) IndexOf(k Key) int {
	p, ok := t.Parent(k)
	if !ok {
		return -1
	}
	pe, _ := t.get(p)
	return slices.Index(pe.node.Children, k)
}

// Ancestors returns the ancestors of k, nearest first.
func (t *Tree) Ancestors(k Key) []Key {
	var out []Key
	for p, ok := t.Parent(k); ok; p, ok = t.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Closest returns the nearest node at or above k whose type satisfies match.
func (t *Tree) Closest(k Key, match func(Type) bool) (Key, bool) {
	for cur := k; cur != ""; {
		e, ok := t.get(cur)
		if !ok {
			return "", false
		}
		if match(e.node.Type) {
			return cur, true
		}
		cur = e.parent
	}
	return "", false
}

// TextBlockOf returns the nearest text block at or above k.
func (t *Tree) TextBlockOf(k Key) (Key, bool) {
	return t.Closest(k, Type.IsTextBlock)
}

// WalkAction tells Walk how to continue after visiting a node.
type WalkAction int

const (
	// WalkContinue descends into the node's children.
	WalkContinue WalkAction = iota
	// WalkSkip moves on to the node's next sibling without visiting its
	// children.
	WalkSkip
	// WalkStop ends the walk.
	WalkStop
)

// Walk visits the subtree at k in document order.
func (t *Tree) Walk(k Key, fn func(n Node, depth int) WalkAction) {
	t.walk(k, 0, fn)
}

func (t *Tree) walk(k Key, depth int, fn func(Node, int) WalkAction) bool {
	e, ok := t.get(k)
	if !ok {
		return true
	}
	switch fn(e.node, depth) {
	case WalkStop:
		return false
	case WalkSkip:
		return true
	}
	for _, c := range e.node.Children {
		if !t.walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Texts returns the text runs under k in document order.
func (t *Tree) Texts(k Key) []Key {
	var out []Key
	t.Walk(k, func(n Node, _ int) WalkAction {
		if n.IsText() {
			out = append(out, n.Key)
		}
		return WalkContinue
	})
	return out
}

// TextOf returns the concatenated text under k.
func (t *Tree) TextOf(k Key) string {
	var sb strings.Builder
	t.Walk(k, func(n Node, _ int) WalkAction {
		sb.WriteString(n.Text)
		return WalkContinue
	})
	return sb.String()
}

// FirstText returns the first text run at or under k.
func (t *Tree) FirstText(k Key) (Key, bool) {
	var found Key
	t.Walk(k, func(n Node, _ int) WalkAction {
		if n.IsText() {
			found = n.Key
			return WalkStop
		}
		return WalkContinue
	})
	return found, found != ""
}

// LastText returns the last text run at or under k.
func (t *Tree) LastText(k Key) (Key, bool) {
	e, ok := t.get(k)
	if !ok {
		return "", false
	}
	if e.node.IsText() {
		return k, true
	}
	for i := len(e.node.Children) - 1; i >= 0; i-- {
		if last, ok := t.LastText(e.node.Children[i]); ok {
			return last, true
		}
	}
	return "", false
}

// NextText returns the text run following k in document order.
func (t *Tree) NextText(k Key) (Key, bool) {
	for cur := k; ; {
		p, ok := t.Parent(cur)
		if !ok {
			return "", false
		}
		sibs := t.children(p)
		for _, s := range sibs[slices.Index(sibs, cur)+1:] {
			if f, ok := t.FirstText(s); ok {
				return f, true
			}
		}
		cur = p
	}
}

// PrevText returns the text run preceding k in document order.
func (t *Tree) PrevText(k Key) (Key, bool) {
	for cur := k; ; {
		p, ok := t.Parent(cur)
		if !ok {
			return "", false
		}
		sibs := t.children(p)
		for i := slices.Index(sibs, cur) - 1; i >= 0; i-- {
			if l, ok := t.LastText(sibs[i]); ok {
				return l, true
			}
		}
		cur = p
	}
}

// Leaves returns the text blocks and void blocks under k in document order.
func (t *Tree) Leaves(k Key) []Key {
	var out []Key
	t.Walk(k, func(n Node, _ int) WalkAction {
		if n.Type.IsTextBlock() || n.Type.IsVoid() {
			out = append(out, n.Key)
			return WalkSkip
		}
		return WalkContinue
	})
	return out
}

func (t *Tree) children(k Key) []Key {
	e, _ := t.get(k)
	return e.node.Children
}

// path returns the child indexes leading from the root to k.
func (t *Tree) path(k Key) []int {
	var p []int
	for cur := k; ; {
		e, ok := t.get(cur)
		if !ok || e.parent == "" {
			break
		}
		p = append(p, slices.Index(t.children(e.parent), cur))
		cur = e.parent
	}
	slices.Reverse(p)
	return p
}

// Equal reports whether a and b hold the same nodes under the same keys.
func Equal(a, b *Tree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.root != b.root || a.nodes.Len() != b.nodes.Len() {
		return false
	}
	for it := a.nodes.Iterator(); it.HasElem(); it.Next() {
		k, v := it.Elem()
		ea := v.(entry)
		eb, ok := b.get(k.(Key))
		if !ok || ea.parent != eb.parent || !ea.node.equal(eb.node) {
			return false
		}
	}
	return true
}

// Keys returns every key in document order.
func (t *Tree) Keys() []Key {
	out := make([]Key, 0, t.Len())
	t.Walk(t.root, func(n Node, _ int) WalkAction {
		out = append(out, n.Key)
		return WalkContinue
	})
	return out
}
