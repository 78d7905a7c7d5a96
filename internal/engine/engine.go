package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/history"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Re-export commonly used types for convenience.
type (
	// Key identifies a node across tree versions.
	Key = tree.Key

	// Selection is the derived selection state.
	Selection = cursor.Selection

	// Transaction batches edits.
	Transaction = change.Transaction

	// Change records a committed transaction.
	Change = change.Change
)

// Decoration marks a span of a text run for presentation, e.g. a syntax
// highlighting token. Decorations are computed on demand and never stored.
type Decoration struct {
	Key   tree.Key
	From  int
	To    int
	Class string
}

// Engine is the handle of one open document.
// It is safe for concurrent use; writes are serialized.
type Engine struct {
	mu sync.RWMutex

	id       string
	tree     *tree.Tree
	sel      cursor.Selection
	version  uint64
	closed   bool
	readOnly bool

	normalize func(*tree.Tree) *tree.Tree
	decorate  func(*tree.Tree, tree.Key) []Decoration
	maxUndo   int
	history   *history.History

	lmu       sync.Mutex
	listeners []func(*change.Change)
}

// New opens doc. The normalize chain runs once on doc and the cursor is
// placed at the start of the document.
func New(doc *tree.Tree, opts ...Option) (*Engine, error) {
	e := &Engine{
		id:      uuid.New().String(),
		maxUndo: DefaultMaxUndoEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = history.New(e.maxUndo)
	if e.normalize != nil {
		doc = e.normalize(doc)
	}
	sel, err := cursor.Start(doc)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	e.tree, e.sel = doc, sel
	return e, nil
}

// ID returns the document ID.
func (e *Engine) ID() string {
	return e.id
}

// Tree returns the current tree.
func (e *Engine) Tree() *tree.Tree {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree
}

// Selection returns the current selection.
func (e *Engine) Selection() cursor.Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel
}

// Version returns a counter that increases with every committed change.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Closed reports whether the document has been torn down.
func (e *Engine) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// ReadOnly reports whether commands are rejected.
func (e *Engine) ReadOnly() bool {
	return e.readOnly
}

// Close tears the document down. Later writes fail with ErrStaleReference.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// OnChange registers fn to run after every committed change.
func (e *Engine) OnChange(fn func(*change.Change)) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Begin starts a transaction against the current state.
func (e *Engine) Begin() *change.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return change.New(e.tree, e.sel, e.version)
}

// Apply commits tx. It fails with ErrStaleReference if the document changed
// since tx was started or has been closed.
func (e *Engine) Apply(tx *change.Transaction) (*change.Change, error) {
	c, err := e.locked(func() (*change.Change, error) {
		if tx.Version() != e.version {
			return nil, fmt.Errorf("%w: built against version %d, document is at %d", ErrStaleReference, tx.Version(), e.version)
		}
		return e.commitLocked(tx)
	})
	if err != nil {
		return nil, err
	}
	e.notify(c)
	return c, nil
}

// Update builds and commits a transaction against the current state under
// the engine lock. fn must not call back into the engine. If fn returns an
// error nothing is applied.
func (e *Engine) Update(fn func(tx *change.Transaction) error) (*change.Change, error) {
	c, err := e.locked(func() (*change.Change, error) {
		tx := change.New(e.tree, e.sel, e.version)
		if err := fn(tx); err != nil {
			return nil, err
		}
		return e.commitLocked(tx)
	})
	if err != nil {
		return nil, err
	}
	e.notify(c)
	return c, nil
}

// locked runs fn holding the write lock on a writable engine. The lock is
// released even if fn panics.
func (e *Engine) locked(fn func() (*change.Change, error)) (*change.Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writableLocked(); err != nil {
		return nil, err
	}
	return fn()
}

// Select moves the selection without changing the tree.
func (e *Engine) Select(anchor, focus tree.Point) (cursor.Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return cursor.Selection{}, fmt.Errorf("%w: document closed", ErrStaleReference)
	}
	sel, err := cursor.Derive(e.tree, anchor, focus)
	if err != nil {
		return cursor.Selection{}, err
	}
	e.sel = sel
	return sel, nil
}

// Undo restores the tree from before the most recent change.
func (e *Engine) Undo() (*change.Change, error) {
	return e.travel(e.history.Undo, func(c *change.Change) (*tree.Tree, cursor.Selection) {
		return c.Before, c.SelectionBefore
	})
}

// Redo restores the tree from after the most recently undone change.
func (e *Engine) Redo() (*change.Change, error) {
	return e.travel(e.history.Redo, func(c *change.Change) (*tree.Tree, cursor.Selection) {
		return c.After, c.Selection
	})
}

func (e *Engine) travel(pop func() (*change.Change, error), pick func(*change.Change) (*tree.Tree, cursor.Selection)) (*change.Change, error) {
	out, err := e.locked(func() (*change.Change, error) {
		c, err := pop()
		if err != nil {
			return nil, err
		}
		t, sel := pick(c)
		if sel, err = cursor.Refresh(t, sel); err != nil {
			sel, _ = cursor.Start(t)
		}
		out := &change.Change{
			Version:         e.version,
			Before:          e.tree,
			After:           t,
			SelectionBefore: e.sel,
			Selection:       sel,
			Ops:             []string{"restore"},
		}
		e.tree, e.sel = t, sel
		e.version++
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(out)
	return out, nil
}

// CanUndo reports whether Undo has anything to restore.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

func (e *Engine) writableLocked() error {
	if e.closed {
		return fmt.Errorf("%w: document closed", ErrStaleReference)
	}
	if e.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (e *Engine) commitLocked(tx *change.Transaction) (*change.Change, error) {
	c, err := tx.Commit()
	if err != nil {
		return nil, err
	}
	if e.normalize != nil && c.TreeChanged() {
		if n := e.normalize(c.After); !tree.Equal(n, c.After) {
			c.After = n
			if c.Selection, err = cursor.Refresh(n, c.Selection); err != nil {
				c.Selection, _ = cursor.Start(n)
			}
		}
	}
	e.tree, e.sel = c.After, c.Selection
	if c.Selection.Anchor.Key == "" {
		e.sel, _ = cursor.Start(c.After)
		c.Selection = e.sel
	}
	e.version++
	e.history.Push(c)
	return c, nil
}

func (e *Engine) notify(c *change.Change) {
	e.lmu.Lock()
	ls := make([]func(*change.Change), len(e.listeners))
	copy(ls, e.listeners)
	e.lmu.Unlock()
	for _, fn := range ls {
		fn(c)
	}
}
