package history

import (
	"errors"
	"sync"

	"github.com/dshills/richtext/internal/engine/change"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries bounds the undo stack when New gets a non-positive limit.
const DefaultMaxEntries = 1000

type entry struct {
	change *change.Change
}

// History manages undo/redo state for a document.
type History struct {
	mu sync.Mutex

	undoStack []entry
	redoStack []entry

	maxEntries int
}

// New creates a history holding at most maxEntries undo steps.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Push records a committed change and clears the redo stack. Changes that
// leave the tree untouched are not recorded.
func (h *History) Push(c *change.Change) {
	if c == nil || !c.TreeChanged() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = append(h.undoStack, entry{change: c})
	h.redoStack = nil

	if excess := len(h.undoStack) - h.maxEntries; excess > 0 {
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo pops the most recent change. The caller restores its Before tree.
func (h *History) Undo() (*change.Change, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, e)
	return e.change, nil
}

// Redo pops the most recently undone change. The caller restores its After
// tree.
func (h *History) Redo() (*change.Change, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, e)
	return e.change, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo steps.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}
