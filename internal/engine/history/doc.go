// Package history keeps the undo and redo stacks of a document.
//
// Every committed change records the tree before and after it. Because trees
// are immutable and share structure, undoing a change is a matter of putting
// the earlier tree back; nothing is replayed or inverted.
//
//	h := history.New(100)
//	h.Push(c)
//	prev, err := h.Undo() // prev.Before is the tree to restore
package history
