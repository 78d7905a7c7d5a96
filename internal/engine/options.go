package engine

import (
	"github.com/dshills/richtext/internal/engine/history"
	"github.com/dshills/richtext/internal/engine/tree"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithID sets the document ID. By default a random UUID is used.
func WithID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.id = id
		}
	}
}

// WithNormalizer sets the function run on the tree after every commit.
func WithNormalizer(fn func(*tree.Tree) *tree.Tree) Option {
	return func(e *Engine) {
		e.normalize = fn
	}
}

// WithDecorator sets the function answering Decorations queries.
func WithDecorator(fn func(*tree.Tree, tree.Key) []Decoration) Option {
	return func(e *Engine) {
		e.decorate = fn
	}
}

// WithMaxUndoEntries sets the undo limit.
func WithMaxUndoEntries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxUndo = n
		}
	}
}

// WithReadOnly rejects every command with ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(e *Engine) {
		e.readOnly = readOnly
	}
}
