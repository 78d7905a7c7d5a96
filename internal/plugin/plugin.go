package plugin

import (
	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
)

// Result is a handler's verdict on an event.
type Result uint8

const (
	// PassThrough offers the event to the next plugin.
	PassThrough Result = iota
	// Handled stops dispatch and commits the handler's transaction.
	Handled
)

// String returns the metric label for r.
func (r Result) String() string {
	if r == Handled {
		return "handled"
	}
	return "pass"
}

// Plugin is a named editing behavior. A plugin implements any subset of the
// handler interfaces below.
type Plugin interface {
	Name() string
}

// KeyDownHandler reacts to key presses.
type KeyDownHandler interface {
	OnKeyDown(ctx *Context, ev key.Event) (Result, error)
}

// PasteHandler reacts to clipboard pastes and dropped files.
type PasteHandler interface {
	OnPaste(ctx *Context, p Paste) (Result, error)
}

// EscapeHandler reacts to the escape key.
type EscapeHandler interface {
	OnEscape(ctx *Context) (Result, error)
}

// Normalizer repairs a tree after every committed change. It must return t
// itself when nothing needs repair.
type Normalizer interface {
	Normalize(t *tree.Tree) *tree.Tree
}

// Decorator computes presentation spans for the block at k.
type Decorator interface {
	Decorate(t *tree.Tree, k tree.Key) []engine.Decoration
}

// Func adapts plain functions to a plugin. Nil fields are not implemented;
// the pipeline treats a nil handler as PassThrough.
type Func struct {
	ID      string
	KeyDown func(ctx *Context, ev key.Event) (Result, error)
	Paste   func(ctx *Context, p Paste) (Result, error)
	Escape  func(ctx *Context) (Result, error)
}

// Name implements Plugin.
func (f *Func) Name() string { return f.ID }

// OnKeyDown implements KeyDownHandler.
func (f *Func) OnKeyDown(ctx *Context, ev key.Event) (Result, error) {
	if f.KeyDown == nil {
		return PassThrough, nil
	}
	return f.KeyDown(ctx, ev)
}

// OnPaste implements PasteHandler.
func (f *Func) OnPaste(ctx *Context, p Paste) (Result, error) {
	if f.Paste == nil {
		return PassThrough, nil
	}
	return f.Paste(ctx, p)
}

// OnEscape implements EscapeHandler.
func (f *Func) OnEscape(ctx *Context) (Result, error) {
	if f.Escape == nil {
		return PassThrough, nil
	}
	return f.Escape(ctx)
}
