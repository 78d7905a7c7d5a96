package app

import (
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/history"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

var (
	redoKeys = []key.Event{key.MustParse("Mod+Shift+Z"), key.MustParse("Mod+Y")}
	undoKeys = []key.Event{key.MustParse("Mod+Z")}
)

// Document is an open document whose events run through its editor's
// pipeline.
type Document struct {
	*engine.Engine
	editor *Editor
}

// KeyDown dispatches ev. Undo and redo keys nobody claims step through
// history.
func (d *Document) KeyDown(ev key.Event) plugin.Result {
	if res := d.editor.pipeline.KeyDown(d.Engine, ev); res == plugin.Handled {
		return res
	}
	switch {
	case matchesAny(ev, redoKeys):
		return d.history("redo", d.Engine.Redo)
	case matchesAny(ev, undoKeys):
		return d.history("undo", d.Engine.Undo)
	}
	return plugin.PassThrough
}

// HandleEvent dispatches a terminal event. Key events go through KeyDown;
// other events pass through.
func (d *Document) HandleEvent(ev tcell.Event) plugin.Result {
	kev, ok := ev.(*tcell.EventKey)
	if !ok {
		return plugin.PassThrough
	}
	return d.KeyDown(key.FromTcell(kev))
}

// Type dispatches one key press per character of text.
func (d *Document) Type(text string) {
	for _, r := range text {
		d.KeyDown(key.NewRuneEvent(r, key.ModNone))
	}
}

// Paste dispatches p.
func (d *Document) Paste(p plugin.Paste) plugin.Result {
	return d.editor.pipeline.Paste(d.Engine, p)
}

// Escape dispatches the escape key.
func (d *Document) Escape() plugin.Result {
	return d.editor.pipeline.Escape(d.Engine)
}

// Undo reverts the last change.
func (d *Document) Undo() (*change.Change, error) {
	c, err := d.Engine.Undo()
	d.recordHistory("undo", err)
	return c, err
}

// Redo reapplies the last undone change.
func (d *Document) Redo() (*change.Change, error) {
	c, err := d.Engine.Redo()
	d.recordHistory("redo", err)
	return c, err
}

// Close closes the document and removes it from its editor.
func (d *Document) Close() {
	d.Engine.Close()
	d.editor.forget(d)
}

func (d *Document) history(op string, fn func() (*change.Change, error)) plugin.Result {
	_, err := fn()
	d.recordHistory(op, err)
	if err != nil {
		if !isEmptyHistory(err) {
			d.editor.logger.Warn("%s: %v", op, err)
		}
		return plugin.PassThrough
	}
	return plugin.Handled
}

func (d *Document) recordHistory(op string, err error) {
	if err == nil || isEmptyHistory(err) {
		d.editor.metrics.recordHistory(op, err)
	}
}

func isEmptyHistory(err error) bool {
	return errors.Is(err, history.ErrNothingToUndo) || errors.Is(err, history.ErrNothingToRedo)
}

func matchesAny(ev key.Event, hs []key.Event) bool {
	for _, h := range hs {
		if ev.Matches(h) {
			return true
		}
	}
	return false
}
