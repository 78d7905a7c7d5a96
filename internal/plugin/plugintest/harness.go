// Package plugintest drives plugins against a live document in tests.
package plugintest

import (
	"context"
	"testing"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Harness is a document wired to a pipeline.
type Harness struct {
	t        testing.TB
	Doc      *engine.Engine
	Pipeline *plugin.Pipeline
}

// New builds doc and a pipeline over plugins, in order. The pipeline's
// normalize chain and decorators are attached to the document.
func New(t testing.TB, doc tree.Spec, plugins ...plugin.Plugin) *Harness {
	t.Helper()
	p, err := plugin.New(plugins)
	if err != nil {
		t.Fatalf("plugin.New: %v", err)
	}
	tr, err := tree.New(doc)
	if err != nil {
		t.Fatalf("tree.New: %v", err)
	}
	e, err := engine.New(tr, engine.WithNormalizer(p.Normalize), engine.WithDecorator(p.Decorate))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { p.Close(context.Background()) })
	return &Harness{t: t, Doc: e, Pipeline: p}
}

// Key dispatches the key described by spec.
func (h *Harness) Key(spec string) plugin.Result {
	h.t.Helper()
	ev, err := key.Parse(spec)
	if err != nil {
		h.t.Fatalf("key.Parse(%q): %v", spec, err)
	}
	return h.Pipeline.KeyDown(h.Doc, ev)
}

// Type dispatches one key press per character of text.
func (h *Harness) Type(text string) {
	h.t.Helper()
	for _, r := range text {
		h.Pipeline.KeyDown(h.Doc, key.NewRuneEvent(r, key.ModNone))
	}
}

// Paste dispatches p.
func (h *Harness) Paste(p plugin.Paste) plugin.Result {
	return h.Pipeline.Paste(h.Doc, p)
}

// Escape dispatches the escape key.
func (h *Harness) Escape() plugin.Result {
	return h.Pipeline.Escape(h.Doc)
}

// Cursor collapses the selection at k:off.
func (h *Harness) Cursor(k tree.Key, off int) {
	h.Select(k, off, k, off)
}

// Select sets the selection from ak:ao to fk:fo.
func (h *Harness) Select(ak tree.Key, ao int, fk tree.Key, fo int) {
	h.t.Helper()
	if _, err := h.Doc.Select(tree.Point{Key: ak, Offset: ao}, tree.Point{Key: fk, Offset: fo}); err != nil {
		h.t.Fatalf("Select: %v", err)
	}
}

// Tree returns the current tree.
func (h *Harness) Tree() *tree.Tree {
	return h.Doc.Tree()
}

// Blocks returns the type and text of every leaf block in document order,
// formatted as "type:text".
func (h *Harness) Blocks() []string {
	t := h.Doc.Tree()
	var out []string
	for _, k := range t.Leaves(t.Root()) {
		out = append(out, string(t.Type(k))+":"+t.TextOf(k))
	}
	return out
}

// Caret returns the block and block offset of the focus.
func (h *Harness) Caret() (tree.Key, int) {
	h.t.Helper()
	blk, off, err := h.Doc.Tree().BlockOffset(h.Doc.Selection().Focus)
	if err != nil {
		h.t.Fatalf("BlockOffset: %v", err)
	}
	return blk, off
}
