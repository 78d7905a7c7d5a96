package core_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugin/plugintest"
	"github.com/dshills/richtext/internal/plugins/core"
)

func twoParagraphs() tree.Spec {
	return tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("Hello").WithKey("t1")).WithKey("p1"),
		tree.NewBlock(tree.Paragraph, tree.NewText("world").WithKey("t2")).WithKey("p2"),
	)
}

func TestTypingAndEnter(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	h.Cursor("t1", 5)
	h.Type(", you")
	if h.Key("Enter") != plugin.Handled {
		t.Fatal("Enter not handled")
	}
	h.Type("there")
	want := []string{"paragraph:Hello, you", "paragraph:there", "paragraph:world"}
	if diff := cmp.Diff(want, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestBackspaceAndDelete(t *testing.T) {
	tests := []struct {
		name   string
		key    tree.Key
		offset int
		press  string
		want   []string
	}{
		{"backspace grapheme", "t1", 5, "Backspace", []string{"paragraph:Hell", "paragraph:world"}},
		{"backspace joins blocks", "t2", 0, "Backspace", []string{"paragraph:Helloworld"}},
		{"backspace at document start", "t1", 0, "Backspace", []string{"paragraph:Hello", "paragraph:world"}},
		{"delete grapheme", "t2", 0, "Delete", []string{"paragraph:Hello", "paragraph:orld"}},
		{"delete joins blocks", "t1", 5, "Delete", []string{"paragraph:Helloworld"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := plugintest.New(t, twoParagraphs(), core.New())
			h.Cursor(tt.key, tt.offset)
			h.Key(tt.press)
			if diff := cmp.Diff(tt.want, h.Blocks()); diff != "" {
				t.Errorf("blocks (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBackspaceRemovesSelection(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	h.Select("t1", 2, "t2", 3)
	h.Key("Backspace")
	if diff := cmp.Diff([]string{"paragraph:Held"}, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	blk, off := h.Caret()
	if blk != "p1" || off != 2 {
		t.Errorf("caret = %s:%d, want p1:2", blk, off)
	}
}

func TestArrowMovement(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	h.Cursor("t1", 4)
	h.Key("Right")
	if blk, off := h.Caret(); blk != "p1" || off != 5 {
		t.Fatalf("after Right caret = %s:%d", blk, off)
	}
	h.Key("Right")
	if blk, off := h.Caret(); blk != "p2" || off != 0 {
		t.Fatalf("Right at block end: caret = %s:%d", blk, off)
	}
	h.Key("Shift+Left")
	sel := h.Doc.Selection()
	if sel.Anchor != (tree.Point{Key: "t2"}) || sel.Focus != (tree.Point{Key: "t1", Offset: 5}) {
		t.Errorf("Shift+Left selection = %v..%v", sel.Anchor, sel.Focus)
	}
	h.Key("Left")
	if !h.Doc.Selection().IsCollapsed() || h.Doc.Selection().Focus != (tree.Point{Key: "t1", Offset: 5}) {
		t.Errorf("Left on a range did not collapse to its start: %v", h.Doc.Selection().Focus)
	}
	h.Key("End")
	h.Key("Shift+Home")
	if s := h.Doc.Selection(); s.Start.Offset != 0 || s.End.Offset != 5 {
		t.Errorf("Shift+Home selection = %v..%v", s.Start, s.End)
	}
}

func threeParagraphs() tree.Spec {
	return tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("one").WithKey("t1")).WithKey("p1"),
		tree.NewBlock(tree.Paragraph, tree.NewText("two").WithKey("t2")).WithKey("p2"),
		tree.NewBlock(tree.Paragraph, tree.NewText("three").WithKey("t3")).WithKey("p3"),
	)
}

func TestEditsAfterTheFirstBlock(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *plugintest.Harness)
		press    string
		want     []string
		caretBlk tree.Key
		caretOff int
	}{
		{
			name:     "backspace joins third into second",
			setup:    func(h *plugintest.Harness) { h.Cursor("t3", 0) },
			press:    "Backspace",
			want:     []string{"paragraph:one", "paragraph:twothree"},
			caretBlk: "p2",
			caretOff: 3,
		},
		{
			name:     "delete joins third into second",
			setup:    func(h *plugintest.Harness) { h.Cursor("t2", 3) },
			press:    "Delete",
			want:     []string{"paragraph:one", "paragraph:twothree"},
			caretBlk: "p2",
			caretOff: 3,
		},
		{
			name:     "range over three blocks",
			setup:    func(h *plugintest.Harness) { h.Select("t3", 1, "t1", 2) },
			press:    "Backspace",
			want:     []string{"paragraph:onhree"},
			caretBlk: "p1",
			caretOff: 2,
		},
		{
			name:     "right crosses into the last block",
			setup:    func(h *plugintest.Harness) { h.Cursor("t2", 3) },
			press:    "Right",
			want:     []string{"paragraph:one", "paragraph:two", "paragraph:three"},
			caretBlk: "p3",
			caretOff: 0,
		},
		{
			name:     "left crosses back from the last block",
			setup:    func(h *plugintest.Harness) { h.Cursor("t3", 0) },
			press:    "Left",
			want:     []string{"paragraph:one", "paragraph:two", "paragraph:three"},
			caretBlk: "p2",
			caretOff: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := plugintest.New(t, threeParagraphs(), core.New())
			tt.setup(h)
			if res := h.Key(tt.press); res != plugin.Handled {
				t.Fatalf("%s = %v", tt.press, res)
			}
			if diff := cmp.Diff(tt.want, h.Blocks()); diff != "" {
				t.Errorf("blocks (-want +got):\n%s", diff)
			}
			if blk, off := h.Caret(); blk != tt.caretBlk || off != tt.caretOff {
				t.Errorf("caret = %s:%d, want %s:%d", blk, off, tt.caretBlk, tt.caretOff)
			}
		})
	}
}

func TestSelectAllAndType(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	h.Key("Mod+A")
	h.Type("x")
	if diff := cmp.Diff([]string{"paragraph:x"}, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestPasteLines(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	h.Cursor("t1", 5)
	if h.Paste(plugin.Paste{Text: " one\r\ntwo\nthree "}) != plugin.Handled {
		t.Fatal("paste not handled")
	}
	want := []string{"paragraph:Hello one", "paragraph:two", "paragraph:three ", "paragraph:world"}
	if diff := cmp.Diff(want, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	if h.Paste(plugin.Paste{}) != plugin.PassThrough {
		t.Error("empty paste handled")
	}
}

func TestUnhandledKeys(t *testing.T) {
	h := plugintest.New(t, twoParagraphs(), core.New())
	for _, spec := range []string{"Mod+Z", "Tab", "Escape", "Up"} {
		if h.Key(spec) != plugin.PassThrough {
			t.Errorf("%s handled", spec)
		}
	}
}

func TestFactoryRejectsParams(t *testing.T) {
	if _, err := core.Factory(map[string]any{"x": 1}, plugin.Env{}); err == nil {
		t.Error("Factory accepted unknown params")
	}
}
