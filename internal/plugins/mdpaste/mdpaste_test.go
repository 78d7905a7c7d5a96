package mdpaste_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugin/plugintest"
	"github.com/dshills/richtext/internal/plugins/core"
	"github.com/dshills/richtext/internal/plugins/mdpaste"
)

func TestConvert(t *testing.T) {
	src := "# Title\n\nSome **bold** and ~~gone~~ `code` [link](https://x.io).\n\n" +
		"- one\n- two\n\n1. first\n\n- [ ] todo\n- [x] done\n\n> quoted\n\n---\n\n```go\nx := 1\ny := 2\n```\n"
	got := mdpaste.Convert(src)
	want := []tree.Spec{
		tree.NewBlock(tree.Heading1, tree.NewText("Title")),
		tree.NewBlock(tree.Paragraph,
			tree.NewText("Some "),
			tree.NewText("bold", tree.MarkBold),
			tree.NewText(" and "),
			tree.NewText("gone", tree.MarkDeleted),
			tree.NewText(" "),
			tree.NewText("code", tree.MarkCode),
			tree.NewText(" "),
			tree.NewBlock(tree.Link, tree.NewText("link")).WithData(tree.Data{"href": "https://x.io"}),
			tree.NewText("."),
		),
		tree.NewBlock(tree.BulletedList,
			tree.NewBlock(tree.ListItem, tree.NewBlock(tree.Paragraph, tree.NewText("one"))),
			tree.NewBlock(tree.ListItem, tree.NewBlock(tree.Paragraph, tree.NewText("two"))),
		),
		tree.NewBlock(tree.OrderedList,
			tree.NewBlock(tree.ListItem, tree.NewBlock(tree.Paragraph, tree.NewText("first"))),
		),
		tree.NewBlock(tree.TodoList,
			tree.NewBlock(tree.ListItem, tree.NewBlock(tree.Paragraph, tree.NewText("todo"))).WithData(tree.Data{"checked": false}),
			tree.NewBlock(tree.ListItem, tree.NewBlock(tree.Paragraph, tree.NewText("done"))).WithData(tree.Data{"checked": true}),
		),
		tree.NewBlock(tree.BlockQuote, tree.NewText("quoted")),
		{Type: tree.HorizontalRule},
		tree.NewBlock(tree.Code,
			tree.NewBlock(tree.CodeLine, tree.NewText("x := 1")),
			tree.NewBlock(tree.CodeLine, tree.NewText("y := 2")),
		).WithData(tree.Data{"language": "go"}),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert (-want +got):\n%s", diff)
	}
	doc := tree.NewDocument(got...)
	if _, err := tree.New(doc); err != nil {
		t.Errorf("converted blocks do not form a valid document: %v", err)
	}
}

func TestConvertSoftBreaks(t *testing.T) {
	got := mdpaste.Convert("a\nb")
	want := []tree.Spec{tree.NewBlock(tree.Paragraph, tree.NewText("a\nb"))}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Convert (-want +got):\n%s", diff)
	}
}

func doc() tree.Spec {
	return tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("start end").WithKey("t1")).WithKey("p1"),
	)
}

func TestPasteInsertsBlocks(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   []string
	}{
		{"middle", 6, []string{"paragraph:start ", "heading2:H", "paragraph:body", "paragraph:end"}},
		{"end", 9, []string{"paragraph:start end", "heading2:H", "paragraph:body"}},
		{"start", 0, []string{"heading2:H", "paragraph:body", "paragraph:start end"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := plugintest.New(t, doc(), mdpaste.New(), core.New())
			h.Cursor("t1", tt.offset)
			if res := h.Paste(plugin.Paste{Text: "## H\n\nbody"}); res != plugin.Handled {
				t.Fatalf("result = %v, want handled", res)
			}
			if diff := cmp.Diff(tt.want, h.Blocks()); diff != "" {
				t.Errorf("blocks (-want +got):\n%s", diff)
			}
			blk, off := h.Caret()
			if h.Tree().TextOf(blk) != "body" || off != 4 {
				t.Errorf("caret = %s:%d, want end of pasted body", blk, off)
			}
		})
	}
}

func TestPasteReplacesEmptyBlock(t *testing.T) {
	h := plugintest.New(t, tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("").WithKey("t1")),
	), mdpaste.New(), core.New())
	h.Cursor("t1", 0)
	h.Paste(plugin.Paste{Text: "- a\n- b\n"})
	want := []string{"paragraph:a", "paragraph:b"}
	if diff := cmp.Diff(want, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	root := h.Tree().Children(h.Tree().Root())
	if len(root) != 1 || h.Tree().Type(root[0]) != tree.BulletedList {
		t.Errorf("document children = %v", root)
	}
}

func TestSingleLinePassesThrough(t *testing.T) {
	h := plugintest.New(t, doc(), mdpaste.New())
	if res := h.Paste(plugin.Paste{Text: "**x**\n"}); res != plugin.PassThrough {
		t.Errorf("result = %v, want pass", res)
	}
}
