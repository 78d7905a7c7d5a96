package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/tree"
)

func newDoc(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	doc := tree.MustNew(tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("Hello world").WithKey("t1")).WithKey("p1"),
		tree.NewBlock(tree.TodoList,
			tree.NewBlock(tree.ListItem,
				tree.NewBlock(tree.Paragraph, tree.NewText("milk").WithKey("t2")).WithKey("p2"),
			).WithKey("k1").WithData(tree.Data{"checked": false}),
		).WithKey("l1"),
	).WithKey("doc"))
	e, err := New(doc, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func selectText(t *testing.T, e *Engine, k tree.Key, from, to int) {
	t.Helper()
	if _, err := e.Select(tree.Point{Key: k, Offset: from}, tree.Point{Key: k, Offset: to}); err != nil {
		t.Fatalf("Select: %v", err)
	}
}

func TestChecklistToggle(t *testing.T) {
	e := newDoc(t)
	before := e.Tree()
	if _, err := e.RequestDataPatch("k1", tree.Data{"checked": true}); err != nil {
		t.Fatalf("RequestDataPatch: %v", err)
	}
	data, err := e.NodeData("k1")
	if err != nil {
		t.Fatalf("NodeData: %v", err)
	}
	if diff := cmp.Diff(tree.Data{"checked": true}, data); diff != "" {
		t.Errorf("k1 data mismatch (-want +got):\n%s", diff)
	}
	after := e.Tree()
	for _, k := range before.Keys() {
		if k == "k1" {
			continue
		}
		a, _ := before.Node(k)
		b, err := after.Node(k)
		if err != nil {
			t.Fatalf("Node(%q): %v", k, err)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("node %q changed:\n%s", k, diff)
		}
	}
}

func TestBlockQuoteToggle(t *testing.T) {
	e := newDoc(t)
	selectText(t, e, "t1", 2, 2)
	if !e.IsBlockType(tree.Paragraph) {
		t.Fatal("start block is not a paragraph")
	}
	if _, err := e.RequestBlockType(tree.BlockQuote); err != nil {
		t.Fatalf("RequestBlockType: %v", err)
	}
	if got := e.Tree().Type("p1"); got != tree.BlockQuote {
		t.Errorf("Type(p1) = %s, want %s", got, tree.BlockQuote)
	}
	if !e.IsBlockType(tree.BlockQuote) {
		t.Error("IsBlockType(block-quote) = false after toggle")
	}
	if _, err := e.RequestBlockType(tree.BlockQuote); err != nil {
		t.Fatalf("RequestBlockType again: %v", err)
	}
	if got := e.Tree().Type("p1"); got != tree.Paragraph {
		t.Errorf("Type(p1) = %s, want revert to %s", got, tree.Paragraph)
	}
}

func TestLinkWrap(t *testing.T) {
	e := newDoc(t)
	selectText(t, e, "t1", 0, 11)
	c, err := e.RequestInlineWrap(tree.Link, tree.Data{"href": "https://example.com"})
	if err != nil {
		t.Fatalf("RequestInlineWrap: %v", err)
	}
	kids := c.After.Children("p1")
	if len(kids) != 1 || c.After.Type(kids[0]) != tree.Link {
		t.Fatalf("Children(p1) = %v, want one link", kids)
	}
	link, _ := c.After.Node(kids[0])
	if link.Data.String("href") != "https://example.com" || len(link.Children) != 1 {
		t.Errorf("link = %+v", link)
	}
	run, _ := c.After.Node(link.Children[0])
	if run.Text != "Hello world" || len(run.Marks) != 0 {
		t.Errorf("wrapped run = %q %v, want unchanged", run.Text, run.Marks)
	}
}

func TestMarkToggleAndQuery(t *testing.T) {
	e := newDoc(t)
	selectText(t, e, "t1", 0, 5)
	if e.HasMark(tree.MarkBold) {
		t.Fatal("HasMark(bold) before toggle")
	}
	if _, err := e.RequestMarkToggle(tree.MarkBold); err != nil {
		t.Fatalf("RequestMarkToggle: %v", err)
	}
	if !e.HasMark(tree.MarkBold) {
		t.Error("HasMark(bold) = false after toggle")
	}
	if _, err := e.RequestMarkToggle("sparkle"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("RequestMarkToggle(unknown) error = %v, want ErrInvalidType", err)
	}
}

func TestApplyRejectsStaleTransactions(t *testing.T) {
	e := newDoc(t)
	stale := e.Begin().SetNodeData("p1", tree.Data{"a": 1})
	if _, err := e.RequestDataPatch("k1", tree.Data{"checked": true}); err != nil {
		t.Fatalf("RequestDataPatch: %v", err)
	}
	if _, err := e.Apply(stale); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Apply(stale) error = %v, want ErrStaleReference", err)
	}
	if data, _ := e.NodeData("p1"); data != nil {
		t.Errorf("p1 data = %v, stale transaction was applied", data)
	}
}

func TestClosedDocumentRejectsWrites(t *testing.T) {
	e := newDoc(t)
	tx := e.Begin().SetNodeData("p1", tree.Data{"a": 1})
	e.Close()
	if _, err := e.Apply(tx); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Apply after Close error = %v, want ErrStaleReference", err)
	}
	if _, err := e.Update(func(*change.Transaction) error { return nil }); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Update after Close error = %v, want ErrStaleReference", err)
	}
	if !e.Closed() {
		t.Error("Closed() = false")
	}
}

func TestUpdateRevalidatesKeys(t *testing.T) {
	e := newDoc(t)
	if _, err := e.Update(func(tx *change.Transaction) error {
		tx.RemoveNode("l1")
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, err := e.Update(func(tx *change.Transaction) error {
		tx.SetNodeData("k1", tree.Data{"checked": true})
		return nil
	})
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Update error = %v, want ErrUnknownKey", err)
	}
}

func TestRequestLinkCreation(t *testing.T) {
	e := newDoc(t)
	selectText(t, e, "t1", 0, 5)
	c, err := e.RequestLinkCreation(context.Background(), LinkProviderFunc(func(context.Context) (string, error) {
		return "https://example.org", nil
	}))
	if err != nil {
		t.Fatalf("RequestLinkCreation: %v", err)
	}
	link := c.After.Children("p1")[0]
	if n, _ := c.After.Node(link); n.Type != tree.Link || n.Data.String("href") != "https://example.org" {
		t.Errorf("first child = %+v, want link", n)
	}

	selectText(t, e, "t2", 0, 4)
	_, err = e.RequestLinkCreation(context.Background(), LinkProviderFunc(func(context.Context) (string, error) {
		e.RequestDataPatch("k1", tree.Data{"checked": true})
		return "https://example.net", nil
	}))
	if !errors.Is(err, ErrStaleReference) {
		t.Errorf("RequestLinkCreation after concurrent edit error = %v, want ErrStaleReference", err)
	}

	cancelled := errors.New("cancelled by user")
	_, err = e.RequestLinkCreation(context.Background(), LinkProviderFunc(func(context.Context) (string, error) {
		return "", cancelled
	}))
	if !errors.Is(err, cancelled) {
		t.Errorf("RequestLinkCreation error = %v, want provider error", err)
	}
}

func TestNormalizerRunsAfterCommit(t *testing.T) {
	calls := 0
	appendParagraph := func(t *tree.Tree) *tree.Tree {
		calls++
		kids := t.Children(t.Root())
		if t.Type(kids[len(kids)-1]) == tree.Paragraph {
			return t
		}
		next, _, err := t.WithNodeInserted(t.Root(), -1, tree.NewBlock(tree.Paragraph))
		if err != nil {
			return t
		}
		return next
	}
	e := newDoc(t, WithNormalizer(appendParagraph))
	kids := e.Tree().Children("doc")
	if len(kids) != 3 || e.Tree().Type(kids[2]) != tree.Paragraph {
		t.Fatalf("document children = %v, want trailing paragraph", kids)
	}
	if _, err := e.RequestDataPatch("p1", tree.Data{"x": 1}); err != nil {
		t.Fatalf("RequestDataPatch: %v", err)
	}
	if calls != 2 {
		t.Errorf("normalizer ran %d times, want 2", calls)
	}
}

func TestUndoRedo(t *testing.T) {
	e := newDoc(t)
	original := e.Tree()
	selectText(t, e, "t1", 11, 11)
	if _, err := e.Update(func(tx *change.Transaction) error {
		tx.InsertText("!")
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !tree.Equal(original, e.Tree()) {
		t.Error("Undo did not restore the original tree")
	}
	if _, err := e.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := e.Tree().TextOf("p1"); got != "Hello world!" {
		t.Errorf("TextOf(p1) = %q after redo", got)
	}
	if e.Selection().Focus != (tree.Point{Key: "t1", Offset: 12}) {
		t.Errorf("Focus = %v after redo", e.Selection().Focus)
	}
}

func TestReadOnly(t *testing.T) {
	e := newDoc(t, WithReadOnly(true))
	if _, err := e.RequestDataPatch("k1", tree.Data{"checked": true}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("RequestDataPatch error = %v, want ErrReadOnly", err)
	}
}

func TestOnChange(t *testing.T) {
	e := newDoc(t, WithID("doc-1"))
	var seen []uint64
	e.OnChange(func(c *Change) { seen = append(seen, c.Version) })
	e.RequestDataPatch("k1", tree.Data{"checked": true})
	e.RequestDataPatch("k1", tree.Data{"checked": false})
	if diff := cmp.Diff([]uint64{0, 1}, seen); diff != "" {
		t.Errorf("versions seen (-want +got):\n%s", diff)
	}
	if e.ID() != "doc-1" || e.Version() != 2 {
		t.Errorf("ID/Version = %s/%d", e.ID(), e.Version())
	}
}

func newFlatDoc(t *testing.T) *Engine {
	t.Helper()
	e, err := New(tree.MustNew(tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("one").WithKey("t1")).WithKey("p1"),
		tree.NewBlock(tree.Paragraph, tree.NewText("two").WithKey("t2")).WithKey("p2"),
		tree.NewBlock(tree.Paragraph, tree.NewText("three").WithKey("t3")).WithKey("p3"),
	).WithKey("doc")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func types(tr *tree.Tree) []tree.Type {
	var out []tree.Type
	for _, k := range tr.Leaves(tr.Root()) {
		out = append(out, tr.Type(k))
	}
	return out
}

func TestRequestBlockTypeBeyondFirstBlock(t *testing.T) {
	tests := []struct {
		name        string
		anchor, foc tree.Point
		typ         tree.Type
		want        []tree.Type
	}{
		{
			name:   "caret in second block",
			anchor: tree.Point{Key: "t2", Offset: 1},
			foc:    tree.Point{Key: "t2", Offset: 1},
			typ:    tree.Heading1,
			want:   []tree.Type{tree.Paragraph, tree.Heading1, tree.Paragraph},
		},
		{
			name:   "caret in last block",
			anchor: tree.Point{Key: "t3", Offset: 5},
			foc:    tree.Point{Key: "t3", Offset: 5},
			typ:    tree.BlockQuote,
			want:   []tree.Type{tree.Paragraph, tree.Paragraph, tree.BlockQuote},
		},
		{
			name:   "range over every block",
			anchor: tree.Point{Key: "t3", Offset: 2},
			foc:    tree.Point{Key: "t1", Offset: 1},
			typ:    tree.BlockQuote,
			want:   []tree.Type{tree.BlockQuote, tree.BlockQuote, tree.BlockQuote},
		},
		{
			name:   "range over the last two blocks",
			anchor: tree.Point{Key: "t2", Offset: 0},
			foc:    tree.Point{Key: "t3", Offset: 1},
			typ:    tree.Heading2,
			want:   []tree.Type{tree.Paragraph, tree.Heading2, tree.Heading2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFlatDoc(t)
			if _, err := e.Select(tt.anchor, tt.foc); err != nil {
				t.Fatalf("Select: %v", err)
			}
			if _, err := e.RequestBlockType(tt.typ); err != nil {
				t.Fatalf("RequestBlockType: %v", err)
			}
			if diff := cmp.Diff(tt.want, types(e.Tree())); diff != "" {
				t.Errorf("types (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeleteAcrossBlocks(t *testing.T) {
	e := newFlatDoc(t)
	if _, err := e.Select(tree.Point{Key: "t1", Offset: 1}, tree.Point{Key: "t3", Offset: 2}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := e.Update(func(tx *change.Transaction) error {
		tx.Delete()
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	tr := e.Tree()
	if got := tr.TextOf(tr.Root()); got != "oree" {
		t.Errorf("text = %q, want %q", got, "oree")
	}
	if diff := cmp.Diff([]tree.Key{"p1"}, tr.Leaves(tr.Root())); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	if got := e.Selection().Focus; got != (tree.Point{Key: "t1", Offset: 1}) {
		t.Errorf("focus = %v, want t1:1", got)
	}
}

func TestRemoveBlockHoldingSelection(t *testing.T) {
	e := newFlatDoc(t)
	selectText(t, e, "t1", 1, 2)
	if _, err := e.Update(func(tx *change.Transaction) error {
		return tx.RemoveNode("p1").Err()
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.Tree().Has("p1") || e.Tree().Has("t1") {
		t.Error("p1 survived the removal")
	}
	sel := e.Selection()
	if sel.Focus != (tree.Point{Key: "t2"}) || !sel.IsCollapsed() {
		t.Errorf("selection = %+v, want caret at start of t2", sel)
	}

	selectText(t, e, "t3", 2, 2)
	if _, err := e.Update(func(tx *change.Transaction) error {
		return tx.RemoveNode("p2").Err()
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := e.Selection().Focus; got != (tree.Point{Key: "t3", Offset: 2}) {
		t.Errorf("focus = %v, want t3:2 kept", got)
	}
}

func TestUpdatePanicReleasesLock(t *testing.T) {
	e := newFlatDoc(t)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Update did not propagate the panic")
			}
		}()
		e.Update(func(*change.Transaction) error { panic("boom") })
	}()

	done := make(chan error, 1)
	go func() {
		_, err := e.RequestDataPatch("p1", tree.Data{"seen": true})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RequestDataPatch: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("document still locked after a panicking update")
	}
	if d, _ := e.NodeData("p1"); !d.Bool("seen") {
		t.Errorf("data = %v", d)
	}
}
