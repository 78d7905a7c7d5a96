package images_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugin/plugintest"
	"github.com/dshills/richtext/internal/plugins/core"
	"github.com/dshills/richtext/internal/plugins/images"
)

type uploaderFunc func(ctx context.Context, f plugin.File, data []byte) (string, error)

func (fn uploaderFunc) Upload(ctx context.Context, f plugin.File, data []byte) (string, error) {
	return fn(ctx, f, data)
}

func doc() tree.Spec {
	return tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("one").WithKey("t1")).WithKey("p1"),
		tree.NewBlock(tree.Paragraph, tree.NewText("two").WithKey("t2")).WithKey("p2"),
	)
}

func imageData(t *testing.T, tr *tree.Tree) []tree.Data {
	t.Helper()
	var out []tree.Data
	for _, k := range tr.Leaves(tr.Root()) {
		if tr.Type(k) == tree.Image {
			n, _ := tr.Node(k)
			out = append(out, n.Data)
		}
	}
	return out
}

func TestPasteInsertsImagesInOrder(t *testing.T) {
	up := uploaderFunc(func(_ context.Context, f plugin.File, data []byte) (string, error) {
		return "https://cdn.example/" + f.Name + "?n=" + string(data), nil
	})
	h := plugintest.New(t, doc(), images.New(images.DefaultOptions(), up, nil), core.New())
	h.Cursor("t1", 1)

	res := h.Paste(plugin.Paste{Files: []plugin.File{
		plugin.BytesFile("a.PNG", "image/png", []byte("1")),
		plugin.BytesFile("notes.txt", "text/plain", []byte("x")),
		plugin.BytesFile("b.jpg", "image/jpeg", []byte("2")),
	}})
	if res != plugin.Handled {
		t.Fatalf("result = %v, want handled", res)
	}
	h.Pipeline.Wait()

	want := []string{"paragraph:one", "image:", "image:", "paragraph:two"}
	if diff := cmp.Diff(want, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	wantData := []tree.Data{
		{"src": "https://cdn.example/a.PNG?n=1", "alt": "a.PNG"},
		{"src": "https://cdn.example/b.jpg?n=2", "alt": "b.jpg"},
	}
	if diff := cmp.Diff(wantData, imageData(t, h.Tree())); diff != "" {
		t.Errorf("image data (-want +got):\n%s", diff)
	}
}

func TestDataURIWithoutUploader(t *testing.T) {
	h := plugintest.New(t, doc(), images.New(images.DefaultOptions(), nil, nil))
	h.Cursor("t2", 0)
	h.Paste(plugin.Paste{Files: []plugin.File{plugin.BytesFile("x.gif", "", []byte("GIF"))}})
	h.Pipeline.Wait()

	got := imageData(t, h.Tree())
	want := []tree.Data{{"src": "data:image/gif;base64,R0lG", "alt": "x.gif"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("image data (-want +got):\n%s", diff)
	}
}

func TestNonImagePastePassesThrough(t *testing.T) {
	h := plugintest.New(t, doc(), images.New(images.DefaultOptions(), nil, nil))
	res := h.Paste(plugin.Paste{Files: []plugin.File{plugin.BytesFile("a.pdf", "", nil)}})
	if res != plugin.PassThrough {
		t.Errorf("result = %v, want pass", res)
	}
}

func TestRemovedAnchorDiscardsInsert(t *testing.T) {
	var h *plugintest.Harness
	load := func(context.Context) ([]byte, error) {
		_, err := h.Doc.Update(func(tx *change.Transaction) error {
			return tx.RemoveNode("p1").Err()
		})
		return []byte("1"), err
	}
	h = plugintest.New(t, doc(), images.New(images.DefaultOptions(), nil, nil))
	h.Cursor("t1", 0)
	h.Paste(plugin.Paste{Files: []plugin.File{{Name: "a.png", Load: load}}})
	h.Pipeline.Wait()

	want := []string{"paragraph:two"}
	if diff := cmp.Diff(want, h.Blocks()); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestLoadFailureLeavesDocument(t *testing.T) {
	h := plugintest.New(t, doc(), images.New(images.DefaultOptions(), nil, nil))
	before := h.Tree()
	fail := func(context.Context) ([]byte, error) { return nil, errors.New("disk gone") }
	h.Paste(plugin.Paste{Files: []plugin.File{{Name: "a.png", Load: fail}}})
	h.Pipeline.Wait()
	if !tree.Equal(before, h.Tree()) {
		t.Error("document changed after a failed load")
	}
}

func TestImageAfterCodeBlock(t *testing.T) {
	code := tree.NewDocument(
		tree.NewBlock(tree.Code,
			tree.NewBlock(tree.CodeLine, tree.NewText("x := 1").WithKey("t1")),
		).WithKey("c1"),
	)
	h := plugintest.New(t, code, images.New(images.DefaultOptions(), nil, nil))
	h.Cursor("t1", 0)
	h.Paste(plugin.Paste{Files: []plugin.File{plugin.BytesFile("a.png", "image/png", nil)}})
	h.Pipeline.Wait()
	kids := h.Tree().Children(h.Tree().Root())
	if len(kids) != 2 || kids[0] != "c1" || h.Tree().Type(kids[1]) != tree.Image {
		t.Errorf("document children = %v", kids)
	}
}
