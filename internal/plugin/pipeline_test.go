package plugin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/logging"
)

func newDoc(t *testing.T) *engine.Engine {
	t.Helper()
	doc := tree.MustNew(tree.NewDocument(
		tree.NewBlock(tree.Paragraph, tree.NewText("Hello").WithKey("t1")).WithKey("p1"),
	).WithKey("doc"))
	e, err := engine.New(doc)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func newPipeline(t *testing.T, plugins ...Plugin) (*Pipeline, *bytes.Buffer, *Metrics) {
	t.Helper()
	var buf bytes.Buffer
	log := logging.NewLogger(logging.LoggerConfig{Level: logging.LogLevelDebug, Output: &buf})
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	p, err := New(plugins, WithLogger(log), WithMetrics(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close(context.Background()) })
	return p, &buf, m
}

func inserting(name, text string, res Result) *Func {
	return &Func{ID: name, KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
		ctx.Tx().InsertText(text)
		return res, nil
	}}
}

func TestFirstHandledWins(t *testing.T) {
	doc := newDoc(t)
	var calls []string
	record := func(name string, res Result) *Func {
		return &Func{ID: name, KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
			calls = append(calls, name)
			ctx.Tx().InsertText(name)
			return res, nil
		}}
	}
	p, _, m := newPipeline(t, record("a", PassThrough), &Func{ID: "paste-only"}, record("b", Handled), record("c", Handled))

	if got := p.KeyDown(doc, key.MustParse("x")); got != Handled {
		t.Fatalf("KeyDown = %v, want Handled", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
	if got := doc.Tree().TextOf("p1"); got != "bHello" {
		t.Errorf("TextOf(p1) = %q, want only b's edit", got)
	}
	if got := testutil.ToFloat64(m.dispatch.WithLabelValues("b", EventKeyDown, "handled")); got != 1 {
		t.Errorf("handled count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.dispatch.WithLabelValues("a", EventKeyDown, "pass")); got != 1 {
		t.Errorf("pass count = %v, want 1", got)
	}
}

func TestFailuresDowngradeToPassThrough(t *testing.T) {
	tests := []struct {
		name   string
		plugin Plugin
		logged string
	}{
		{
			name: "error",
			plugin: &Func{ID: "bad", KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
				ctx.Tx().InsertText("bad")
				return Handled, errors.New("boom")
			}},
			logged: "handler failed: boom",
		},
		{
			name: "panic",
			plugin: &Func{ID: "bad", KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
				panic("kaboom")
			}},
			logged: "plugin panicked: kaboom",
		},
		{
			name: "rejected transaction",
			plugin: &Func{ID: "bad", KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
				ctx.Tx().SetNodeData("missing", tree.Data{"a": 1})
				return Handled, nil
			}},
			logged: "transaction rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(t)
			p, buf, m := newPipeline(t, tt.plugin, inserting("good", "ok ", Handled))
			if got := p.KeyDown(doc, key.MustParse("x")); got != Handled {
				t.Fatalf("KeyDown = %v, want Handled by the next plugin", got)
			}
			if got := doc.Tree().TextOf("p1"); got != "ok Hello" {
				t.Errorf("TextOf(p1) = %q", got)
			}
			if !strings.Contains(buf.String(), "[WARN]") || !strings.Contains(buf.String(), tt.logged) {
				t.Errorf("log = %q, want warning containing %q", buf.String(), tt.logged)
			}
			if got := testutil.ToFloat64(m.failures.WithLabelValues("bad", EventKeyDown)); got != 1 {
				t.Errorf("failures = %v, want 1", got)
			}
		})
	}
}

func TestNobodyHandles(t *testing.T) {
	doc := newDoc(t)
	p, _, _ := newPipeline(t, inserting("a", "zzz", PassThrough))
	if got := p.Escape(doc); got != PassThrough {
		t.Errorf("Escape = %v, want PassThrough", got)
	}
	if got := p.KeyDown(doc, key.MustParse("x")); got != PassThrough {
		t.Errorf("KeyDown = %v, want PassThrough", got)
	}
	if doc.Version() != 0 {
		t.Errorf("Version = %d, discarded transactions were applied", doc.Version())
	}
}

func TestHandledWithoutEditsDoesNotCommit(t *testing.T) {
	doc := newDoc(t)
	p, _, _ := newPipeline(t, &Func{ID: "swallow", KeyDown: func(*Context, key.Event) (Result, error) {
		return Handled, nil
	}})
	if got := p.KeyDown(doc, key.MustParse("Mod+B")); got != Handled {
		t.Fatalf("KeyDown = %v", got)
	}
	if doc.Version() != 0 {
		t.Errorf("Version = %d, want 0", doc.Version())
	}
}

func TestReadOnlyDocumentSkipsDispatch(t *testing.T) {
	doc, err := engine.New(tree.MustNew(tree.NewDocument(tree.NewBlock(tree.Paragraph))), engine.WithReadOnly(true))
	if err != nil {
		t.Fatal(err)
	}
	called := false
	p, _, _ := newPipeline(t, &Func{ID: "a", Paste: func(*Context, Paste) (Result, error) {
		called = true
		return Handled, nil
	}})
	if got := p.Paste(doc, Paste{Text: "x"}); got != PassThrough || called {
		t.Errorf("Paste = %v, called = %v", got, called)
	}
}

func TestDuplicateNames(t *testing.T) {
	if _, err := New([]Plugin{&Func{ID: "a"}, &Func{ID: "a"}}); !errors.Is(err, ErrDuplicatePlugin) {
		t.Errorf("New error = %v, want ErrDuplicatePlugin", err)
	}
}

type normalizer struct {
	name string
	fn   func(*tree.Tree) *tree.Tree
}

func (n normalizer) Name() string                      { return n.name }
func (n normalizer) Normalize(t *tree.Tree) *tree.Tree { return n.fn(t) }

func appendParagraph(t *tree.Tree) *tree.Tree {
	next, _, err := t.WithNodeInserted(t.Root(), -1, tree.NewBlock(tree.Paragraph))
	if err != nil {
		return t
	}
	return next
}

func TestNormalizeChain(t *testing.T) {
	var order []string
	mark := func(name string) normalizer {
		return normalizer{name, func(t *tree.Tree) *tree.Tree {
			order = append(order, name)
			return t
		}}
	}
	p, buf, m := newPipeline(t, mark("first"), mark("second"))
	WithNormalizeCheck(true)(p)
	doc := newDoc(t).Tree()
	if got := p.Normalize(doc); got != doc {
		t.Error("no-op chain returned a different tree")
	}
	if diff := cmp.Diff([]string{"first", "second", "first", "second"}, order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if strings.Contains(buf.String(), "converge") || testutil.ToFloat64(m.diverged) != 0 {
		t.Error("convergent chain reported divergence")
	}
}

func TestNormalizeDivergence(t *testing.T) {
	p, buf, m := newPipeline(t, normalizer{"grow", appendParagraph})
	WithNormalizeCheck(true)(p)
	doc := newDoc(t).Tree()
	out := p.Normalize(doc)
	if got := len(out.Children(out.Root())); got != 2 {
		t.Errorf("children = %d, want first pass applied once", got)
	}
	if !strings.Contains(buf.String(), "normalize chain did not converge") {
		t.Errorf("log = %q", buf.String())
	}
	if got := testutil.ToFloat64(m.diverged); got != 1 {
		t.Errorf("diverged = %v, want 1", got)
	}
}

func TestNormalizePanicIsSkipped(t *testing.T) {
	p, _, m := newPipeline(t,
		normalizer{"broken", func(*tree.Tree) *tree.Tree { panic("bad") }},
		normalizer{"ok", func(t *tree.Tree) *tree.Tree { return t }},
	)
	doc := newDoc(t).Tree()
	if got := p.Normalize(doc); got != doc {
		t.Error("Normalize changed the tree")
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("broken", EventNormalize)); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
}

func TestNormalizeSinglePassByDefault(t *testing.T) {
	var calls int
	p, buf, m := newPipeline(t, normalizer{"grow", func(t *tree.Tree) *tree.Tree {
		calls++
		return appendParagraph(t)
	}})
	doc := newDoc(t).Tree()
	out := p.Normalize(doc)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := len(out.Children(out.Root())); got != 2 {
		t.Errorf("children = %d, want 2", got)
	}
	if strings.Contains(buf.String(), "converge") || testutil.ToFloat64(m.diverged) != 0 {
		t.Error("unchecked chain reported divergence")
	}
}

type decorator string

func (d decorator) Name() string { return string(d) }
func (d decorator) Decorate(t *tree.Tree, k tree.Key) []engine.Decoration {
	return []engine.Decoration{{Key: k, From: 0, To: 1, Class: string(d)}}
}

func TestDecorate(t *testing.T) {
	p, _, _ := newPipeline(t, decorator("one"), &Func{ID: "plain"}, decorator("two"))
	got := p.Decorate(newDoc(t).Tree(), "p1")
	want := []engine.Decoration{{Key: "p1", To: 1, Class: "one"}, {Key: "p1", To: 1, Class: "two"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decorate (-want +got):\n%s", diff)
	}
}

func TestTasksRunAfterCommit(t *testing.T) {
	doc := newDoc(t)
	var ran atomic.Bool
	p, _, _ := newPipeline(t,
		&Func{ID: "loser", KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
			ctx.Go("never", func(context.Context, Document) error {
				ran.Store(true)
				return nil
			})
			return PassThrough, nil
		}},
		&Func{ID: "winner", KeyDown: func(ctx *Context, ev key.Event) (Result, error) {
			ctx.Tx().InsertText("sync ")
			ctx.Go("append", func(_ context.Context, d Document) error {
				_, err := d.Update(func(tx *change.Transaction) error {
					tx.InsertTextAt(tree.Point{Key: "t1", Offset: 10}, "!")
					return nil
				})
				return err
			})
			return Handled, nil
		}},
	)
	p.KeyDown(doc, key.MustParse("x"))
	p.Wait()
	if got := doc.Tree().TextOf("p1"); got != "sync Hello!" {
		t.Errorf("TextOf(p1) = %q", got)
	}
	if ran.Load() {
		t.Error("task of a passing plugin ran")
	}
}

func TestTaskAgainstClosedDocumentIsDiscarded(t *testing.T) {
	doc := newDoc(t)
	release := make(chan struct{})
	p, buf, m := newPipeline(t, &Func{ID: "slow", Paste: func(ctx *Context, paste Paste) (Result, error) {
		ctx.Go("upload", func(_ context.Context, d Document) error {
			<-release
			_, err := d.Update(func(tx *change.Transaction) error {
				tx.InsertText("late")
				return nil
			})
			return err
		})
		return Handled, nil
	}})
	p.Paste(doc, Paste{Text: "x"})
	doc.Close()
	close(release)
	p.Wait()
	if !strings.Contains(buf.String(), "task result discarded") {
		t.Errorf("log = %q, want discarded task", buf.String())
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("slow", EventTask)); got != 0 {
		t.Errorf("failures = %v, stale completion counted as failure", got)
	}
}

func TestCloseCancelsTasks(t *testing.T) {
	doc := newDoc(t)
	started := make(chan struct{})
	p, _, _ := newPipeline(t, &Func{ID: "wait", Escape: func(ctx *Context) (Result, error) {
		ctx.Go("block", func(ctx context.Context, _ Document) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
		return Handled, nil
	}})
	p.Escape(doc)
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var ran atomic.Bool
	p.spawn(doc, "wait", task{name: "after", fn: func(context.Context, Document) error {
		ran.Store(true)
		return nil
	}})
	p.Wait()
	if ran.Load() {
		t.Error("task started after Close")
	}
}

func TestTaskPanicInsideUpdateReleasesDocument(t *testing.T) {
	doc := newDoc(t)
	p, buf, _ := newPipeline(t, &Func{ID: "upload", Paste: func(ctx *Context, paste Paste) (Result, error) {
		ctx.Go("store", func(_ context.Context, d Document) error {
			_, err := d.Update(func(*change.Transaction) error { panic("upload exploded") })
			return err
		})
		return Handled, nil
	}})
	p.Paste(doc, Paste{Text: "x"})
	p.Wait()
	if !strings.Contains(buf.String(), "upload exploded") {
		t.Errorf("log = %q, want the panic reported", buf.String())
	}

	done := make(chan string, 1)
	go func() {
		doc.Update(func(tx *change.Transaction) error {
			tx.InsertTextAt(tree.Point{Key: "t1"}, ">")
			return nil
		})
		done <- doc.Tree().TextOf("p1")
	}()
	select {
	case got := <-done:
		if got != ">Hello" {
			t.Errorf("TextOf(p1) = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("document still locked after a task panicked inside Update")
	}
}
