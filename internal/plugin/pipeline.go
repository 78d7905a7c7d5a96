package plugin

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/logging"
)

// Event kinds, used in logs and metric labels.
const (
	EventKeyDown   = "keydown"
	EventPaste     = "paste"
	EventEscape    = "escape"
	EventNormalize = "normalize"
	EventDecorate  = "decorate"
	EventTask      = "task"
)

// Pipeline dispatches events through plugins in a fixed order. It is
// immutable after construction and safe for concurrent use.
type Pipeline struct {
	plugins []Plugin
	logger  *logging.Logger
	metrics *Metrics
	// checkNormalize reruns the normalizer chain after every pass.
	checkNormalize bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithNormalizeCheck makes Normalize run the chain a second time and
// report when that pass still changes the tree. It doubles the cost of
// every normalization, so it is meant for development.
func WithNormalizeCheck(on bool) Option {
	return func(p *Pipeline) {
		p.checkNormalize = on
	}
}

// New creates a pipeline over plugins in the given order. Names must be
// unique.
func New(plugins []Plugin, opts ...Option) (*Pipeline, error) {
	seen := make(map[string]bool, len(plugins))
	for _, pl := range plugins {
		if seen[pl.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlugin, pl.Name())
		}
		seen[pl.Name()] = true
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		plugins: append([]Plugin(nil), plugins...),
		logger:  logging.Nop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("pipeline")
	return p, nil
}

// Names returns the plugin names in dispatch order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.plugins))
	for i, pl := range p.plugins {
		names[i] = pl.Name()
	}
	return names
}

// Plugin returns the plugin named name.
func (p *Pipeline) Plugin(name string) (Plugin, bool) {
	for _, pl := range p.plugins {
		if pl.Name() == name {
			return pl, true
		}
	}
	return nil, false
}

// KeyDown dispatches a key press.
func (p *Pipeline) KeyDown(doc Document, ev key.Event) Result {
	return p.dispatch(doc, EventKeyDown, func(pl Plugin, ctx *Context) (Result, bool, error) {
		h, ok := pl.(KeyDownHandler)
		if !ok {
			return PassThrough, false, nil
		}
		res, err := h.OnKeyDown(ctx, ev)
		return res, true, err
	})
}

// Paste dispatches clipboard or drop content.
func (p *Pipeline) Paste(doc Document, paste Paste) Result {
	return p.dispatch(doc, EventPaste, func(pl Plugin, ctx *Context) (Result, bool, error) {
		h, ok := pl.(PasteHandler)
		if !ok {
			return PassThrough, false, nil
		}
		res, err := h.OnPaste(ctx, paste)
		return res, true, err
	})
}

// Escape dispatches the escape key.
func (p *Pipeline) Escape(doc Document) Result {
	return p.dispatch(doc, EventEscape, func(pl Plugin, ctx *Context) (Result, bool, error) {
		h, ok := pl.(EscapeHandler)
		if !ok {
			return PassThrough, false, nil
		}
		res, err := h.OnEscape(ctx)
		return res, true, err
	})
}

type handlerCall func(pl Plugin, ctx *Context) (res Result, implemented bool, err error)

func (p *Pipeline) dispatch(doc Document, event string, call handlerCall) Result {
	start := time.Now()
	defer func() { p.metrics.observe(event, time.Since(start)) }()

	if doc.Closed() || doc.ReadOnly() {
		return PassThrough
	}
	for _, pl := range p.plugins {
		name := pl.Name()
		log := p.logger.WithFields(map[string]any{"plugin": name, "event": event})
		ctx := &Context{doc: doc, tx: doc.Begin(), plugin: name, event: event, log: log}

		res, implemented, err := p.safeCall(func() (Result, bool, error) { return call(pl, ctx) })
		if !implemented {
			continue
		}
		if err != nil {
			log.Warn("handler failed: %v", err)
			p.metrics.recordFailure(name, event)
			p.metrics.recordDispatch(name, event, PassThrough)
			continue
		}
		if res != Handled {
			p.metrics.recordDispatch(name, event, PassThrough)
			continue
		}
		if len(ctx.tx.Ops()) > 0 || ctx.tx.Err() != nil {
			if _, err := doc.Apply(ctx.tx); err != nil {
				log.Warn("transaction rejected: %v", err)
				p.metrics.recordFailure(name, event)
				p.metrics.recordDispatch(name, event, PassThrough)
				continue
			}
		}
		p.metrics.recordDispatch(name, event, Handled)
		for _, t := range ctx.tasks {
			p.spawn(doc, name, t)
		}
		return Handled
	}
	return PassThrough
}

func (p *Pipeline) safeCall(fn func() (Result, bool, error)) (res Result, implemented bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			res, implemented = PassThrough, true
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, stack[:n])
		}
	}()
	return fn()
}

// Normalize runs every Normalizer in order. With WithNormalizeCheck it
// also verifies that a second pass is a no-op.
func (p *Pipeline) Normalize(t *tree.Tree) *tree.Tree {
	out := p.normalizeOnce(t)
	if !p.checkNormalize {
		return out
	}
	if again := p.normalizeOnce(out); !tree.Equal(again, out) {
		p.logger.Warn("normalize chain did not converge")
		p.metrics.recordDiverged()
	}
	return out
}

func (p *Pipeline) normalizeOnce(t *tree.Tree) *tree.Tree {
	for _, pl := range p.plugins {
		n, ok := pl.(Normalizer)
		if !ok {
			continue
		}
		out, err := p.safeTree(func() *tree.Tree { return n.Normalize(t) })
		switch {
		case err != nil:
			p.logger.WithField("plugin", pl.Name()).Warn("normalizer failed: %v", err)
			p.metrics.recordFailure(pl.Name(), EventNormalize)
		case out != nil:
			t = out
		}
	}
	return t
}

func (p *Pipeline) safeTree(fn func() *tree.Tree) (out *tree.Tree, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(), nil
}

// Decorate collects the decorations of every Decorator for the block at k.
func (p *Pipeline) Decorate(t *tree.Tree, k tree.Key) []engine.Decoration {
	var out []engine.Decoration
	for _, pl := range p.plugins {
		d, ok := pl.(Decorator)
		if !ok {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.WithField("plugin", pl.Name()).Warn("decorator failed: %v", r)
					p.metrics.recordFailure(pl.Name(), EventDecorate)
				}
			}()
			out = append(out, d.Decorate(t, k)...)
		}()
	}
	return out
}

func (p *Pipeline) spawn(doc Document, plugin string, t task) {
	log := p.logger.WithFields(map[string]any{
		"plugin": plugin,
		"task":   t.name,
		"id":     uuid.NewString(),
	})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Debug("task dropped: %v", ErrPipelineClosed)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Warn("task panicked: %v", r)
				p.metrics.recordFailure(plugin, EventTask)
			}
		}()
		err := t.fn(p.ctx, doc)
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrStaleReference), errors.Is(err, context.Canceled):
			log.Debug("task result discarded: %v", err)
		default:
			log.Warn("task failed: %v", err)
			p.metrics.recordFailure(plugin, EventTask)
		}
	}()
}

// Wait blocks until all running tasks have finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close cancels running tasks and waits for them until ctx is done. Events
// can still be dispatched afterwards but no new tasks start.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
