// Package codeedit makes code blocks behave like a plain text editor:
// Enter keeps indentation, Tab indents, marks are refused and pasted text
// becomes code lines.
package codeedit

import (
	"fmt"
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugins/core"
	"github.com/dshills/richtext/internal/plugins/keyboard"
)

// Name is the registry name of the plugin.
const Name = "edit-code"

// Indent is inserted by Tab and removed by Shift+Tab.
const Indent = "  "

// Options configure the plugin.
type Options struct {
	ContainerType string `mapstructure:"containerType"`
	LineType      string `mapstructure:"lineType"`
	ExitBlockType string `mapstructure:"exitBlockType"`
	// AllowMarks keeps formatting hotkeys and marks inside code.
	AllowMarks bool `mapstructure:"allowMarks"`
	// SelectAll makes Mod+A select the code block instead of the document.
	SelectAll bool `mapstructure:"selectAll"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ContainerType: string(tree.Code),
		LineType:      string(tree.CodeLine),
		ExitBlockType: string(tree.Paragraph),
		SelectAll:     true,
	}
}

// Plugin edits code blocks.
type Plugin struct {
	container  tree.Type
	line       tree.Type
	exit       tree.Type
	allowMarks bool
	selectAll  bool
}

// New creates the plugin.
func New(opts Options) (*Plugin, error) {
	var err error
	p := &Plugin{allowMarks: opts.AllowMarks, selectAll: opts.SelectAll}
	if p.container, err = tree.ParseType(opts.ContainerType); err != nil {
		return nil, err
	}
	if p.line, err = tree.ParseType(opts.LineType); err != nil {
		return nil, err
	}
	if p.exit, err = tree.ParseType(opts.ExitBlockType); err != nil {
		return nil, err
	}
	if !tree.Allows(p.container, p.line) || !p.line.IsTextBlock() {
		return nil, fmt.Errorf("%w: %s cannot hold %s lines", tree.ErrInvalidType, p.container, p.line)
	}
	if !p.exit.IsTextBlock() || !tree.Allows(tree.Document, p.exit) {
		return nil, fmt.Errorf("%w: cannot exit code into %s", tree.ErrInvalidType, p.exit)
	}
	return p, nil
}

// Factory builds the plugin for a registry.
func Factory(params map[string]any, _ plugin.Env) (plugin.Plugin, error) {
	opts := DefaultOptions()
	if err := plugin.DecodeParams(params, &opts); err != nil {
		return nil, err
	}
	return New(opts)
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

// inCode returns the container of the line holding the caret.
func (p *Plugin) inCode(t *tree.Tree, c plugin.Caret) (tree.Key, bool) {
	if t.Type(c.Block) != p.line {
		return "", false
	}
	parent, ok := t.Parent(c.Block)
	return parent, ok && t.Type(parent) == p.container
}

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	t := ctx.Tree()
	code, ok := p.inCode(t, c)
	if !ok {
		return plugin.PassThrough, nil
	}
	tx := ctx.Tx()
	switch {
	case ev.Is("Enter"):
		indent := c.Text[:len(c.Text)-len(strings.TrimLeft(c.Text, " \t"))]
		tx.SplitBlock(1).InsertText(indent)
	case ev.Is("Mod+Enter"):
		p.exitBlock(ctx, code)
	case ev.Is("Tab"):
		p.indentLines(ctx, code)
	case ev.Is("Shift+Tab"):
		p.dedentLines(ctx, code)
	case ev.Is("Backspace"):
		if !c.Collapsed() || !c.AtStart() || c.Text != "" || len(t.Children(code)) != 1 {
			return plugin.PassThrough, nil
		}
		tx.Edit("unwrap_code", func(e *tree.Editor) error {
			if err := e.SetType(c.Block, p.exit); err != nil {
				return err
			}
			return e.Unwrap(code)
		})
	case ev.Is("Mod+A") && p.selectAll:
		first, _ := t.FirstText(code)
		last, _ := t.LastText(code)
		n, _ := t.Node(last)
		tx.Select(tree.Point{Key: first}, tree.Point{Key: last, Offset: n.Len()})
	case !p.allowMarks && isMarkHotkey(ev):
	default:
		return plugin.PassThrough, nil
	}
	return plugin.Handled, nil
}

func isMarkHotkey(ev key.Event) bool {
	for spec := range keyboard.Marks {
		if ev.Is(spec) {
			return true
		}
	}
	return ev.Is(keyboard.LinkHotkey)
}

// OnPaste implements plugin.PasteHandler. Pasted text is inserted verbatim,
// one code line per line.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok || paste.Text == "" {
		return plugin.PassThrough, nil
	}
	if _, ok := p.inCode(ctx.Tree(), c); !ok {
		return plugin.PassThrough, nil
	}
	core.InsertLines(ctx, paste.Text)
	return plugin.Handled, nil
}

// exitBlock places an empty exit block after the container and moves the
// cursor into it.
func (p *Plugin) exitBlock(ctx *plugin.Context, code tree.Key) {
	tx := ctx.Tx()
	tx.InsertBlockAfter(code, tree.NewBlock(p.exit, tree.NewText("")))
	if first, ok := tx.Tree().FirstText(tx.Created()); ok {
		tx.MoveTo(tree.Point{Key: first})
	}
}

// selectedLines returns the lines of code touched by the selection.
func (p *Plugin) selectedLines(ctx *plugin.Context, code tree.Key) []tree.Key {
	var out []tree.Key
	for _, b := range ctx.Tx().SelectedBlocks() {
		if parent, _ := ctx.Tree().Parent(b); parent == code {
			out = append(out, b)
		}
	}
	return out
}

func (p *Plugin) indentLines(ctx *plugin.Context, code tree.Key) {
	s, _ := ctx.Selection()
	tx := ctx.Tx()
	if s.IsCollapsed() {
		tx.InsertText(Indent)
		return
	}
	lines := p.selectedLines(ctx, code)
	tx.Edit("indent_lines", func(e *tree.Editor) error {
		for _, l := range lines {
			first, _ := e.Tree().FirstText(l)
			n, _ := e.Tree().Node(first)
			if _, err := e.InsertText(tree.Point{Key: first}, Indent, n.Marks); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Plugin) dedentLines(ctx *plugin.Context, code tree.Key) {
	lines := p.selectedLines(ctx, code)
	ctx.Tx().Edit("dedent_lines", func(e *tree.Editor) error {
		for _, l := range lines {
			t := e.Tree()
			text := t.TextOf(l)
			n := len(text) - len(strings.TrimPrefix(text, Indent))
			if n == 0 {
				n = len(text) - len(strings.TrimPrefix(text, " "))
			}
			if n == 0 {
				continue
			}
			from, _ := t.PointAt(l, 0, true)
			to, _ := t.PointAt(l, n, false)
			if _, err := e.DeleteRange(tree.Span(from, to)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Normalize implements plugin.Normalizer. Unless marks are allowed, text in
// code loses its marks and links are unwrapped.
func (p *Plugin) Normalize(t *tree.Tree) *tree.Tree {
	if p.allowMarks {
		return t
	}
	var marked, links []tree.Key
	t.Walk(t.Root(), func(n tree.Node, _ int) tree.WalkAction {
		switch {
		case n.Type == p.container, n.Type == tree.Document:
			return tree.WalkContinue
		case n.Type == p.line:
			for _, k := range n.Children {
				c, _ := t.Node(k)
				if c.Type == tree.Link {
					links = append(links, k)
					for _, r := range c.Children {
						if rn, _ := t.Node(r); len(rn.Marks) > 0 {
							marked = append(marked, r)
						}
					}
				} else if len(c.Marks) > 0 {
					marked = append(marked, k)
				}
			}
			return tree.WalkSkip
		case n.Type.IsBlock() && n.Type.Kind() == tree.KindContainer:
			return tree.WalkContinue
		}
		return tree.WalkSkip
	})
	if len(marked) == 0 && len(links) == 0 {
		return t
	}
	e := t.Edit()
	for _, k := range marked {
		e.SetMarks(k, nil)
	}
	for _, k := range links {
		e.Unwrap(k)
	}
	out, err := e.Done()
	if err != nil {
		return t
	}
	return out
}
