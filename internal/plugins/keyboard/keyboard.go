// Package keyboard binds formatting hotkeys: Mod+B, Mod+I, Mod+U and Mod+D
// toggle marks, and Mod+K links the selection with a target supplied by a
// link provider.
package keyboard

import (
	"context"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "keyboard-shortcuts"

// Marks maps hotkeys to the marks they toggle.
var Marks = map[string]tree.Mark{
	"Mod+B": tree.MarkBold,
	"Mod+I": tree.MarkItalic,
	"Mod+U": tree.MarkUnderlined,
	"Mod+D": tree.MarkDeleted,
}

// LinkHotkey asks for a link target.
const LinkHotkey = "Mod+K"

// Plugin handles formatting hotkeys.
type Plugin struct {
	links engine.LinkProvider
	marks map[key.Event]tree.Mark
	link  key.Event
}

// New creates the plugin. Without a link provider Mod+K only removes links.
func New(links engine.LinkProvider) *Plugin {
	p := &Plugin{links: links, marks: make(map[key.Event]tree.Mark, len(Marks)), link: key.MustParse(LinkHotkey)}
	for spec, m := range Marks {
		p.marks[key.MustParse(spec)] = m
	}
	return p
}

// Factory builds the plugin for a registry.
func Factory(params map[string]any, env plugin.Env) (plugin.Plugin, error) {
	var none struct{}
	if err := plugin.DecodeParams(params, &none); err != nil {
		return nil, err
	}
	return New(env.Links), nil
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	for h, m := range p.marks {
		if ev.Matches(h) {
			ctx.Tx().ToggleMark(m)
			return plugin.Handled, nil
		}
	}
	if !ev.Matches(p.link) {
		return plugin.PassThrough, nil
	}
	s, ok := ctx.Selection()
	if !ok {
		return plugin.PassThrough, nil
	}
	t := ctx.Tree()
	if l, ok := t.Closest(s.Start.Key, func(typ tree.Type) bool { return typ == tree.Link }); ok {
		ctx.Tx().UnwrapBlock(l)
		return plugin.Handled, nil
	}
	if s.IsCollapsed() || p.links == nil {
		return plugin.Handled, nil
	}
	ctx.Go("create-link", func(tctx context.Context, doc plugin.Document) error {
		_, err := doc.RequestLinkCreation(tctx, p.links)
		return err
	})
	return plugin.Handled, nil
}
