// Package script runs editing behavior written in Lua.
//
// A script defines any of the global functions on_key_down(ev) and
// on_paste(text). A handler that returns a true value claims the event;
// anything else passes it on. Handlers edit through the editor module:
//
//	local editor = require("editor")
//
//	function on_key_down(ev)
//	  if ev.text == ">" and editor.text_before():sub(-1) == "-" then
//	    editor.delete_backward()
//	    editor.insert_text("→")
//	    return true
//	  end
//	end
package script

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugin/lua"
)

// Name is the registry name of the plugin.
const Name = "script"

// Handler names a script may define.
const (
	KeyDownFunc = "on_key_down"
	PasteFunc   = "on_paste"
)

// Options configure the plugin. Exactly one of Source and Path is set.
type Options struct {
	// Name overrides the plugin name, so that several scripts can share a
	// pipeline.
	Name string `mapstructure:"name"`
	// Source is the script text.
	Source string `mapstructure:"source"`
	// Path is a file holding the script.
	Path string `mapstructure:"path"`
	// TimeoutMS bounds each handler call.
	TimeoutMS int `mapstructure:"timeoutMs"`
}

// Plugin is a loaded script.
type Plugin struct {
	name  string
	state *lua.State

	mu  sync.Mutex
	cur *plugin.Context
}

// New loads the script described by opts.
func New(opts Options, log *logging.Logger) (*Plugin, error) {
	if (opts.Source == "") == (opts.Path == "") {
		return nil, fmt.Errorf("%w: exactly one of source and path is required", plugin.ErrInvalidParams)
	}
	src := opts.Source
	if opts.Path != "" {
		b, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		src = string(b)
	}
	if log == nil {
		log = logging.Nop()
	}
	p := &Plugin{name: Name}
	if opts.Name != "" {
		p.name = opts.Name
	}

	stateOpts := []lua.StateOption{lua.WithPrint(func(s string) { log.Info("%s: %s", p.name, s) })}
	if opts.TimeoutMS > 0 {
		stateOpts = append(stateOpts, lua.WithExecutionTimeout(time.Duration(opts.TimeoutMS)*time.Millisecond))
	}
	state, err := lua.NewState(stateOpts...)
	if err != nil {
		return nil, err
	}
	state.RegisterModule("editor", p.editorModule())
	if err := state.DoString(src); err != nil {
		state.Close()
		return nil, fmt.Errorf("load script %s: %w", p.name, err)
	}
	p.state = state
	return p, nil
}

// Factory builds the plugin for a registry.
func Factory(params map[string]any, env plugin.Env) (plugin.Plugin, error) {
	var opts Options
	if err := plugin.DecodeParams(params, &opts); err != nil {
		return nil, err
	}
	return New(opts, env.Logger)
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.name }

// Close releases the interpreter.
func (p *Plugin) Close() error {
	return p.state.Close()
}

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	return p.call(ctx, KeyDownFunc, eventTable(ev))
}

// OnPaste implements plugin.PasteHandler. Only the text is passed to the
// script.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	if paste.Text == "" {
		return plugin.PassThrough, nil
	}
	return p.call(ctx, PasteFunc, paste.Text)
}

func (p *Plugin) call(ctx *plugin.Context, fn string, arg any) (plugin.Result, error) {
	if !p.state.HasFunc(fn) {
		return plugin.PassThrough, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cur = ctx
	defer func() { p.cur = nil }()

	rets, err := p.state.Call(fn, arg)
	if err != nil {
		return plugin.PassThrough, err
	}
	if len(rets) > 0 && glua.LVAsBool(rets[0]) {
		return plugin.Handled, nil
	}
	return plugin.PassThrough, nil
}

// eventTable describes ev to a script.
func eventTable(ev key.Event) map[string]any {
	name := ev.Key.String()
	if ev.Key == key.KeyRune {
		name = string(ev.Rune)
	}
	m := ev.Modifiers
	return map[string]any{
		"key":   ev.String(),
		"name":  name,
		"text":  ev.Text(),
		"shift": m.HasShift(),
		"ctrl":  m.HasCtrl(),
		"alt":   m.HasAlt(),
		"meta":  m.HasMeta(),
		"mod":   m.HasPrimary() || m.HasCtrl() || m.HasMeta(),
	}
}

var errNoHandler = errors.New("editor used outside an event handler")

// editorModule builds the functions scripts edit through. They act on the
// transaction of the event being handled.
func (p *Plugin) editorModule() map[string]glua.LGFunction {
	withCtx := func(fn func(L *glua.LState, ctx *plugin.Context) int) glua.LGFunction {
		return func(L *glua.LState) int {
			if p.cur == nil {
				L.RaiseError("%v", errNoHandler)
				return 0
			}
			return fn(L, p.cur)
		}
	}
	caret := func(ctx *plugin.Context) plugin.Caret {
		c, _ := ctx.Caret()
		return c
	}
	return map[string]glua.LGFunction{
		"text_before": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			L.Push(glua.LString(caret(ctx).Before()))
			return 1
		}),
		"text_after": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			L.Push(glua.LString(caret(ctx).After()))
			return 1
		}),
		"block_type": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			c, ok := ctx.Caret()
			if !ok {
				L.Push(glua.LNil)
				return 1
			}
			L.Push(glua.LString(ctx.Tree().Type(c.Block)))
			return 1
		}),
		"collapsed": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			L.Push(glua.LBool(caret(ctx).Collapsed()))
			return 1
		}),
		"insert_text": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			ctx.Tx().InsertText(L.CheckString(1))
			return 0
		}),
		"delete_backward": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			n := L.OptInt(1, 1)
			for range n {
				ctx.Tx().DeleteBackward()
			}
			return 0
		}),
		"split_block": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			ctx.Tx().SplitBlock(L.OptInt(1, 1))
			return 0
		}),
		"set_block": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			typ, err := tree.ParseType(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			ctx.Tx().SetBlocks(typ)
			return 0
		}),
		"toggle_mark": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			m, err := tree.ParseMark(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			ctx.Tx().ToggleMark(m)
			return 0
		}),
		"has_mark": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			m, err := tree.ParseMark(L.CheckString(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			s, _ := ctx.Selection()
			L.Push(glua.LBool(s.HasMark(m)))
			return 1
		}),
		"log": withCtx(func(L *glua.LState, ctx *plugin.Context) int {
			ctx.Logger().Info("%s", L.CheckString(1))
			return 0
		}),
	}
}
