// Package markdown turns markdown typed at the cursor into formatting:
// block prefixes followed by a space, fences and rules followed by Enter,
// and closing inline delimiters.
package markdown

import (
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugins/listedit"
)

// Name is the registry name of the plugin.
const Name = "markdown-shortcuts"

// Plugin applies markdown shortcuts.
type Plugin struct{}

// New creates the plugin.
func New() *Plugin { return &Plugin{} }

// Factory builds the plugin for a registry. It takes no parameters.
func Factory(params map[string]any, _ plugin.Env) (plugin.Plugin, error) {
	var none struct{}
	if err := plugin.DecodeParams(params, &none); err != nil {
		return nil, err
	}
	return New(), nil
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

type blockRule struct {
	typ  tree.Type
	list tree.Type
	data tree.Data
}

var prefixes = map[string]blockRule{
	"*":   {list: tree.BulletedList},
	"-":   {list: tree.BulletedList},
	"+":   {list: tree.BulletedList},
	"1.":  {list: tree.OrderedList},
	"[ ]": {list: tree.TodoList, data: tree.Data{"checked": false}},
	"[x]": {list: tree.TodoList, data: tree.Data{"checked": true}},
	"#":   {typ: tree.Heading1},
	"##":  {typ: tree.Heading2},
	"###": {typ: tree.Heading3},
	">":   {typ: tree.BlockQuote},
}

type inlineRule struct {
	delim string
	mark  tree.Mark
}

// Longer delimiters first so "**" wins over "*".
var inlines = []inlineRule{
	{"**", tree.MarkBold},
	{"__", tree.MarkBold},
	{"~~", tree.MarkDeleted},
	{"*", tree.MarkItalic},
	{"_", tree.MarkItalic},
	{"`", tree.MarkCode},
}

// OnKeyDown implements plugin.KeyDownHandler.
func (p *Plugin) OnKeyDown(ctx *plugin.Context, ev key.Event) (plugin.Result, error) {
	c, ok := ctx.Caret()
	if !ok || !c.Collapsed() {
		return plugin.PassThrough, nil
	}
	t := ctx.Tree()
	typ := t.Type(c.Block)
	if typ == tree.CodeLine {
		return plugin.PassThrough, nil
	}
	switch {
	case ev.Text() == " ":
		return onSpace(ctx, c, typ)
	case ev.Is("Enter"):
		return onEnter(ctx, c, typ)
	case ev.Is("Backspace"):
		if c.AtStart() && (isHeading(typ) || typ == tree.BlockQuote) {
			ctx.Tx().SetBlockType(c.Block, tree.Paragraph)
			return plugin.Handled, nil
		}
	case ev.Text() != "":
		return onInline(ctx, c, ev.Text())
	}
	return plugin.PassThrough, nil
}

func isHeading(t tree.Type) bool {
	return t == tree.Heading1 || t == tree.Heading2 || t == tree.Heading3
}

func onSpace(ctx *plugin.Context, c plugin.Caret, typ tree.Type) (plugin.Result, error) {
	rule, ok := prefixes[c.Before()]
	if !ok || typ != tree.Paragraph {
		return plugin.PassThrough, nil
	}
	t := ctx.Tree()
	if _, inList := listedit.ItemOf(t, c.Block); inList && rule.list != "" {
		return plugin.PassThrough, nil
	}
	tx := ctx.Tx()
	tx.DeleteRange(c.Range(t, 0, c.Offset))
	if rule.typ != "" {
		tx.SetBlockType(c.Block, rule.typ)
		return plugin.Handled, nil
	}
	tx.WrapBlock(c.Block,
		tree.Wrapper{Type: rule.list},
		tree.Wrapper{Type: tree.ListItem, Data: rule.data},
	)
	return plugin.Handled, nil
}

func onEnter(ctx *plugin.Context, c plugin.Caret, typ tree.Type) (plugin.Result, error) {
	t, tx := ctx.Tree(), ctx.Tx()
	switch {
	case isHeading(typ) && c.AtEnd():
		tx.SplitBlock(1).SetBlocks(tree.Paragraph)
		return plugin.Handled, nil
	case typ != tree.Paragraph || !c.AtEnd():
		return plugin.PassThrough, nil
	case c.Text == "---":
		parent, _ := t.Parent(c.Block)
		tx.InsertNode(parent, t.IndexOf(c.Block), tree.Spec{Type: tree.HorizontalRule})
		tx.DeleteRange(c.Range(tx.Tree(), 0, c.Offset))
		return plugin.Handled, nil
	case strings.HasPrefix(c.Text, "```"):
		lang := strings.TrimSpace(strings.TrimPrefix(c.Text, "```"))
		if strings.ContainsAny(lang, " `") {
			return plugin.PassThrough, nil
		}
		var data tree.Data
		if lang != "" {
			data = tree.Data{"language": lang}
		}
		tx.DeleteRange(c.Range(t, 0, c.Offset))
		tx.Edit("code_block", func(e *tree.Editor) error {
			if err := e.SetType(c.Block, tree.CodeLine); err != nil {
				return err
			}
			_, err := e.Wrap(c.Block, tree.Wrapper{Type: tree.Code, Data: data})
			return err
		})
		return plugin.Handled, nil
	}
	return plugin.PassThrough, nil
}

// onInline applies a mark when text closes a delimited span ending at the
// caret, e.g. typing the last "*" of "**bold**".
func onInline(ctx *plugin.Context, c plugin.Caret, text string) (plugin.Result, error) {
	before := c.Before()
	for _, r := range inlines {
		if !strings.HasSuffix(r.delim, text) {
			continue
		}
		head := r.delim[:len(r.delim)-len(text)]
		if !strings.HasSuffix(before, head) {
			continue
		}
		body := before[:len(before)-len(head)]
		open := strings.LastIndex(body, r.delim)
		if open < 0 {
			continue
		}
		if open > 0 && body[open-1] == r.delim[0] {
			continue
		}
		inner := body[open+len(r.delim):]
		if inner == "" || strings.TrimSpace(inner) != inner || strings.Contains(inner, r.delim) {
			continue
		}
		applyMark(ctx, c, tree.GraphemeLen(body[:open]), tree.GraphemeLen(r.delim), tree.GraphemeLen(inner), r.mark)
		return plugin.Handled, nil
	}
	return plugin.PassThrough, nil
}

// applyMark removes the delimiters around [from+dl, from+dl+n) and marks
// the text between them. The cursor ends after the marked text and stops
// carrying the mark.
func applyMark(ctx *plugin.Context, c plugin.Caret, from, dl, n int, m tree.Mark) {
	tx := ctx.Tx()
	if closing := from + dl + n; c.Offset > closing {
		tx.DeleteRange(c.Range(tx.Tree(), closing, c.Offset))
	}
	tx.DeleteRange(c.Range(tx.Tree(), from, from+dl))
	tx.AddMarkIn(c.Range(tx.Tree(), from, from+n), m)
	end, err := tx.Tree().PointAt(c.Block, from+n, false)
	if err != nil {
		tx.Fail(err)
		return
	}
	tx.MoveTo(end)
	if s, ok := ctx.Selection(); ok {
		tx.SetCarriedMarks(s.Marks.Without(m))
	}
}
