package mdpaste

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/richtext/internal/engine/tree"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.TaskList))

// Convert parses markdown source into block specs.
func Convert(src string) []tree.Spec {
	b := []byte(src)
	doc := md.Parser().Parse(text.NewReader(b))
	c := converter{src: b}
	return c.blocks(doc)
}

type converter struct {
	src []byte
}

func (c converter) blocks(parent ast.Node) []tree.Spec {
	var out []tree.Spec
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			out = append(out, c.textBlock(tree.Paragraph, n))
		case *ast.Heading:
			out = append(out, c.textBlock(heading(n.Level), n))
		case *ast.Blockquote:
			for _, b := range c.blocks(n) {
				if b.Type == tree.Paragraph {
					b.Type = tree.BlockQuote
				}
				out = append(out, b)
			}
		case *ast.List:
			out = append(out, c.list(n))
		case *ast.FencedCodeBlock:
			out = append(out, c.code(n, string(n.Language(c.src))))
		case *ast.CodeBlock:
			out = append(out, c.code(n, ""))
		case *ast.ThematicBreak:
			out = append(out, tree.Spec{Type: tree.HorizontalRule})
		case *ast.HTMLBlock:
			out = append(out, tree.NewBlock(tree.Paragraph, tree.NewText(c.lines(n))))
		default:
			out = append(out, c.blocks(n)...)
		}
	}
	return out
}

func heading(level int) tree.Type {
	switch level {
	case 1:
		return tree.Heading1
	case 2:
		return tree.Heading2
	}
	return tree.Heading3
}

func (c converter) textBlock(typ tree.Type, n ast.Node) tree.Spec {
	kids := merge(c.inlines(n, nil))
	if len(kids) == 0 {
		kids = []tree.Spec{tree.NewText("")}
	}
	return tree.NewBlock(typ, kids...)
}

func (c converter) list(n *ast.List) tree.Spec {
	typ := tree.BulletedList
	if n.IsOrdered() {
		typ = tree.OrderedList
	}
	if n.FirstChild() != nil && checkbox(n.FirstChild()) != nil {
		typ = tree.TodoList
	}
	var items []tree.Spec
	for it := n.FirstChild(); it != nil; it = it.NextSibling() {
		kids := c.blocks(it)
		if len(kids) == 0 {
			kids = []tree.Spec{tree.NewBlock(tree.Paragraph, tree.NewText(""))}
		}
		item := tree.NewBlock(tree.ListItem, kids...)
		if typ == tree.TodoList {
			cb := checkbox(it)
			item = item.WithData(tree.Data{"checked": cb != nil && cb.IsChecked})
		}
		items = append(items, item)
	}
	return tree.NewBlock(typ, items...)
}

// checkbox returns the task checkbox opening a list item, if any.
func checkbox(item ast.Node) *east.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	cb, _ := first.FirstChild().(*east.TaskCheckBox)
	return cb
}

func (c converter) code(n ast.Node, lang string) tree.Spec {
	var lines []tree.Spec
	for _, l := range strings.Split(strings.TrimSuffix(c.lines(n), "\n"), "\n") {
		lines = append(lines, tree.NewBlock(tree.CodeLine, tree.NewText(l)))
	}
	s := tree.NewBlock(tree.Code, lines...)
	if lang != "" {
		s = s.WithData(tree.Data{"language": lang})
	}
	return s
}

func (c converter) lines(n ast.Node) string {
	var sb strings.Builder
	ls := n.Lines()
	for i := 0; i < ls.Len(); i++ {
		seg := ls.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

func (c converter) inlines(parent ast.Node, marks tree.MarkSet) []tree.Spec {
	var out []tree.Spec
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			s := string(n.Segment.Value(c.src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				s += "\n"
			}
			out = append(out, tree.NewText(s, marks...))
		case *ast.String:
			out = append(out, tree.NewText(string(n.Value), marks...))
		case *ast.Emphasis:
			m := tree.MarkItalic
			if n.Level >= 2 {
				m = tree.MarkBold
			}
			out = append(out, c.inlines(n, marks.With(m))...)
		case *east.Strikethrough:
			out = append(out, c.inlines(n, marks.With(tree.MarkDeleted))...)
		case *ast.CodeSpan:
			out = append(out, c.inlines(n, marks.With(tree.MarkCode))...)
		case *ast.Link:
			out = append(out, link(string(n.Destination), merge(c.inlines(n, marks))))
		case *ast.AutoLink:
			url := string(n.URL(c.src))
			out = append(out, link(url, []tree.Spec{tree.NewText(string(n.Label(c.src)), marks...)}))
		case *ast.Image:
			out = append(out, c.inlines(n, marks)...)
		case *ast.RawHTML:
			var sb strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				sb.Write(seg.Value(c.src))
			}
			out = append(out, tree.NewText(sb.String(), marks...))
		case *east.TaskCheckBox:
		default:
			out = append(out, c.inlines(n, marks)...)
		}
	}
	return out
}

// link builds a link around kids. Links cannot nest, so nested links are
// flattened into their text.
func link(href string, kids []tree.Spec) tree.Spec {
	var runs []tree.Spec
	for _, k := range kids {
		if k.Type == tree.Link {
			runs = append(runs, k.Children...)
			continue
		}
		runs = append(runs, k)
	}
	if len(runs) == 0 {
		runs = []tree.Spec{tree.NewText("")}
	}
	return tree.NewBlock(tree.Link, runs...).WithData(tree.Data{"href": href})
}

// merge joins adjacent text runs carrying the same marks.
func merge(specs []tree.Spec) []tree.Spec {
	var out []tree.Spec
	for _, s := range specs {
		if n := len(out); n > 0 && s.Type == tree.Text && out[n-1].Type == tree.Text && out[n-1].Marks.Equal(s.Marks) {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}
