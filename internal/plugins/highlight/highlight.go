// Package highlight decorates code blocks with syntax highlighting tokens.
// Tokens are computed per block on request and never stored in the tree.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "prism"

// Options configure the plugin.
type Options struct {
	// OnlyIn is the container type to highlight.
	OnlyIn string `mapstructure:"onlyIn"`
	// Syntax is the language used when the container names none in its
	// "language" data.
	Syntax string `mapstructure:"syntax"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{OnlyIn: string(tree.Code), Syntax: "javascript"}
}

// Plugin highlights code.
type Plugin struct {
	onlyIn tree.Type
	syntax string
}

// New creates the plugin.
func New(opts Options) (*Plugin, error) {
	typ, err := tree.ParseType(opts.OnlyIn)
	if err != nil {
		return nil, err
	}
	return &Plugin{onlyIn: typ, syntax: opts.Syntax}, nil
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

// Decorate implements plugin.Decorator. k may be the container or one of
// its lines; the whole container is tokenized either way so that multi-line
// tokens are classified correctly.
func (p *Plugin) Decorate(t *tree.Tree, k tree.Key) []engine.Decoration {
	container, only := k, tree.Key("")
	if t.Type(k) != p.onlyIn {
		parent, ok := t.Parent(k)
		if !ok || t.Type(parent) != p.onlyIn {
			return nil
		}
		container, only = parent, k
	}
	n, err := t.Node(container)
	if err != nil {
		return nil
	}
	lines := n.Children
	text := make([]string, len(lines))
	for i, l := range lines {
		text[i] = t.TextOf(l)
	}
	it, err := p.lexer(n.Data.String("language")).Tokenise(nil, strings.Join(text, "\n"))
	if err != nil {
		return nil
	}

	var out []engine.Decoration
	line, off := 0, 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		class := Class(tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				line, off = line+1, 0
			}
			if line >= len(lines) {
				break
			}
			width := tree.GraphemeLen(part)
			if class != "" && width > 0 && (only == "" || lines[line] == only) {
				out = append(out, spans(t, lines[line], off, off+width, class)...)
			}
			off += width
		}
	}
	return out
}

func (p *Plugin) lexer(lang string) chroma.Lexer {
	l := lexers.Get(lang)
	if l == nil {
		l = lexers.Get(p.syntax)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// Class returns the CSS-style class for a token type, or "" for plain text.
func Class(tt chroma.TokenType) string {
	if tt == chroma.Text || tt == chroma.TextWhitespace || tt == chroma.Background {
		return ""
	}
	if c, ok := chroma.StandardTypes[tt]; ok && c != "" {
		return "token " + c
	}
	return "token " + strings.ToLower(tt.String())
}

// spans maps the block offsets [from, to) of blk onto its text runs.
func spans(t *tree.Tree, blk tree.Key, from, to int, class string) []engine.Decoration {
	var out []engine.Decoration
	acc := 0
	for _, r := range t.Texts(blk) {
		n, _ := t.Node(r)
		lo, hi := max(from, acc), min(to, acc+n.Len())
		if lo < hi {
			out = append(out, engine.Decoration{Key: r, From: lo - acc, To: hi - acc, Class: class})
		}
		acc += n.Len()
	}
	return out
}
