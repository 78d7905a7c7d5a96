// Package plugins registers the built-in editing plugins.
package plugins

import (
	"github.com/dshills/richtext/internal/plugin"
	"github.com/dshills/richtext/internal/plugins/codeedit"
	"github.com/dshills/richtext/internal/plugins/core"
	"github.com/dshills/richtext/internal/plugins/ellipsis"
	"github.com/dshills/richtext/internal/plugins/escape"
	"github.com/dshills/richtext/internal/plugins/highlight"
	"github.com/dshills/richtext/internal/plugins/images"
	"github.com/dshills/richtext/internal/plugins/keyboard"
	"github.com/dshills/richtext/internal/plugins/linkify"
	"github.com/dshills/richtext/internal/plugins/listedit"
	"github.com/dshills/richtext/internal/plugins/markdown"
	"github.com/dshills/richtext/internal/plugins/mdpaste"
	"github.com/dshills/richtext/internal/plugins/script"
	"github.com/dshills/richtext/internal/plugins/trailing"
)

// Builtin returns a registry holding every built-in plugin factory.
func Builtin() *plugin.Registry {
	r := plugin.NewRegistry()
	r.MustRegister(linkify.Name, linkify.Factory)
	r.MustRegister(images.Name, images.Factory)
	r.MustRegister(listedit.Name, listedit.Factory)
	r.MustRegister(codeedit.Name, codeedit.Factory)
	r.MustRegister(highlight.Name, highlight.Factory)
	r.MustRegister(escape.Name, escape.Factory)
	r.MustRegister(trailing.Name, trailing.Factory)
	r.MustRegister(keyboard.Name, keyboard.Factory)
	r.MustRegister(markdown.Name, markdown.Factory)
	r.MustRegister(mdpaste.Name, mdpaste.Factory)
	r.MustRegister(ellipsis.Name, ellipsis.Factory)
	r.MustRegister(script.Name, script.Factory)
	r.MustRegister(core.Name, core.Factory)
	return r
}

// DefaultSpecs returns the default pipeline, in precedence order. The core
// plugin is not listed; editors append it after every configured plugin.
func DefaultSpecs() []plugin.Spec {
	return []plugin.Spec{
		{Name: linkify.Name, Params: map[string]any{"type": "link", "collapseTo": "end"}},
		{Name: images.Name, Params: map[string]any{"extensions": []any{"png", "jpg", "gif", "webp"}}},
		{Name: listedit.Name},
		{Name: codeedit.Name, Params: map[string]any{
			"containerType": "code",
			"lineType":      "code-line",
			"exitBlockType": "paragraph",
			"allowMarks":    false,
			"selectAll":     true,
		}},
		{Name: highlight.Name, Params: map[string]any{"onlyIn": "code", "syntax": "javascript"}},
		{Name: escape.Name, Params: map[string]any{"toEdge": "end"}},
		{Name: trailing.Name, Params: map[string]any{"type": "paragraph"}},
		{Name: keyboard.Name},
		{Name: markdown.Name},
		{Name: mdpaste.Name},
		{Name: ellipsis.Name},
	}
}
