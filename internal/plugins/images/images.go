// Package images inserts pasted or dropped image files as image blocks.
// Files are loaded in the background; the block is inserted once the bytes
// are available, after the block the cursor was in when the paste happened.
package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/dshills/richtext/internal/engine"
	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/plugin"
)

// Name is the registry name of the plugin.
const Name = "insert-images"

// Options configure the plugin.
type Options struct {
	// Extensions lists the file extensions claimed, without dots.
	Extensions []string `mapstructure:"extensions"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Extensions: []string{"png", "jpg", "gif", "webp"}}
}

// Plugin inserts image files.
type Plugin struct {
	exts     []string
	uploader plugin.Uploader
	log      *logging.Logger
}

// New creates the plugin. With a nil uploader images are embedded as data
// URIs.
func New(opts Options, uploader plugin.Uploader, log *logging.Logger) *Plugin {
	exts := make([]string, 0, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts = append(exts, strings.TrimPrefix(strings.ToLower(e), "."))
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Plugin{exts: exts, uploader: uploader, log: log.WithComponent(Name)}
}

// Factory builds the plugin for a registry.
func Factory(params map[string]any, env plugin.Env) (plugin.Plugin, error) {
	opts := DefaultOptions()
	if err := plugin.DecodeParams(params, &opts); err != nil {
		return nil, err
	}
	return New(opts, env.Uploader, env.Logger), nil
}

// Name implements plugin.Plugin.
func (*Plugin) Name() string { return Name }

// Accepts reports whether f has a claimed extension.
func (p *Plugin) Accepts(f plugin.File) bool {
	return slices.Contains(p.exts, f.Ext())
}

// OnPaste implements plugin.PasteHandler. It claims the paste when at
// least one file is an image; other files are ignored.
func (p *Plugin) OnPaste(ctx *plugin.Context, paste plugin.Paste) (plugin.Result, error) {
	var files []plugin.File
	for _, f := range paste.Files {
		if p.Accepts(f) {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return plugin.PassThrough, nil
	}
	c, ok := ctx.Caret()
	if !ok {
		return plugin.PassThrough, nil
	}
	anchor := c.Block
	ctx.Go("insert-images", func(tctx context.Context, doc plugin.Document) error {
		return p.insert(tctx, doc, anchor, files)
	})
	return plugin.Handled, nil
}

// insert loads files in order and inserts one image block per file after
// anchor. The anchor must still exist when the bytes arrive.
func (p *Plugin) insert(ctx context.Context, doc plugin.Document, anchor tree.Key, files []plugin.File) error {
	specs := make([]tree.Spec, 0, len(files))
	for _, f := range files {
		src, err := p.source(ctx, f)
		if err != nil {
			return fmt.Errorf("image %q: %w", f.Name, err)
		}
		specs = append(specs, tree.Spec{Type: tree.Image, Data: tree.Data{"src": src, "alt": f.Name}})
	}
	_, err := doc.Update(func(tx *change.Transaction) error {
		t := tx.Tree()
		if !t.Attached(anchor) {
			return fmt.Errorf("%w: anchor block %q was removed", engine.ErrStaleReference, anchor)
		}
		after := flowAncestor(t, anchor)
		for _, s := range specs {
			if tx.InsertBlockAfter(after, s); tx.Err() != nil {
				return tx.Err()
			}
			after = tx.Created()
		}
		return nil
	})
	if err == nil {
		p.log.Debug("inserted %d image(s)", len(specs))
	}
	return err
}

func (p *Plugin) source(ctx context.Context, f plugin.File) (string, error) {
	if f.Load == nil {
		return "", fmt.Errorf("%w: file has no content", plugin.ErrInvalidParams)
	}
	data, err := f.Load(ctx)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.uploader != nil {
		return p.uploader.Upload(ctx, f, data)
	}
	return DataURI(f, data), nil
}

// DataURI encodes data as a base64 data URI, taking the media type from the
// file or its extension.
func DataURI(f plugin.File, data []byte) string {
	typ := f.Type
	if typ == "" {
		typ = mime.TypeByExtension("." + f.Ext())
	}
	if typ == "" {
		typ = "application/octet-stream"
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// flowAncestor returns k or its closest ancestor that may be followed by an
// image block.
func flowAncestor(t *tree.Tree, k tree.Key) tree.Key {
	for cur := k; ; {
		parent, ok := t.Parent(cur)
		if !ok || tree.Allows(t.Type(parent), tree.Image) {
			return cur
		}
		cur = parent
	}
}
