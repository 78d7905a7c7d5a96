package plugin

import (
	"context"
	"path"
	"strings"
)

// Paste is clipboard or drop content.
type Paste struct {
	Text  string
	HTML  string
	Files []File
}

// File is a pasted or dropped file. Its bytes are loaded on demand.
type File struct {
	Name string
	Type string
	Load func(ctx context.Context) ([]byte, error)
}

// Ext returns the lower-case file extension without the dot.
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(f.Name)), ".")
}

// BytesFile returns a File whose content is already in memory.
func BytesFile(name, typ string, data []byte) File {
	return File{
		Name: name,
		Type: typ,
		Load: func(context.Context) ([]byte, error) { return data, nil },
	}
}

// Uploader stores file bytes and returns the URL to reference them by.
type Uploader interface {
	Upload(ctx context.Context, f File, data []byte) (string, error)
}
