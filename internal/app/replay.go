package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/input/key"
	"github.com/dshills/richtext/internal/plugin"
)

// Replay runs the event script read from r against d, one command per
// line. Blank lines and lines starting with # are skipped.
//
//	key <spec>           dispatch a key press, e.g. key Mod+B
//	type <text>          one key press per character
//	paste <text>         paste text, which may be Go-quoted
//	file <path>          paste the file at path
//	escape               dispatch the escape key
//	select <k:o> [<k:o>] set the selection, collapsed if one point is given
//	undo, redo           step through history
//	wait                 wait for background plugin work
//
// Replay stops at the first failing line.
func Replay(d *Document, r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := d.run(text); err != nil {
			return &ReplayError{Line: line, Text: text, Err: err}
		}
	}
	return sc.Err()
}

func (d *Document) run(line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "key":
		ev, err := key.Parse(arg)
		if err != nil {
			return err
		}
		d.KeyDown(ev)
	case "type":
		text, err := unquote(arg)
		if err != nil {
			return err
		}
		d.Type(text)
	case "paste":
		text, err := unquote(arg)
		if err != nil {
			return err
		}
		d.Paste(plugin.Paste{Text: text})
	case "file":
		if _, err := os.Stat(arg); err != nil {
			return err
		}
		d.Paste(plugin.Paste{Files: []plugin.File{fileAt(arg)}})
	case "escape":
		d.Escape()
	case "select":
		return d.selectPoints(strings.Fields(arg))
	case "undo":
		_, err := d.Undo()
		return err
	case "redo":
		_, err := d.Redo()
		return err
	case "wait":
		d.editor.pipeline.Wait()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return nil
}

func (d *Document) selectPoints(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("select takes one or two points, got %d", len(args))
	}
	anchor, err := parsePoint(args[0])
	if err != nil {
		return err
	}
	focus := anchor
	if len(args) == 2 {
		if focus, err = parsePoint(args[1]); err != nil {
			return err
		}
	}
	_, err = d.Select(anchor, focus)
	return err
}

// parsePoint parses key:offset.
func parsePoint(s string) (tree.Point, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return tree.Point{}, fmt.Errorf("point %q: want key:offset", s)
	}
	off, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return tree.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return tree.Point{Key: tree.Key(s[:i]), Offset: off}, nil
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "`") {
		return strconv.Unquote(s)
	}
	return s, nil
}

func fileAt(path string) plugin.File {
	return plugin.File{
		Name: filepath.Base(path),
		Type: mime.TypeByExtension(filepath.Ext(path)),
		Load: func(context.Context) ([]byte, error) { return os.ReadFile(path) },
	}
}
