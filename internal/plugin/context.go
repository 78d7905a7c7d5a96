package plugin

import (
	"context"

	"github.com/dshills/richtext/internal/engine/change"
	"github.com/dshills/richtext/internal/engine/cursor"
	"github.com/dshills/richtext/internal/engine/tree"
	"github.com/dshills/richtext/internal/logging"
)

// TaskFunc is background work scheduled by a handler. ctx is cancelled when
// the pipeline closes. doc is the document the event was dispatched against;
// edits must go through doc.Update.
type TaskFunc func(ctx context.Context, doc Document) error

type task struct {
	name string
	fn   TaskFunc
}

// Context is what a handler sees of one event dispatch.
type Context struct {
	doc    Document
	tx     *change.Transaction
	plugin string
	event  string
	log    *logging.Logger
	tasks  []task
}

// Tx returns the handler's transaction. It is committed if the handler
// returns Handled and discarded otherwise.
func (c *Context) Tx() *change.Transaction { return c.tx }

// Tree returns the working tree of the transaction.
func (c *Context) Tree() *tree.Tree { return c.tx.Tree() }

// Selection returns the selection as of the transaction's latest edit.
func (c *Context) Selection() (cursor.Selection, bool) {
	s, err := c.tx.Selection()
	return s, err == nil
}

// Document returns the document the event was dispatched against.
func (c *Context) Document() Document { return c.doc }

// Plugin returns the name of the plugin being called.
func (c *Context) Plugin() string { return c.plugin }

// Event returns the event kind being dispatched.
func (c *Context) Event() string { return c.event }

// Logger returns a logger tagged with the plugin and event.
func (c *Context) Logger() *logging.Logger { return c.log }

// Go schedules fn to run in the background once the handler's transaction
// has committed. Tasks scheduled by a handler that does not win are dropped.
func (c *Context) Go(name string, fn TaskFunc) {
	c.tasks = append(c.tasks, task{name: name, fn: fn})
}
