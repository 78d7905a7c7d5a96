package widget

import (
	"errors"
	"fmt"

	"github.com/dshills/richtext/internal/engine/tree"
)

// ErrNoLinkProvider is returned by Toolbar.CreateLink when no link
// provider was configured.
var ErrNoLinkProvider = errors.New("no link provider")

// CheckedKey is the data attribute holding a todo item's state.
const CheckedKey = "checked"

// TodoItem is the checkbox of one list item.
type TodoItem struct {
	doc Document
	key tree.Key
}

// NewTodoItem returns the checkbox of the list item at k.
func NewTodoItem(doc Document, k tree.Key) *TodoItem {
	return &TodoItem{doc: doc, key: k}
}

// Key returns the list item's key.
func (i *TodoItem) Key() tree.Key { return i.key }

// Checked reports whether the item is checked. A missing item is
// unchecked.
func (i *TodoItem) Checked() bool {
	d, err := i.doc.NodeData(i.key)
	if err != nil {
		return false
	}
	return d.Bool(CheckedKey)
}

// SetChecked stores checked on the item. It does nothing on a read-only
// document.
func (i *TodoItem) SetChecked(checked bool) error {
	if i.doc.ReadOnly() {
		return nil
	}
	if typ := i.doc.Tree().Type(i.key); typ != tree.ListItem {
		return fmt.Errorf("%w: %s is %q, not a list item", tree.ErrInvalidType, i.key, typ)
	}
	_, err := i.doc.RequestDataPatch(i.key, tree.Data{CheckedKey: checked})
	return err
}

// Toggle flips the item's state.
func (i *TodoItem) Toggle() error {
	return i.SetChecked(!i.Checked())
}

// TodoItems returns the checkboxes of every item in todo lists, in
// document order.
func TodoItems(doc Document) []*TodoItem {
	t := doc.Tree()
	var out []*TodoItem
	var walk func(k tree.Key)
	walk = func(k tree.Key) {
		for _, c := range t.Children(k) {
			if t.Type(c) == tree.ListItem && t.Type(k) == tree.TodoList {
				out = append(out, NewTodoItem(doc, c))
			}
			walk(c)
		}
	}
	walk(t.Root())
	return out
}
