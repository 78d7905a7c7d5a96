// Package tree implements the immutable document tree.
//
// A Tree holds nodes addressed by stable keys: the document, blocks
// (paragraphs, headings, quotes, code lines, lists, list items, images),
// inline elements (links) and text runs. Parent and child edges are stored as
// keys in a persistent hash map, so an edit copies the few entries it touches
// and shares everything else with the previous version. Old versions stay
// valid and can be inspected after any number of edits.
//
// Node types constrain their children (see Allows). Marks such as bold or
// italic live only on text runs. Offsets inside a run count grapheme
// clusters, not bytes.
//
// Edits go through an Editor:
//
//	e := t.Edit()
//	e.DeleteRange(tree.Span(start, end))
//	e.SetType(block, tree.Heading1)
//	next, err := e.Done()
//
// The first failing edit aborts the whole batch; Done then returns that error
// and t is left as it was. The With* methods on Tree wrap a single edit.
//
// Errors wrap ErrUnknownKey, ErrInvalidRange, ErrInvalidType or
// ErrDuplicateKey and can be tested with errors.Is.
package tree
