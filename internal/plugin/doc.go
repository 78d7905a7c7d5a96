// Package plugin translates raw editor input into document edits through an
// ordered list of plugins.
//
// # Dispatch
//
// A Pipeline holds plugins in their configured order. For every key press,
// paste or escape, each plugin implementing the matching handler interface
// is offered the event together with a fresh transaction:
//
//	res, err := h.OnKeyDown(ctx, ev)
//
// The first plugin returning Handled wins; its transaction is committed to the
// document atomically and later plugins never see the event. Returned errors,
// panics and transactions that fail to commit are logged as warnings and
// treated as PassThrough.
//
// # Normalization
//
// Normalize runs every Normalizer in configured order. The result is checked
// by a second pass which must leave the tree unchanged; a chain that does not
// converge is reported but not fatal.
//
// # Async work
//
// Handlers may schedule background work with Context.Go. Tasks start after the
// handling plugin's transaction commits and report back through
// Document.Update, which re-validates against the current tree. Completions
// against a closed document are discarded.
package plugin
