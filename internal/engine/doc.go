// Package engine provides the document handle of the editor.
//
// An Engine owns the current tree, the current selection and a version
// counter for one document. It is the single writer for that document:
// every change arrives as a transaction and is committed under the engine's
// lock, after which the normalize chain runs, the selection is derived again
// and listeners are notified.
//
// # Staleness
//
// A transaction obtained from Begin remembers the version it was built
// against. Apply rejects it with ErrStaleReference if the document changed
// in the meantime or was closed. Work that completes asynchronously should
// use Update instead, which builds the transaction against the current
// state under the lock, so the callback can check that its keys still exist
// before editing:
//
//	_, err := doc.Update(func(tx *change.Transaction) error {
//	    if !tx.Tree().Attached(block) {
//	        return engine.ErrStaleReference
//	    }
//	    tx.InsertBlockAfter(block, image)
//	    return nil
//	})
//
// After Close every write fails with ErrStaleReference.
//
// # Queries and commands
//
// Views read through HasMark, IsBlockType and NodeData and write through the
// Request* commands. RequestBlockType follows the toolbar rule: requesting the
// type the start block already has turns it back into a paragraph.
// RequestLinkCreation asks a LinkProvider for the href without holding any
// lock and then wraps the selection, failing with ErrStaleReference if the
// document changed while it waited.
package engine
