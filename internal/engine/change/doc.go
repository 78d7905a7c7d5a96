// Package change implements transactions: batches of tree edits that are
// applied as a unit.
//
// A Transaction starts from a tree and a selection. Each method applies one
// edit eagerly to a private working copy, so later edits see the result of
// earlier ones, and most of them move the selection the way a user would
// expect (inserting text collapses the cursor after it, splitting a block
// moves it to the new block, and so on).
//
// The first edit that fails is recorded; every later edit becomes a no-op
// and Commit returns that error. Nothing is observable until Commit
// succeeds, and a failed transaction leaves the original tree and selection
// untouched.
//
//	tx := change.New(doc, sel, version)
//	tx.DeleteRange(trigger).SetBlockType(block, tree.Heading1)
//	c, err := tx.Commit()
package change
