// Package cursor derives the selection state of a document.
//
// A Selection is computed from a tree plus a raw anchor and focus point. It
// records:
//
//   - the range, with its points in document order as Start and End
//   - StartBlock, the nearest block-kind ancestor of the anchor
//   - Marks, the marks shared by every text run the range covers
//
// For a collapsed cursor Marks come from the run immediately before the
// cursor, so typed text inherits the formatting to its left. Marks set
// explicitly on a collapsed selection (for instance by a bold shortcut with
// nothing selected) are carried until the cursor moves.
//
// Selections are values. They are recomputed after every transaction and
// every cursor move and are never stored with the document.
package cursor
