package cursor

import "github.com/dshills/richtext/internal/engine/tree"

// Selection is the derived selection state of a document.
// Anchor is where the selection started; Focus is where it ends and where
// typing occurs.
type Selection struct {
	Anchor     tree.Point
	Focus      tree.Point
	Start      tree.Point
	End        tree.Point
	StartBlock tree.Key
	Marks      tree.MarkSet

	// Carried reports that Marks were set explicitly on a collapsed cursor
	// instead of being derived from the text.
	Carried bool
}

// IsCollapsed reports whether the selection has no extent.
func (s Selection) IsCollapsed() bool {
	return s.Anchor == s.Focus
}

// Range returns the selection as a tree range.
func (s Selection) Range() tree.Range {
	return tree.Span(s.Anchor, s.Focus)
}

// HasMark reports whether m is active.
func (s Selection) HasMark(m tree.Mark) bool {
	return s.Marks.Has(m)
}

// IsForward reports whether the focus does not precede the anchor.
func (s Selection) IsForward() bool {
	return s.Anchor == s.Start
}

// WithMarks returns a copy carrying marks explicitly.
func (s Selection) WithMarks(marks tree.MarkSet) Selection {
	s.Marks = marks
	s.Carried = true
	return s
}

// Edge names one end of a selection.
type Edge uint8

const (
	EdgeStart Edge = iota
	EdgeEnd
	EdgeAnchor
	EdgeFocus
)

var edgeNames = map[Edge]string{EdgeStart: "start", EdgeEnd: "end", EdgeAnchor: "anchor", EdgeFocus: "focus"}

// String returns the edge name.
func (e Edge) String() string {
	return edgeNames[e]
}

// ParseEdge converts a name such as "end" into an Edge.
func ParseEdge(name string) (Edge, bool) {
	for e, n := range edgeNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}

// Point returns the point at edge e.
func (s Selection) Point(e Edge) tree.Point {
	switch e {
	case EdgeStart:
		return s.Start
	case EdgeEnd:
		return s.End
	case EdgeAnchor:
		return s.Anchor
	default:
		return s.Focus
	}
}
