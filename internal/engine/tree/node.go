package tree

import "slices"

// Node is one addressable unit of a document: the document itself, a block,
// an inline element or a text run. Nodes returned by a Tree are copies;
// modifying them does not affect the tree.
type Node struct {
	Key      Key
	Type     Type
	Data     Data
	Marks    MarkSet
	Text     string
	Children []Key
}

// IsText reports whether n is a text run.
func (n Node) IsText() bool {
	return n.Type == Text
}

// Len returns the text length of a run in grapheme clusters.
func (n Node) Len() int {
	return GraphemeLen(n.Text)
}

func (n Node) clone() Node {
	n.Data = n.Data.Clone()
	n.Children = slices.Clone(n.Children)
	return n
}

func (n Node) equal(o Node) bool {
	return n.Key == o.Key &&
		n.Type == o.Type &&
		n.Text == o.Text &&
		n.Marks.Equal(o.Marks) &&
		n.Data.Equal(o.Data) &&
		slices.Equal(n.Children, o.Children)
}
