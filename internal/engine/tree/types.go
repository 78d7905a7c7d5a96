package tree

import "fmt"

// Type is a node type tag.
type Type string

// Node types.
const (
	Document       Type = "document"
	Paragraph      Type = "paragraph"
	Heading1       Type = "heading1"
	Heading2       Type = "heading2"
	Heading3       Type = "heading3"
	BlockQuote     Type = "block-quote"
	Code           Type = "code"
	CodeLine       Type = "code-line"
	BulletedList   Type = "bulleted-list"
	OrderedList    Type = "ordered-list"
	TodoList       Type = "todo-list"
	ListItem       Type = "list-item"
	Image          Type = "image"
	HorizontalRule Type = "horizontal-rule"
	Link           Type = "link"
	Text           Type = "text"
)

// Kind groups node types by the shape of their children.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDocument
	KindTextBlock // holds text runs and inlines
	KindContainer // holds blocks
	KindVoid      // holds nothing
	KindInline    // holds text runs
	KindText      // holds a text payload
)

var kindNames = [...]string{"unknown", "document", "text-block", "container", "void", "inline", "text"}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

var typeKinds = map[Type]Kind{
	Document:       KindDocument,
	Paragraph:      KindTextBlock,
	Heading1:       KindTextBlock,
	Heading2:       KindTextBlock,
	Heading3:       KindTextBlock,
	BlockQuote:     KindTextBlock,
	CodeLine:       KindTextBlock,
	Code:           KindContainer,
	BulletedList:   KindContainer,
	OrderedList:    KindContainer,
	TodoList:       KindContainer,
	ListItem:       KindContainer,
	Image:          KindVoid,
	HorizontalRule: KindVoid,
	Link:           KindInline,
	Text:           KindText,
}

// Kind returns the kind of t, or KindUnknown for unrecognized tags.
func (t Type) Kind() Kind {
	return typeKinds[t]
}

// Valid reports whether t is a recognized tag.
func (t Type) Valid() bool {
	return t.Kind() != KindUnknown
}

// IsBlock reports whether t is block-kind. The document is a block.
func (t Type) IsBlock() bool {
	switch t.Kind() {
	case KindDocument, KindTextBlock, KindContainer, KindVoid:
		return true
	}
	return false
}

// IsTextBlock reports whether t holds inline content.
func (t Type) IsTextBlock() bool { return t.Kind() == KindTextBlock }

// IsInline reports whether t is an inline element.
func (t Type) IsInline() bool { return t.Kind() == KindInline }

// IsVoid reports whether t can hold no children.
func (t Type) IsVoid() bool { return t.Kind() == KindVoid }

// IsList reports whether t is one of the list containers.
func (t Type) IsList() bool {
	return t == BulletedList || t == OrderedList || t == TodoList
}

// ParseType converts s to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// flow reports whether t may appear where the document allows blocks.
func flow(t Type) bool {
	switch t.Kind() {
	case KindTextBlock:
		return t != CodeLine
	case KindVoid:
		return true
	case KindContainer:
		return t == Code || t.IsList()
	}
	return false
}

// Allows reports whether a node of type parent may hold a child of type child.
func Allows(parent, child Type) bool {
	switch {
	case parent == Document, parent == ListItem:
		return flow(child)
	case parent.IsList():
		return child == ListItem
	case parent == Code:
		return child == CodeLine
	case parent.IsTextBlock():
		return child == Text || child == Link
	case parent == Link:
		return child == Text
	}
	return false
}
