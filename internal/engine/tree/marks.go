package tree

import (
	"fmt"
	"slices"
	"strings"
)

// Mark is a character-level formatting annotation on a text run.
type Mark string

// Mark types.
const (
	MarkBold       Mark = "bold"
	MarkItalic     Mark = "italic"
	MarkUnderlined Mark = "underlined"
	MarkDeleted    Mark = "deleted"
	MarkCode       Mark = "code"
	MarkInserted   Mark = "inserted"
)

// Valid reports whether m is a recognized mark.
func (m Mark) Valid() bool {
	switch m {
	case MarkBold, MarkItalic, MarkUnderlined, MarkDeleted, MarkCode, MarkInserted:
		return true
	}
	return false
}

// ParseMark converts s to a Mark.
func ParseMark(s string) (Mark, error) {
	m := Mark(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: mark %q", ErrInvalidType, s)
	}
	return m, nil
}

// MarkSet is an immutable sorted set of marks. The zero value is empty.
type MarkSet []Mark

// NewMarkSet returns a set holding marks.
func NewMarkSet(marks ...Mark) MarkSet {
	var s MarkSet
	for _, m := range marks {
		s = s.With(m)
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkSet) Has(m Mark) bool {
	_, ok := slices.BinarySearch(s, m)
	return ok
}

// With returns a set that also holds m.
func (s MarkSet) With(m Mark) MarkSet {
	i, ok := slices.BinarySearch(s, m)
	if ok {
		return s
	}
	out := make(MarkSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, m)
	return append(out, s[i:]...)
}

// Without returns a set that does not hold m.
func (s MarkSet) Without(m Mark) MarkSet {
	i, ok := slices.BinarySearch(s, m)
	if !ok {
		return s
	}
	if len(s) == 1 {
		return nil
	}
	out := make(MarkSet, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// Intersect returns the marks present in both sets.
func (s MarkSet) Intersect(o MarkSet) MarkSet {
	var out MarkSet
	for _, m := range s {
		if o.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Equal reports whether both sets hold the same marks.
func (s MarkSet) Equal(o MarkSet) bool {
	return slices.Equal(s, o)
}

// String returns the marks joined by "+".
func (s MarkSet) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = string(m)
	}
	return strings.Join(parts, "+")
}
