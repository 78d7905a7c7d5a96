package tree

import (
	"maps"
	"reflect"
)

// Data holds a node's attributes, e.g. {checked: false} or {href: "..."}.
type Data map[string]any

// Merge returns a copy of d with patch applied on top.
func (d Data) Merge(patch Data) Data {
	if len(d) == 0 && len(patch) == 0 {
		return nil
	}
	out := make(Data, len(d)+len(patch))
	maps.Copy(out, d)
	maps.Copy(out, patch)
	return out
}

// Clone returns a shallow copy of d.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Equal reports whether d and o hold equal attributes. Nil and empty are equal.
func (d Data) Equal(o Data) bool {
	if len(d) == 0 && len(o) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]any(d), map[string]any(o))
}

// String returns the string attribute name, or "".
func (d Data) String(name string) string {
	s, _ := d[name].(string)
	return s
}

// Bool returns the boolean attribute name, or false.
func (d Data) Bool(name string) bool {
	b, _ := d[name].(bool)
	return b
}
