package tree

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Encode renders the tree as YAML.
func Encode(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t.Spec(t.Root())); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode builds a tree from YAML produced by Encode or written by hand.
func Decode(data []byte) (*Tree, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return New(s)
}
