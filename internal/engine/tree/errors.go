package tree

import "errors"

// Errors returned by tree operations.
var (
	// ErrUnknownKey indicates an operation referenced a key absent from the tree.
	ErrUnknownKey = errors.New("unknown key")

	// ErrInvalidRange indicates a range crosses an incompatible boundary or
	// points outside its text run.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidType indicates an unrecognized or illegal node or mark type.
	ErrInvalidType = errors.New("invalid type")

	// ErrStaleReference indicates a reference to a torn-down or since-mutated
	// document.
	ErrStaleReference = errors.New("stale reference")

	// ErrDuplicateKey indicates a spec reused a key already present in the tree.
	ErrDuplicateKey = errors.New("duplicate key")
)
