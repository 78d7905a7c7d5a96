package engine

import (
	"errors"

	"github.com/dshills/richtext/internal/engine/tree"
)

// Errors returned by engine operations.
var (
	// ErrUnknownKey indicates an operation referenced a key absent from the
	// current tree.
	ErrUnknownKey = tree.ErrUnknownKey

	// ErrInvalidRange indicates a structural edit crossed an incompatible
	// boundary.
	ErrInvalidRange = tree.ErrInvalidRange

	// ErrInvalidType indicates an unrecognized or illegal node or mark type.
	ErrInvalidType = tree.ErrInvalidType

	// ErrStaleReference indicates a transaction built against an older
	// version, or any write to a closed engine.
	ErrStaleReference = tree.ErrStaleReference

	// ErrReadOnly indicates a command was issued to a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
