package plugin

import "errors"

// Plugin system errors.
var (
	// ErrUnknownPlugin is returned when a name has no registered factory.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrDuplicatePlugin is returned when a name is registered or configured
	// twice.
	ErrDuplicatePlugin = errors.New("duplicate plugin")

	// ErrInvalidParams is returned when plugin parameters fail to decode.
	ErrInvalidParams = errors.New("invalid plugin parameters")

	// ErrPanic wraps a recovered panic from plugin code.
	ErrPanic = errors.New("plugin panicked")

	// ErrPipelineClosed is returned when work is scheduled after Close.
	ErrPipelineClosed = errors.New("pipeline closed")
)
