package app

import (
	"errors"
	"fmt"
)

// Editor errors.
var (
	// ErrClosed is returned when opening a document on a closed editor.
	ErrClosed = errors.New("editor closed")

	// ErrUnknownCommand is returned for a replay line naming no command.
	ErrUnknownCommand = errors.New("unknown replay command")
)

// InitError reports the component that failed while building an editor.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ReplayError reports the replay line that failed.
type ReplayError struct {
	Line int
	Text string
	Err  error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}
