package change

import "errors"

// Errors returned by transactions.
var (
	// ErrNoSelection indicates an edit needed a selection and there was none.
	ErrNoSelection = errors.New("no selection")

	// ErrCommitted indicates a transaction was used after Commit.
	ErrCommitted = errors.New("transaction already committed")
)
