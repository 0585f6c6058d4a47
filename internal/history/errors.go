package history

import "errors"

// Sentinel errors for the execution history.
//
//	if errors.Is(err, history.ErrNotFound) {
//	    // unknown execution id
//	}
var (
	// ErrNotFound is returned when an execution id does not exist.
	ErrNotFound = errors.New("history: execution not found")

	// ErrInvalidRecord is returned when a record lacks an action or target.
	ErrInvalidRecord = errors.New("history: invalid record")
)
