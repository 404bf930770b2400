package model

import "errors"

// Sentinel errors shared by every repository backend. Callers match with
// errors.Is; backends attach context via goerr.Wrap.
var (
	// ErrNotFound means a referenced story or review id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the requested state change violates the
	// story state machine.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAlreadyAssigned means an optimistic claim lost a race to another
	// actor. Recoverable: re-run the unassigned query and retry.
	ErrAlreadyAssigned = errors.New("story already assigned")

	// ErrNotAssigned means an unassign was requested for a story that has
	// no assignee.
	ErrNotAssigned = errors.New("story not assigned")

	// ErrStorageUnavailable means a transaction could not commit. The
	// operation is not retried here; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
