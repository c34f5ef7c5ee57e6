package runlog

import "errors"

// Domain errors for run history.
var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("runlog: run not found")

	// ErrRunExists is returned when creating a run whose ID is taken.
	ErrRunExists = errors.New("runlog: run already exists")
)
