package controller

import "errors"

var (
	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("controller: missing dependency")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("controller: already started")

	// ErrNoSide is returned for a Park action without a side.
	ErrNoSide = errors.New("controller: park action has no side")

	// ErrClosed is returned when the controller was closed before the run finished.
	ErrClosed = errors.New("controller: closed")
)
