package course

import "errors"

var (
	// ErrNotParking is returned when Parked arrives without a preceding Park.
	// The course is left unchanged.
	ErrNotParking = errors.New("course: parked event without a park")

	// ErrPathExhausted is returned when an event would move past either end
	// of the planned node list.
	ErrPathExhausted = errors.New("course: path exhausted")

	// ErrEmptyPath is returned when constructing a course with no nodes.
	ErrEmptyPath = errors.New("course: empty path")
)
