package colour

import "errors"

var (
	// ErrOutOfRange is returned when a channel lies outside [0,1].
	ErrOutOfRange = errors.New("colour: channel out of range")

	// ErrUnknownColour is returned when a palette name is not defined.
	ErrUnknownColour = errors.New("colour: unknown colour")

	// ErrInvalidFormat is returned when a textual colour cannot be parsed.
	ErrInvalidFormat = errors.New("colour: invalid format")
)
