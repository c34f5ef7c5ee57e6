package steering

import "errors"

var (
	// ErrUnknownTerm is returned when tuning a term other than p, i or d.
	ErrUnknownTerm = errors.New("steering: unknown gain term")

	// ErrInvalidCommand is returned for an unparseable tuning command.
	ErrInvalidCommand = errors.New("steering: invalid tuning command")

	// ErrUnknownGlue is returned for a glue mode other than none, left or right.
	ErrUnknownGlue = errors.New("steering: unknown glue mode")

	// ErrNoGains is returned when no tuned gains have been stored.
	ErrNoGains = errors.New("steering: no stored gains")
)
