package route

import "errors"

var (
	// ErrMalformedLine is returned for map or mission lines that cannot be parsed.
	ErrMalformedLine = errors.New("route: malformed line")

	// ErrDuplicateArc is returned when an arc between the same ordered pair is added twice.
	ErrDuplicateArc = errors.New("route: duplicate arc")

	// ErrUnknownNode is returned when a node is not in the graph.
	ErrUnknownNode = errors.New("route: unknown node")

	// ErrNoArc is returned when two nodes are not joined by an arc.
	ErrNoArc = errors.New("route: no arc")

	// ErrNoRoute is returned when the destination cannot be reached.
	ErrNoRoute = errors.New("route: no route")

	// ErrTurnTooSharp is returned when a turn normalises outside [-90, 90].
	ErrTurnTooSharp = errors.New("route: turn too sharp")

	// ErrDuplicateStop is returned when a stop is requested more than once.
	ErrDuplicateStop = errors.New("route: duplicate stop")

	// ErrUnknownBase is returned for a base selector other than old or new.
	ErrUnknownBase = errors.New("route: unknown base")
)
