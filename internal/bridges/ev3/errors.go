package ev3

import "errors"

// Domain errors for the ev3 bridge client.
var (
	// ErrTimeout is returned when the bridge does not answer a request in time.
	ErrTimeout = errors.New("ev3: request timed out")

	// ErrCommandFailed is returned when the bridge answers ok=false.
	ErrCommandFailed = errors.New("ev3: command failed")

	// ErrNoReading is returned when a sensor has not published state yet.
	ErrNoReading = errors.New("ev3: no sensor reading yet")

	// ErrStopped is returned for requests issued after Close.
	ErrStopped = errors.New("ev3: client stopped")

	// ErrOffline is returned by HealthCheck while the bridge is not online.
	ErrOffline = errors.New("ev3: bridge offline")

	// ErrInvalidMessage is returned when a state or response payload cannot be decoded.
	ErrInvalidMessage = errors.New("ev3: invalid message")
)
