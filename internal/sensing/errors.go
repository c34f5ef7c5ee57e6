package sensing

import "errors"

var (
	// ErrNotRunning is returned by accessors while the monitor is paused or terminated.
	ErrNotRunning = errors.New("sensing: monitor not running")

	// ErrUnknownSensor is returned for a sensor ID outside Left, Right, Front.
	ErrUnknownSensor = errors.New("sensing: unknown sensor")

	// ErrNoCalibration is returned when no stored calibration exists.
	ErrNoCalibration = errors.New("sensing: no stored calibration")
)
