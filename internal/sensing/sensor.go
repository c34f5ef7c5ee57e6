package sensing

import (
	"context"
	"fmt"

	"github.com/nerrad567/parkrunner-core/internal/colour"
)

// SensorID identifies one of the downward colour sensors.
type SensorID int

// Sensor positions.
const (
	Left SensorID = iota
	Right
	Front

	numSensors = 3
)

// AllSensors lists every sensor in index order.
var AllSensors = [numSensors]SensorID{Left, Right, Front}

func (id SensorID) String() string {
	switch id {
	case Left:
		return "left"
	case Right:
		return "right"
	case Front:
		return "front"
	default:
		return fmt.Sprintf("sensor(%d)", int(id))
	}
}

func (id SensorID) valid() bool {
	return id >= 0 && id < numSensors
}

// ColourSensor is a calibrated colour sensor driver.
type ColourSensor interface {
	// Colour returns the latest calibrated reading.
	Colour() (colour.Colour, error)
}

// RawSensor is a colour sensor that exposes uncalibrated channels and
// accepts black/white references.
type RawSensor interface {
	Raw() ([3]float64, error)
	SetCalibration(Calibration)
}

// Rangefinder is the rotating ultrasonic sensor: a motor with absolute
// positioning carrying a distance sensor.
type Rangefinder interface {
	// RotateTo moves the sensor motor to an absolute position in motor degrees.
	RotateTo(ctx context.Context, motorDegrees float64) error
	// Distance returns the current reading in metres.
	Distance(ctx context.Context) (float64, error)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
