package ev3

import (
	"sync"

	"github.com/nerrad567/parkrunner-core/internal/colour"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

var (
	_ sensing.ColourSensor = (*Sensor)(nil)
	_ sensing.RawSensor    = (*Sensor)(nil)
)

// Sensor is one colour sensor on the brick. Readings come from the
// retained state topic; no request is made per read.
type Sensor struct {
	client *Client
	id     sensing.SensorID

	mu         sync.RWMutex
	cal        sensing.Calibration
	calibrated bool
}

// Sensor returns the colour sensor at id, or nil for an unknown id.
func (c *Client) Sensor(id sensing.SensorID) *Sensor {
	return c.sensors[id]
}

// Raw returns the uncalibrated channels.
func (s *Sensor) Raw() ([3]float64, error) {
	return s.client.raw(s.id.String())
}

// SetCalibration installs black/white references.
func (s *Sensor) SetCalibration(cal sensing.Calibration) {
	s.mu.Lock()
	s.cal = cal
	s.calibrated = true
	s.mu.Unlock()
}

// Colour returns the calibrated reading. Before calibration the raw
// channels are clamped to [0, 1].
func (s *Sensor) Colour() (colour.Colour, error) {
	raw, err := s.Raw()
	if err != nil {
		return colour.Colour{}, err
	}

	s.mu.RLock()
	cal, ok := s.cal, s.calibrated
	s.mu.RUnlock()

	if !ok {
		return colour.Clamped(raw[0], raw[1], raw[2]), nil
	}
	return cal.Apply(raw), nil
}
