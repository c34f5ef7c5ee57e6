package ev3

import (
	"encoding/json"
	"fmt"
	"time"
)

// Command names understood by the brick.
const (
	cmdSteer    = "steer"
	cmdSetSpeed = "set_speed"
	cmdTravel   = "travel"
	cmdRotate   = "rotate"
	cmdArc      = "arc"
	cmdForward  = "forward"
	cmdBackward = "backward"
	cmdStop     = "stop"
	cmdSensorTo = "sensor_to"
	cmdDistance = "distance"
	cmdBeep     = "beep"
	cmdFanfare  = "fanfare"
)

// Request is sent from the core to the bridge.
// Topic: parkrunner/request/ev3/{id}
//
// Only the fields a command uses are set. Angles follow the core's
// convention: positive turns right.
type Request struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`

	TurnRate     *float64 `json:"turn_rate,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	Degrees      *float64 `json:"degrees,omitempty"`
	Radius       *float64 `json:"radius,omitempty"`
	MotorDegrees *float64 `json:"motor_degrees,omitempty"`
}

// Response is the bridge's answer to one Request.
// Topic: parkrunner/response/ev3/{id}
type Response struct {
	OK    bool    `json:"ok"`
	Error string  `json:"error,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// err converts a failed response into an error wrapping ErrCommandFailed.
func (r Response) err(command string) error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("%w: %s", ErrCommandFailed, command)
	}
	return fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, r.Error)
}

// ColourState is one colour sensor's raw channels.
// Topic: parkrunner/state/ev3/colour/{sensor}
type ColourState struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// PilotState is the drive base's last reported state.
// Topic: parkrunner/state/ev3/pilot
type PilotState struct {
	Moving bool    `json:"moving"`
	Speed  float64 `json:"speed"`
}

// StatusMessage is the bridge's online/offline announcement, including
// the broker-published LWT.
// Topic: parkrunner/bridge/ev3/status
type StatusMessage struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return v, nil
}

func f64(v float64) *float64 { return &v }
