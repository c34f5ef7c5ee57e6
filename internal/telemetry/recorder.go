package telemetry

import (
	"maps"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
	"github.com/nerrad567/parkrunner-core/internal/steering"
)

var (
	_ controller.Observer     = (*Recorder)(nil)
	_ steering.SampleRecorder = (*Recorder)(nil)
	_ sensing.RangeRecorder   = (*Recorder)(nil)
)

// Measurement names.
const (
	MeasurementSteering = "steering"
	MeasurementRange    = "range"
	MeasurementAction   = "action"
)

// PointWriter writes one time-series point. Satisfied by *influxdb.Client.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time)
}

// Recorder writes control-loop samples, range readings and action
// durations as time series tagged with the robot and run.
type Recorder struct {
	controller.NopObserver

	writer PointWriter
	tags   map[string]string
}

// NewRecorder creates a recorder tagging every point with robotID and runID.
func NewRecorder(w PointWriter, robotID, runID string) *Recorder {
	return &Recorder{
		writer: w,
		tags:   map[string]string{"robot_id": robotID, "run_id": runID},
	}
}

// RecordSteering writes one follower control cycle.
func (r *Recorder) RecordSteering(s steering.Sample) {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	r.writer.WritePointWithTime(MeasurementSteering, r.tags, map[string]any{
		"angular_error":    s.AngularError,
		"position_error":   s.PositionError,
		"derivative_error": s.DerivativeError,
		"steer":            s.Steer,
		"speed":            s.Speed,
	}, at)
}

// RecordRange writes one sonar reading; angle in degrees, distance in metres.
func (r *Recorder) RecordRange(angle, distance float64) {
	r.writer.WritePointWithTime(MeasurementRange, r.tags, map[string]any{
		"angle":    angle,
		"distance": distance,
	}, time.Now())
}

// OnActionDone writes how long an action took and whether it failed.
func (r *Recorder) OnActionDone(a nav.Action, elapsed time.Duration, err error) {
	tags := maps.Clone(r.tags)
	tags["kind"] = string(a.Kind())
	r.writer.WritePointWithTime(MeasurementAction, tags, map[string]any{
		"duration_seconds": elapsed.Seconds(),
		"seq":              a.Seq(),
		"failed":           err != nil,
	}, time.Now())
}
