// Package telemetry reports what the robot is doing while it runs.
//
// Two outputs are kept apart:
//
//   - Publisher sends JSON frames to the broker: every accepted event on
//     parkrunner/events, every dispatched action on parkrunner/actions,
//     and a retained snapshot on parkrunner/status.
//   - Recorder writes time series to InfluxDB: the steering controller's
//     per-cycle errors and outputs, every sonar range reading and how long
//     each action took.
//
// Both plug into the controller as observers; Recorder also implements
// steering.SampleRecorder and sensing.RangeRecorder.
package telemetry
