// Package ev3 is the core side of the hardware bridge running on the brick.
//
// The brick process owns the motors and sensors and speaks MQTT:
//
//	parkrunner/state/ev3/colour/{left,right,front}   retained raw RGB
//	parkrunner/state/ev3/pilot                       {"moving":bool,"speed":m/s}
//	parkrunner/request/ev3/{id}                      command, id is a uuid
//	parkrunner/response/ev3/{id}                     {"ok":bool,"error":"","value":n}
//	parkrunner/bridge/ev3/status                     online/offline (LWT)
//
// Client turns that into the collaborators the navigation core drives:
// it implements drive.Pilot, drive.Sounder and sensing.Rangefinder
// directly, and hands out one Sensor per colour sensor
// (sensing.ColourSensor and sensing.RawSensor).
//
// Blocking manoeuvres publish a request and wait for the matching response,
// the caller's context, or the configured request timeout. Steer and
// SetTravelSpeed are published at QoS 0 without waiting; they run every
// control cycle.
package ev3
