// Package drive declares the motion and sound collaborators the navigation
// core drives. Implementations live with the hardware (bridges/ev3) or in
// tests.
//
// Units: distances in metres, angles in degrees (positive turns right),
// speeds in metres per second.
package drive

import "context"

// Pilot is a differential-drive base.
//
// Steer and SetTravelSpeed are fire-and-forget: they are called every
// control cycle and must not block on the hardware. The manoeuvres block
// until the motion completes or ctx ends.
type Pilot interface {
	// Steer sets a continuous turn rate while moving; 0 drives straight.
	Steer(turnRate float64) error
	SetTravelSpeed(metresPerSecond float64) error
	TravelSpeed() float64

	// Travel drives distance metres; negative reverses.
	Travel(ctx context.Context, distance float64) error
	// Rotate turns on the spot.
	Rotate(ctx context.Context, degrees float64) error
	// Arc drives along a circle of radius metres through degrees. A
	// positive radius puts the centre on the right.
	Arc(ctx context.Context, radius, degrees float64) error

	// Forward and Backward start moving until Stop.
	Forward(ctx context.Context) error
	Backward(ctx context.Context) error
	Stop(ctx context.Context) error
	IsMoving() bool
}

// Sounder plays audible cues.
type Sounder interface {
	Beep(ctx context.Context) error
	// PlayCompletion plays the end-of-run cue.
	PlayCompletion(ctx context.Context) error
}
