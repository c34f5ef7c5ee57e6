package ev3

import "context"

// Steer sets a continuous turn rate. It does not wait for the brick.
func (c *Client) Steer(turnRate float64) error {
	return c.send(Request{Command: cmdSteer, TurnRate: f64(turnRate)})
}

// SetTravelSpeed sets the drive speed in metres per second. It does not
// wait for the brick.
func (c *Client) SetTravelSpeed(metresPerSecond float64) error {
	c.stateMu.Lock()
	c.speed = metresPerSecond
	c.stateMu.Unlock()
	return c.send(Request{Command: cmdSetSpeed, Speed: f64(metresPerSecond)})
}

// TravelSpeed returns the last commanded speed.
func (c *Client) TravelSpeed() float64 {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.speed
}

// Travel drives distance metres and blocks until the brick reports done.
func (c *Client) Travel(ctx context.Context, distance float64) error {
	_, err := c.call(ctx, Request{Command: cmdTravel, Distance: f64(distance)})
	return err
}

// Rotate turns on the spot.
func (c *Client) Rotate(ctx context.Context, degrees float64) error {
	_, err := c.call(ctx, Request{Command: cmdRotate, Degrees: f64(degrees)})
	return err
}

// Arc drives along a circle; a positive radius puts the centre on the right.
func (c *Client) Arc(ctx context.Context, radius, degrees float64) error {
	_, err := c.call(ctx, Request{Command: cmdArc, Radius: f64(radius), Degrees: f64(degrees)})
	return err
}

func (c *Client) Forward(ctx context.Context) error {
	_, err := c.call(ctx, Request{Command: cmdForward})
	return err
}

func (c *Client) Backward(ctx context.Context) error {
	_, err := c.call(ctx, Request{Command: cmdBackward})
	return err
}

func (c *Client) Stop(ctx context.Context) error {
	_, err := c.call(ctx, Request{Command: cmdStop})
	return err
}

// IsMoving reports the brick's last published pilot state.
func (c *Client) IsMoving() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.pilot.Moving
}

// Beep plays a short tone.
func (c *Client) Beep(ctx context.Context) error {
	_, err := c.call(ctx, Request{Command: cmdBeep})
	return err
}

// PlayCompletion plays the end-of-run fanfare.
func (c *Client) PlayCompletion(ctx context.Context) error {
	_, err := c.call(ctx, Request{Command: cmdFanfare})
	return err
}

// RotateTo moves the sonar motor to an absolute position in motor degrees.
func (c *Client) RotateTo(ctx context.Context, motorDegrees float64) error {
	_, err := c.call(ctx, Request{Command: cmdSensorTo, MotorDegrees: f64(motorDegrees)})
	return err
}

// Distance returns a fresh sonar reading in metres.
func (c *Client) Distance(ctx context.Context) (float64, error) {
	return c.call(ctx, Request{Command: cmdDistance})
}
