package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// beepGap is the pause between warning beeps while reversing.
const beepGap = 150 * time.Millisecond

// sweepWithTimeout repeats a sweep until it is clear. Once the sweep
// timeout has passed the way is assumed clear.
//
// Returns:
//   - bool: true if the sweep was really clear, false if it timed out
//   - error: Sonar or context failure
func (c *Controller) sweepWithTimeout(ctx context.Context, sw config.SweepConfig) (bool, error) {
	deadline := time.Now().Add(c.sonarCfg.SweepTimeout)
	for attempt := 1; ; attempt++ {
		ok, err := c.sonar.Sweep(ctx, sw)
		if err != nil {
			return false, fmt.Errorf("sweeping %.0f°..%.0f°: %w", sw.Start, sw.End, err)
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			c.logger.Warn("sweep timed out, assuming clear", "start", sw.Start, "end", sw.End, "attempts", attempt)
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
}

// waitForEdgeCrossings polls the given sensors until one of them has
// crossed n road edges, a crossing being any change between the road
// colour and anything else.
//
// Returns:
//   - sensing.SensorID: The first sensor to reach n crossings
//   - error: Monitor or context failure
func (c *Controller) waitForEdgeCrossings(ctx context.Context, n int, sensors ...sensing.SensorID) (sensing.SensorID, error) {
	road := c.monitor.RoadColour()

	over := make([]bool, len(sensors))
	counts := make([]int, len(sensors))
	for i, id := range sensors {
		m, err := c.monitor.Match(id)
		if err != nil {
			return 0, err
		}
		over[i] = m != road
	}

	poll := c.robot.EdgePollInterval
	if poll <= 0 {
		poll = time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		for i, id := range sensors {
			m, err := c.monitor.Match(id)
			if err != nil {
				return 0, err
			}
			if now := m != road; now != over[i] {
				over[i] = now
				counts[i]++
				c.logger.Debug("edge crossed", "sensor", id.String(), "count", counts[i])
			}
			if counts[i] >= n {
				return id, nil
			}
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// travelBeeping drives distance metres, beeping until the move completes
// when beep is set.
func (c *Controller) travelBeeping(ctx context.Context, distance float64, beep bool) error {
	if !beep {
		return c.pilot.Travel(ctx, distance)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.pilot.Travel(ctx, distance)
	}()

	for {
		if err := c.sounder.Beep(ctx); err != nil {
			c.logger.Debug("beep failed", "error", err)
		}
		select {
		case err := <-done:
			return err
		case <-time.After(beepGap):
		}
	}
}
