package controller

import (
	"context"
	"fmt"
	"math"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// lineFollow hands the robot to the follower and returns.
func (c *Controller) lineFollow(a nav.LineFollow) error {
	c.follower.SetMaxSpeed(math.Inf(1))
	if err := c.follower.Start(); err != nil {
		return fmt.Errorf("starting follower: %w", err)
	}
	if err := c.sonar.Start(); err != nil {
		return fmt.Errorf("starting sonar: %w", err)
	}
	c.logger.Debug("following line", "from", a.From, "to", a.To)
	return nil
}

// intersection pulls up over the mark and arcs through the turn.
func (c *Controller) intersection(ctx context.Context, a nav.Intersection) error {
	if _, err := c.sweepWithTimeout(ctx, c.sonarCfg.Intersection); err != nil {
		return err
	}
	if err := c.pilot.Travel(ctx, c.robot.IntersectionPullup); err != nil {
		return fmt.Errorf("pulling up: %w", err)
	}

	angle := float64(a.Angle)
	if angle != 0 {
		radius := sign(angle) * c.robot.RoadWidth / 2
		if err := c.pilot.Arc(ctx, radius, angle); err != nil {
			return fmt.Errorf("turning %+.0f°: %w", angle, err)
		}
	}

	return c.complete(nav.IntersectionNavigated)
}

// park reverses into the lot on a.Side.
func (c *Controller) park(ctx context.Context, a nav.Park) error {
	if a.Side == nav.SideNone {
		return ErrNoSide
	}
	p := c.robot.Park
	side := a.Side.Sign()

	if err := c.pilot.SetTravelSpeed(c.robot.ParkingSpeed); err != nil {
		return fmt.Errorf("setting parking speed: %w", err)
	}

	free, err := c.sonar.Sweep(ctx, sided(c.sonarCfg.Parking, side))
	if err != nil {
		return fmt.Errorf("checking lot: %w", err)
	}
	if !free {
		c.logger.Info("lot blocked, backing off", "side", a.Side.String())
		if err := c.travelBeeping(ctx, -p.AvoidBackup, true); err != nil {
			return fmt.Errorf("backing off: %w", err)
		}
		if _, err := c.sweepWithTimeout(ctx, sided(c.sonarCfg.ParkAvoid, side)); err != nil {
			return err
		}
		if err := c.pilot.Travel(ctx, p.AvoidBackup); err != nil {
			return fmt.Errorf("returning to lot: %w", err)
		}
	}

	// Jog sideways towards the lot, then square up again.
	if err := c.pilot.Rotate(ctx, side*p.ManeuverAngle); err != nil {
		return fmt.Errorf("swinging out: %w", err)
	}
	if err := c.pilot.Travel(ctx, p.ManeuverDist); err != nil {
		return fmt.Errorf("swinging out: %w", err)
	}
	if err := c.pilot.Rotate(ctx, -side*p.ManeuverAngle); err != nil {
		return fmt.Errorf("squaring up: %w", err)
	}

	lotSensor := sensing.Right
	if a.Side == nav.SideLeft {
		lotSensor = sensing.Left
	}
	if err := c.pilot.Forward(ctx); err != nil {
		return fmt.Errorf("advancing to lot: %w", err)
	}
	if _, err := c.waitForEdgeCrossings(ctx, 1, lotSensor); err != nil {
		return fmt.Errorf("finding lot edge: %w", err)
	}
	if err := c.pilot.Stop(ctx); err != nil {
		return err
	}

	if err := c.pilot.Travel(ctx, -p.CenterDistance); err != nil {
		return fmt.Errorf("centring on lot: %w", err)
	}
	// Turn away from the lot so the tail faces it.
	if err := c.pilot.Rotate(ctx, -side*p.Angle); err != nil {
		return fmt.Errorf("turning tail to lot: %w", err)
	}
	if err := c.pilot.Backward(ctx); err != nil {
		return fmt.Errorf("reversing: %w", err)
	}
	if _, err := c.waitForEdgeCrossings(ctx, 1, sensing.Left, sensing.Right); err != nil {
		return fmt.Errorf("finding lot entry: %w", err)
	}
	if err := c.travelBeeping(ctx, -p.BackInDistance, p.BeepWhileBackup); err != nil {
		return fmt.Errorf("backing in: %w", err)
	}
	if err := c.pilot.Stop(ctx); err != nil {
		return err
	}

	c.logger.Info("parked", "side", a.Side.String())
	if err := sleep(ctx, c.robot.ParkDelay); err != nil {
		return err
	}
	return c.complete(nav.Parked)
}

// pullout leaves the lot and turns onto the road towards a.Side.
func (c *Controller) pullout(ctx context.Context, a nav.Pullout) error {
	if _, err := c.sweepWithTimeout(ctx, c.sonarCfg.Pullout); err != nil {
		return err
	}

	po := c.robot.Pullout
	if err := c.pilot.SetTravelSpeed(c.robot.ParkingSpeed); err != nil {
		return fmt.Errorf("setting parking speed: %w", err)
	}
	if err := c.pilot.Travel(ctx, po.Creep); err != nil {
		return fmt.Errorf("creeping out: %w", err)
	}
	if err := c.pilot.Forward(ctx); err != nil {
		return fmt.Errorf("advancing to road: %w", err)
	}
	if _, err := c.waitForEdgeCrossings(ctx, 1, sensing.Front); err != nil {
		return fmt.Errorf("finding road edge: %w", err)
	}
	if err := c.pilot.Stop(ctx); err != nil {
		return err
	}

	turn := a.Side.Sign()*po.Angle + po.Correction
	if err := c.pilot.Rotate(ctx, turn); err != nil {
		return fmt.Errorf("turning onto road: %w", err)
	}
	return c.complete(nav.PulledOut)
}

// celebrate ends the run.
func (c *Controller) celebrate(ctx context.Context) error {
	if err := c.pilot.Stop(ctx); err != nil {
		c.logger.Warn("stopping drive failed", "error", err)
	}
	if err := c.sounder.PlayCompletion(ctx); err != nil {
		c.logger.Warn("completion cue failed", "error", err)
	}
	c.logger.Info("run complete")
	c.finish(nil)
	return nil
}

// complete reports an action's own event to the course and queues what
// comes next.
func (c *Controller) complete(kind nav.EventKind) error {
	evt := nav.NewEvent(kind)
	c.mu.Lock()
	c.lastEvent = &evt
	c.mu.Unlock()
	c.notify(func(o Observer) { o.OnEvent(evt) })

	if err := c.course.LogEvent(evt); err != nil {
		c.logger.Warn("course rejected event", "event", kind.String(), "error", err)
	}
	next := c.course.NextAction()
	c.logger.Debug("next action", "after", kind.String(), "action", next.String())
	c.submitAction(next)
	return nil
}

// sided mirrors a sweep profile onto one side of the robot.
func sided(sw config.SweepConfig, side float64) config.SweepConfig {
	sw.Start *= side
	sw.End *= side
	return sw
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
