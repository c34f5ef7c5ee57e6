package sensing

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/nerrad567/parkrunner-core/internal/daemon"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// RangeRecorder receives every distance the sonar measures.
type RangeRecorder interface {
	RecordRange(angle, distance float64)
}

// Sonar is the collision-avoidance daemon around a rotating rangefinder.
//
// The daemon cycle reads straight ahead and publishes approaching_object
// whenever an obstacle inside the alert threshold moves, and all_clear
// once the path opens again. Sweep borrows the rangefinder for an angular
// scan; the daemon is paused for its duration.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Sonar struct {
	rf     Rangefinder
	cfg    config.SonarConfig
	logger Logger

	// rfMu gives one caller at a time the motor and sensor.
	rfMu sync.Mutex

	mu        sync.Mutex
	threshold float64
	last      float64
	state     nav.EventKind
	recorder  RangeRecorder

	bus    *nav.Bus
	daemon *daemon.Daemon
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSonar creates a paused sonar daemon.
func NewSonar(rf Rangefinder, cfg config.SonarConfig) *Sonar {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sonar{
		rf:        rf,
		cfg:       cfg,
		logger:    noopLogger{},
		threshold: cfg.AlertThreshold,
		last:      math.NaN(),
		state:     nav.AllClear,
		bus:       nav.NewBus(),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.daemon = daemon.New("sonar", s.cycle, daemon.WithInterval(cfg.Period))
	return s
}

// SetLogger sets the logger. Call before Start.
func (s *Sonar) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetRecorder sets where measured distances are reported.
func (s *Sonar) SetRecorder(r RangeRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// SetAlertThreshold changes the approaching_object distance.
func (s *Sonar) SetAlertThreshold(metres float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = metres
}

// AlertThreshold returns the approaching_object distance.
func (s *Sonar) AlertThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// Start takes one reading and begins cycling.
func (s *Sonar) Start() error { return s.daemon.Start() }

// Pause stops cycling.
func (s *Sonar) Pause() error { return s.daemon.Pause() }

// IsRunning reports whether the sonar is cycling.
func (s *Sonar) IsRunning() bool { return s.daemon.IsRunning() }

// Terminate stops the daemon. Its final cycle returns the sensor to
// straight ahead.
func (s *Sonar) Terminate() error {
	err := s.daemon.Terminate()
	s.cancel()
	s.bus.Close()
	return err
}

// Subscribe returns a channel of collision events.
func (s *Sonar) Subscribe() (nav.SubscriberID, <-chan nav.Event) { return s.bus.Subscribe() }

// Unsubscribe cancels a subscription.
func (s *Sonar) Unsubscribe(id nav.SubscriberID) { s.bus.Unsubscribe(id) }

// DistanceAt points the sensor at angle degrees (positive right) and
// returns the distance in metres.
func (s *Sonar) DistanceAt(ctx context.Context, angle float64) (float64, error) {
	s.rfMu.Lock()
	defer s.rfMu.Unlock()

	target := s.cfg.GearRatio*(-angle) + s.cfg.ZeroOffset
	if err := s.rf.RotateTo(ctx, math.Round(target)); err != nil {
		return 0, fmt.Errorf("rotating sonar to %.0f°: %w", angle, err)
	}
	d, err := s.rf.Distance(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading sonar at %.0f°: %w", angle, err)
	}

	s.mu.Lock()
	rec := s.recorder
	s.mu.Unlock()
	if rec != nil {
		rec.RecordRange(angle, d)
	}
	return d, nil
}

func (s *Sonar) cycle() {
	d, err := s.DistanceAt(s.ctx, 0)
	if err != nil {
		s.logger.Debug("sonar read failed", "error", err)
		return
	}

	s.mu.Lock()
	changed := d != s.last
	s.last = d
	threshold := s.threshold

	var evt *nav.Event
	switch {
	case d < threshold && changed:
		e := nav.Approaching(d)
		evt = &e
		s.state = nav.ApproachingObject
	case d >= threshold && s.state != nav.AllClear:
		e := nav.NewEvent(nav.AllClear)
		evt = &e
		s.state = nav.AllClear
	}
	s.mu.Unlock()

	if evt != nil {
		s.logger.Debug("sonar event", "event", evt.String())
		s.bus.Publish(*evt)
	}
}

// Sweep scans from sw.Start to sw.End degrees in sw.Increment steps and
// reports whether every reading is at least sw.Threshold metres. It stops
// at the first blocked reading. The daemon is paused for the scan and
// resumed afterwards if it was running.
func (s *Sonar) Sweep(ctx context.Context, sw config.SweepConfig) (bool, error) {
	wasRunning := s.daemon.IsRunning()
	if wasRunning {
		if err := s.daemon.Pause(); err != nil {
			return false, err
		}
		defer func() {
			if err := s.daemon.Start(); err != nil {
				s.logger.Warn("resuming sonar after sweep failed", "error", err)
			}
		}()
	}

	for _, angle := range SweepAngles(sw.Start, sw.End, sw.Increment) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		d, err := s.DistanceAt(ctx, angle)
		if err != nil {
			return false, err
		}
		if d < sw.Threshold {
			s.logger.Debug("sweep blocked", "angle", angle, "distance", d, "threshold", sw.Threshold)
			return false, nil
		}
	}
	s.logger.Debug("sweep clear", "start", sw.Start, "end", sw.End)
	return true, nil
}

// SweepAngles lists the angles visited from start to end in steps of
// increment. The end angle is always the final sample.
func SweepAngles(start, end, increment float64) []float64 {
	if increment <= 0 {
		return []float64{start, end}
	}
	sign := 1.0
	if end < start {
		sign = -1
	}

	var out []float64
	for a := start; sign*(end-a) > 1e-9; a += sign * increment {
		out = append(out, a)
	}
	return append(out, end)
}
