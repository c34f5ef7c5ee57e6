package steering

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/daemon"
	"github.com/nerrad567/parkrunner-core/internal/drive"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// BlendSource supplies blend ratios per side sensor.
type BlendSource interface {
	BlendComposition(id sensing.SensorID) (float64, error)
}

// Gains are the controller weights.
type Gains struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
}

// Sample is one control cycle, reported to a SampleRecorder.
type Sample struct {
	AngularError    float64
	PositionError   float64
	DerivativeError float64
	Steer           float64
	Speed           float64
	At              time.Time
}

// SampleRecorder receives every control cycle.
type SampleRecorder interface {
	RecordSteering(s Sample)
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Follower is the line-following daemon.
//
// Thread Safety:
//   - Gains, max speed and glue may be changed from any goroutine while
//     following; each cycle reads a consistent snapshot.
//   - Derivative state belongs to the daemon task.
type Follower struct {
	source   BlendSource
	pilot    drive.Pilot
	cfg      config.SteeringConfig
	topSpeed float64
	logger   Logger

	mu       sync.Mutex
	gains    Gains
	maxSpeed float64
	glue     Glue
	recorder SampleRecorder

	angular    derivative
	angularDer derivative
	resetting  atomic.Bool
	closing    atomic.Bool

	daemon *daemon.Daemon
}

// NewFollower creates a stopped follower.
//
// Parameters:
//   - source: Blend ratios, normally the colour monitor
//   - pilot: Drive base receiving steer and speed commands
//   - cfg: Initial gains, trust parameter, slowdown and period
//   - topSpeed: Cruise speed in m/s
//
// Returns:
//   - *Follower: Stopped follower with no external speed limit
func NewFollower(source BlendSource, pilot drive.Pilot, cfg config.SteeringConfig, topSpeed float64) *Follower {
	f := &Follower{
		source:     source,
		pilot:      pilot,
		cfg:        cfg,
		topSpeed:   topSpeed,
		logger:     noopLogger{},
		gains:      Gains{P: cfg.P, I: cfg.I, D: cfg.D},
		maxSpeed:   math.Inf(1),
		angular:    derivative{now: time.Now},
		angularDer: derivative{now: time.Now},
	}
	f.daemon = daemon.New("follower", f.cycle, daemon.WithInterval(cfg.Period))
	return f
}

// SetLogger sets the logger. Call before Start.
func (f *Follower) SetLogger(l Logger) {
	if l != nil {
		f.logger = l
	}
}

// SetRecorder sets where control samples are reported.
func (f *Follower) SetRecorder(r SampleRecorder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorder = r
}

// Start resets the derivative history and begins following.
func (f *Follower) Start() error {
	if f.daemon.IsRunning() {
		return nil
	}
	f.resetting.Store(true)
	f.logger.Debug("line following started")
	return f.daemon.Start()
}

// Stop stops steering. The robot keeps whatever motion it had.
func (f *Follower) Stop() error {
	return f.daemon.Pause()
}

// IsFollowing reports whether the follower is cycling.
func (f *Follower) IsFollowing() bool {
	return f.daemon.IsRunning()
}

// Terminate stops the follower permanently without a final steer command.
func (f *Follower) Terminate() error {
	f.closing.Store(true)
	return f.daemon.Terminate()
}

// SetMaxSpeed imposes an upper speed bound; +Inf removes it.
func (f *Follower) SetMaxSpeed(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxSpeed = v
}

// MaxSpeed returns the imposed upper speed bound.
func (f *Follower) MaxSpeed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSpeed
}

// SetGlue selects the glue override applied from the next cycle.
func (f *Follower) SetGlue(g Glue) {
	f.mu.Lock()
	f.glue = g
	f.mu.Unlock()
	f.logger.Info("steering glue set", "glue", g.String())
}

// Glue returns the active glue override.
func (f *Follower) Glue() Glue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glue
}

// Gains returns the current controller weights.
func (f *Follower) Gains() Gains {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gains
}

// SetGains replaces the controller weights.
func (f *Follower) SetGains(g Gains) {
	f.mu.Lock()
	f.gains = g
	f.mu.Unlock()
	f.logger.Info("steering gains set", "p", g.P, "i", g.I, "d", g.D)
}

// Tune nudges one term by steps × the configured tuning step.
//
// Parameters:
//   - term: "p", "i" or "d" (case-insensitive)
//   - steps: Signed number of increments
//
// Returns:
//   - Gains: The gains after the change
//   - error: ErrUnknownTerm for any other term
func (f *Follower) Tune(term string, steps int) (Gains, error) {
	delta := float64(steps) * f.cfg.TuningStep

	f.mu.Lock()
	switch strings.ToLower(term) {
	case "p":
		f.gains.P += delta
	case "i":
		f.gains.I += delta
	case "d":
		f.gains.D += delta
	default:
		f.mu.Unlock()
		return Gains{}, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	g := f.gains
	f.mu.Unlock()

	f.logger.Info("steering gain tuned", "term", term, "steps", steps, "p", g.P, "i", g.I, "d", g.D)
	return g, nil
}

func (f *Follower) cycle() {
	if f.closing.Load() {
		return
	}
	if f.resetting.Swap(false) {
		f.angular.reset()
		f.angularDer.reset()
	}

	left, err := f.source.BlendComposition(sensing.Left)
	if err != nil {
		f.logger.Debug("follower skipped cycle", "error", err)
		return
	}
	right, err := f.source.BlendComposition(sensing.Right)
	if err != nil {
		f.logger.Debug("follower skipped cycle", "error", err)
		return
	}

	f.mu.Lock()
	gains, maxSpeed, glue, rec := f.gains, f.maxSpeed, f.glue, f.recorder
	f.mu.Unlock()

	errL, errR := applyGlue(glue, SignedError(left), SignedError(right))

	angular := -f.angular.next(errL - errR)
	angularDer := -f.angularDer.next(angular)
	position := PositionError(errL, errR, f.cfg.TrustK)

	steer := -(angular*gains.P + position*gains.I + angularDer*gains.D)
	if err := f.pilot.Steer(steer); err != nil {
		f.logger.Warn("steer command failed", "error", err)
	}

	speed := SoftSpeed(maxSpeed, f.topSpeed, f.cfg.Slowdown, position)
	if f.pilot.TravelSpeed() != speed {
		if err := f.pilot.SetTravelSpeed(speed); err != nil {
			f.logger.Warn("speed command failed", "error", err)
		}
	}

	if rec != nil {
		rec.RecordSteering(Sample{
			AngularError:    angular,
			PositionError:   position,
			DerivativeError: angularDer,
			Steer:           steer,
			Speed:           speed,
			At:              time.Now(),
		})
	}
}
