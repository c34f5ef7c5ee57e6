package sensing

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/colour"
	"github.com/nerrad567/parkrunner-core/internal/daemon"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Reading is one classified sample from a colour sensor.
type Reading struct {
	Colour colour.Colour
	// Match is the palette colour within tolerance, or "".
	Match string
	// Blend is the candidate that, mixed with the road colour, best explains Colour.
	Blend string
	// Composition is the share of Blend in the mix (1 = all Blend, 0 = all road).
	Composition float64
	// Fault is set when the driver failed and Colour is the neutral substitute.
	Fault bool
	At    time.Time
}

type slot struct {
	mu      sync.RWMutex
	reading Reading
}

// Monitor is the colour sensor fusion daemon.
//
// Thread Safety:
//   - Accessors and lifecycle methods are safe for concurrent use.
//   - Latches and fault counters are touched only by the daemon task.
type Monitor struct {
	sensors [numSensors]ColourSensor
	palette *colour.Palette
	cfg     config.ColourConfig
	logger  Logger

	slots   [numSensors]slot
	latches [numSensors]bool
	faults  [numSensors]int

	bus    *nav.Bus
	daemon *daemon.Daemon
}

// NewMonitor creates a paused monitor.
//
// Parameters:
//   - left, right, front: Calibrated colour sensor drivers
//   - palette: Reference colours; must contain every name cfg refers to
//   - cfg: Colour roles and thresholds
//
// Returns:
//   - *Monitor: Paused monitor; call Start before using the accessors
func NewMonitor(left, right, front ColourSensor, palette *colour.Palette, cfg config.ColourConfig) *Monitor {
	m := &Monitor{
		sensors: [numSensors]ColourSensor{left, right, front},
		palette: palette,
		cfg:     cfg,
		logger:  noopLogger{},
		bus:     nav.NewBus(),
	}
	m.daemon = daemon.New("monitor", m.cycle, daemon.WithInterval(cfg.Period))
	return m
}

// SetLogger sets the logger. Call before Start.
func (m *Monitor) SetLogger(l Logger) {
	if l != nil {
		m.logger = l
	}
}

// Start reads all sensors once and begins cycling.
func (m *Monitor) Start() error { return m.daemon.Start() }

// Pause stops cycling; accessors return ErrNotRunning until the next Start.
func (m *Monitor) Pause() error { return m.daemon.Pause() }

// Terminate stops the monitor permanently and closes subscriber channels.
func (m *Monitor) Terminate() error {
	err := m.daemon.Terminate()
	m.bus.Close()
	return err
}

// IsRunning reports whether the monitor is cycling.
func (m *Monitor) IsRunning() bool { return m.daemon.IsRunning() }

// Subscribe returns a channel of monitor events.
func (m *Monitor) Subscribe() (nav.SubscriberID, <-chan nav.Event) { return m.bus.Subscribe() }

// Unsubscribe cancels a subscription.
func (m *Monitor) Unsubscribe(id nav.SubscriberID) { m.bus.Unsubscribe(id) }

// Reading returns the latest classified reading of one sensor.
func (m *Monitor) Reading(id SensorID) (Reading, error) {
	if !id.valid() {
		return Reading{}, fmt.Errorf("%w: %d", ErrUnknownSensor, int(id))
	}
	if !m.daemon.IsRunning() {
		return Reading{}, ErrNotRunning
	}
	s := &m.slots[id]
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading, nil
}

// Colour returns the latest calibrated colour of one sensor.
func (m *Monitor) Colour(id SensorID) (colour.Colour, error) {
	r, err := m.Reading(id)
	return r.Colour, err
}

// Match returns the palette match of one sensor ("" for none).
func (m *Monitor) Match(id SensorID) (string, error) {
	r, err := m.Reading(id)
	return r.Match, err
}

// Blend returns the best blend partner of one sensor.
func (m *Monitor) Blend(id SensorID) (string, error) {
	r, err := m.Reading(id)
	return r.Blend, err
}

// BlendComposition returns the blend ratio of one sensor.
func (m *Monitor) BlendComposition(id SensorID) (float64, error) {
	r, err := m.Reading(id)
	return r.Composition, err
}

// BlendData returns blend partner and ratio from the same sample.
func (m *Monitor) BlendData(id SensorID) (string, float64, error) {
	r, err := m.Reading(id)
	return r.Blend, r.Composition, err
}

// RoadColour returns the palette name of the road.
func (m *Monitor) RoadColour() string {
	return m.cfg.Road
}

func (m *Monitor) cycle() {
	var fresh [numSensors]Reading
	for _, id := range AllSensors {
		fresh[id] = m.classify(id)

		s := &m.slots[id]
		s.mu.Lock()
		s.reading = fresh[id]
		s.mu.Unlock()
	}

	m.checkIntersection(fresh[Front])
	m.checkParking(Left, fresh[Left], nav.ParkingLotLeftDetected)
	m.checkParking(Right, fresh[Right], nav.ParkingLotRightDetected)
}

func (m *Monitor) classify(id SensorID) Reading {
	r := Reading{At: time.Now()}

	c, err := m.sensors[id].Colour()
	if err != nil {
		m.faults[id]++
		if m.faults[id] == 1 {
			m.logger.Warn("colour sensor read failed, using neutral reading", "sensor", id.String(), "error", err)
		}
		c = colour.MidGrey
		r.Fault = true
	} else if m.faults[id] > 0 {
		m.logger.Info("colour sensor recovered", "sensor", id.String(), "failed_reads", m.faults[id])
		m.faults[id] = 0
	}

	r.Colour = c
	r.Match = m.palette.BestMatch(c)

	blend, err := m.palette.BestBlend(m.cfg.BlendCandidates, m.cfg.Road, c)
	if err != nil {
		m.logger.Error("blend classification failed", "sensor", id.String(), "error", err)
		return r
	}
	r.Blend = blend
	if blend == "" {
		return r
	}

	partner, err := m.palette.Get(blend)
	if err != nil {
		return r
	}
	road, err := m.palette.Get(m.cfg.Road)
	if err != nil {
		return r
	}
	r.Composition = c.Composition(partner, road)
	return r
}

func (m *Monitor) checkIntersection(front Reading) {
	over := front.Colour.R() > m.cfg.IntersectionThreshold
	m.edge(Front, over, nav.IntersectionDetected)
}

func (m *Monitor) checkParking(id SensorID, r Reading, kind nav.EventKind) {
	parking := m.cfg.Parking
	seen := r.Match == parking || (r.Blend == parking && r.Composition > m.cfg.MinimumBlend)
	m.edge(id, seen, kind)
}

// edge publishes kind on the rising edge of cond for one sensor's latch.
func (m *Monitor) edge(id SensorID, cond bool, kind nav.EventKind) {
	if !cond {
		m.latches[id] = false
		return
	}
	if m.latches[id] {
		return
	}
	m.latches[id] = true
	m.logger.Debug("sensor event", "sensor", id.String(), "event", kind.String())
	m.bus.Publish(nav.NewEvent(kind))
}
