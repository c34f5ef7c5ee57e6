package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// mockMonitor alternates every sensor between road and white on each
// Match call, so any edge wait is satisfied by its second poll.
type mockMonitor struct {
	*nav.Bus
	mu     sync.Mutex
	calls  map[sensing.SensorID]int
	starts int
	err    error
}

func newMockMonitor() *mockMonitor {
	return &mockMonitor{Bus: nav.NewBus(), calls: make(map[sensing.SensorID]int)}
}

func (m *mockMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return nil
}

func (m *mockMonitor) Match(id sensing.SensorID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.calls[id]++
	if m.calls[id]%2 == 0 {
		return "white", nil
	}
	return "grey", nil
}

func (m *mockMonitor) RoadColour() string { return "grey" }

type mockSonar struct {
	*nav.Bus
	mu        sync.Mutex
	results   []bool
	sweeps    []config.SweepConfig
	gate      chan struct{}
	threshold float64
	starts    int
	pauses    int
}

func newMockSonar() *mockSonar {
	return &mockSonar{Bus: nav.NewBus()}
}

func (m *mockSonar) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return nil
}

func (m *mockSonar) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return nil
}

func (m *mockSonar) SetAlertThreshold(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = v
}

// Sweep pops the next scripted result (clear once the script is empty),
// waiting on gate first if set.
func (m *mockSonar) Sweep(ctx context.Context, sw config.SweepConfig) (bool, error) {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps = append(m.sweeps, sw)
	if len(m.results) == 0 {
		return true, nil
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r, nil
}

func (m *mockSonar) sweepLog() []config.SweepConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]config.SweepConfig(nil), m.sweeps...)
}

type mockFollower struct {
	mu        sync.Mutex
	following bool
	maxSpeed  float64
	starts    int
	stops     int
}

func newMockFollower() *mockFollower {
	return &mockFollower{maxSpeed: math.Inf(1)}
}

func (m *mockFollower) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.following = true
	m.starts++
	return nil
}

func (m *mockFollower) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.following = false
	m.stops++
	return nil
}

func (m *mockFollower) IsFollowing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.following
}

func (m *mockFollower) SetMaxSpeed(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSpeed = v
}

func (m *mockFollower) max() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxSpeed
}

// mockPilot logs every command as text.
type mockPilot struct {
	mu        sync.Mutex
	calls     []string
	speed     float64
	travelErr error
	travelFor time.Duration
}

func (m *mockPilot) log(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockPilot) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockPilot) Steer(float64) error { return nil }

func (m *mockPilot) SetTravelSpeed(v float64) error {
	m.log("speed %g", v)
	m.mu.Lock()
	m.speed = v
	m.mu.Unlock()
	return nil
}

func (m *mockPilot) TravelSpeed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

func (m *mockPilot) Travel(ctx context.Context, d float64) error {
	m.log("travel %g", d)
	m.mu.Lock()
	err, wait := m.travelErr, m.travelFor
	m.mu.Unlock()
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *mockPilot) Rotate(_ context.Context, deg float64) error {
	m.log("rotate %g", deg)
	return nil
}

func (m *mockPilot) Arc(_ context.Context, r, deg float64) error {
	m.log("arc %g %g", r, deg)
	return nil
}

func (m *mockPilot) Forward(context.Context) error  { m.log("forward"); return nil }
func (m *mockPilot) Backward(context.Context) error { m.log("backward"); return nil }
func (m *mockPilot) Stop(context.Context) error     { m.log("stop"); return nil }
func (m *mockPilot) IsMoving() bool                 { return false }

type mockSounder struct {
	mu          sync.Mutex
	beeps       int
	completions int
}

func (m *mockSounder) Beep(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beeps++
	return nil
}

func (m *mockSounder) PlayCompletion(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions++
	return nil
}

func (m *mockSounder) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beeps, m.completions
}

// recordingObserver collects what the controller reports.
type recordingObserver struct {
	mu       sync.Mutex
	actions  []nav.ActionKind
	events   []nav.EventKind
	failures int
	finished []error
}

func (r *recordingObserver) OnEvent(evt nav.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt.Kind)
}

func (r *recordingObserver) OnAction(a nav.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a.Kind())
}

func (r *recordingObserver) OnActionDone(_ nav.Action, _ time.Duration, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *recordingObserver) OnFinish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, err)
}

func (r *recordingObserver) actionLog() []nav.ActionKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nav.ActionKind(nil), r.actions...)
}

func (r *recordingObserver) eventLog() []nav.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nav.EventKind(nil), r.events...)
}

// fixedTurns returns the same angle for every turn.
type fixedTurns int

func (f fixedTurns) TurnAngle(_, _, _ string) (int, error) { return int(f), nil }

var errMotorStalled = errors.New("motor stalled")
