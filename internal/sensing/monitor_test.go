package sensing

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/colour"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

var (
	grey = colour.Must(0.30, 0.30, 0.30)
	red  = colour.Must(0.80, 0.12, 0.10)
	blue = colour.Must(0.10, 0.20, 0.70)
)

type mockColourSensor struct {
	mu  sync.Mutex
	c   colour.Colour
	err error
}

func (m *mockColourSensor) Colour() (colour.Colour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c, m.err
}

func (m *mockColourSensor) set(c colour.Colour) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = c
	m.err = nil
}

func (m *mockColourSensor) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type monitorFixture struct {
	left, right, front *mockColourSensor
	mon                *Monitor
	events             <-chan nav.Event
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	cfg := config.Default().Colour
	cfg.Period = time.Millisecond
	palette, err := colour.FromRGB(cfg.Tolerance, cfg.Palette)
	if err != nil {
		t.Fatalf("FromRGB() error = %v", err)
	}

	f := &monitorFixture{
		left:  &mockColourSensor{c: grey},
		right: &mockColourSensor{c: grey},
		front: &mockColourSensor{c: grey},
	}
	f.mon = NewMonitor(f.left, f.right, f.front, palette, cfg)
	_, f.events = f.mon.Subscribe()
	t.Cleanup(func() { f.mon.Terminate() }) //nolint:errcheck // Test cleanup
	return f
}

func waitEvent(t *testing.T, ch <-chan nav.Event, want nav.EventKind) nav.Event {
	t.Helper()
	select {
	case evt := <-ch:
		if evt.Kind != want {
			t.Fatalf("event = %s, want %s", evt.Kind, want)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
	return nav.Event{}
}

func expectNoEvent(t *testing.T, ch <-chan nav.Event, within time.Duration) {
	t.Helper()
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Kind)
	case <-time.After(within):
	}
}

func TestMonitor_AccessorsRequireRunning(t *testing.T) {
	f := newMonitorFixture(t)

	if _, err := f.mon.Colour(Left); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Colour() before Start error = %v, want ErrNotRunning", err)
	}

	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := f.mon.Colour(Left); err != nil {
		t.Errorf("Colour() while running error = %v", err)
	}
	if _, err := f.mon.Colour(SensorID(7)); !errors.Is(err, ErrUnknownSensor) {
		t.Errorf("Colour(7) error = %v, want ErrUnknownSensor", err)
	}

	if err := f.mon.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if _, err := f.mon.Match(Front); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Match() after Pause error = %v, want ErrNotRunning", err)
	}
}

func TestMonitor_Classification(t *testing.T) {
	f := newMonitorFixture(t)
	f.left.set(blue)

	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got, _ := f.mon.Match(Right); got != "grey" {
		t.Errorf("Match(Right) = %q, want grey", got)
	}
	if got, _ := f.mon.Match(Left); got != "blue" {
		t.Errorf("Match(Left) = %q, want blue", got)
	}

	blend, ratio, err := f.mon.BlendData(Left)
	if err != nil {
		t.Fatalf("BlendData() error = %v", err)
	}
	if blend != "blue" {
		t.Errorf("blend = %q, want blue", blend)
	}
	if ratio < 0.99 || ratio > 1.01 {
		t.Errorf("composition = %v, want 1", ratio)
	}
	if got := f.mon.RoadColour(); got != "grey" {
		t.Errorf("RoadColour() = %q, want grey", got)
	}
}

func TestMonitor_IntersectionRisingEdge(t *testing.T) {
	f := newMonitorFixture(t)
	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	expectNoEvent(t, f.events, 20*time.Millisecond)

	f.front.set(red)
	waitEvent(t, f.events, nav.IntersectionDetected)

	// Still over the mark: latched.
	expectNoEvent(t, f.events, 30*time.Millisecond)

	f.front.set(grey)
	time.Sleep(10 * time.Millisecond)
	f.front.set(red)
	waitEvent(t, f.events, nav.IntersectionDetected)
}

func TestMonitor_ParkingLot(t *testing.T) {
	tests := []struct {
		name   string
		sensor func(*monitorFixture) *mockColourSensor
		want   nav.EventKind
	}{
		{"left", func(f *monitorFixture) *mockColourSensor { return f.left }, nav.ParkingLotLeftDetected},
		{"right", func(f *monitorFixture) *mockColourSensor { return f.right }, nav.ParkingLotRightDetected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMonitorFixture(t)
			if err := f.mon.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			// Mostly blue over grey: a blend, not a palette match.
			tt.sensor(f).set(blue.Blend(grey, 0.65))
			waitEvent(t, f.events, tt.want)
			expectNoEvent(t, f.events, 20*time.Millisecond)
		})
	}
}

func TestMonitor_WeakBlendIgnored(t *testing.T) {
	f := newMonitorFixture(t)
	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.left.set(blue.Blend(grey, 0.3))
	expectNoEvent(t, f.events, 30*time.Millisecond)
}

func TestMonitor_SensorFaultUsesNeutralReading(t *testing.T) {
	f := newMonitorFixture(t)
	f.left.fail(errors.New("i2c timeout"))

	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	r, err := f.mon.Reading(Left)
	if err != nil {
		t.Fatalf("Reading() error = %v", err)
	}
	if !r.Fault {
		t.Error("Fault = false, want true")
	}
	if r.Colour != colour.MidGrey {
		t.Errorf("Colour = %v, want %v", r.Colour, colour.MidGrey)
	}

	f.left.set(grey)
	deadline := time.Now().Add(time.Second)
	for {
		r, _ = f.mon.Reading(Left)
		if !r.Fault {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sensor never recovered")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMonitor_TerminateClosesSubscriptions(t *testing.T) {
	f := newMonitorFixture(t)
	if err := f.mon.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.mon.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}

	select {
	case _, ok := <-f.events:
		if ok {
			t.Error("received event after Terminate, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed by Terminate")
	}

	if err := f.mon.Start(); err == nil {
		t.Error("Start() after Terminate succeeded, want error")
	}
}
