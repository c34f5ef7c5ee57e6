package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
	"github.com/nerrad567/parkrunner-core/internal/steering"
)

type fakeCalibrationStore struct {
	res sensing.CalibrationResult
	err error
}

func (s *fakeCalibrationStore) Save(context.Context, sensing.CalibrationResult) error { return nil }

func (s *fakeCalibrationStore) Load(context.Context) (sensing.CalibrationResult, error) {
	return s.res, s.err
}

type gainRecorder struct{ set []steering.Gains }

func (g *gainRecorder) SetGains(v steering.Gains) { g.set = append(g.set, v) }

func TestLoadPalette(t *testing.T) {
	cfg := config.Default().Colour
	ctx := context.Background()

	t.Run("configured palette without calibration", func(t *testing.T) {
		applied := 0
		store := &fakeCalibrationStore{err: sensing.ErrNoCalibration}
		p, err := loadPalette(ctx, cfg, store, func(sensing.SensorID, sensing.Calibration) { applied++ }, nopLogger{})
		if err != nil {
			t.Fatalf("loadPalette() error = %v", err)
		}
		if applied != 0 {
			t.Errorf("applied %d calibrations, want 0", applied)
		}
		red, err := p.Get("red")
		if err != nil {
			t.Fatalf("Get(red) error = %v", err)
		}
		if red.RGB() != cfg.Palette["red"] {
			t.Errorf("red = %v, want %v", red.RGB(), cfg.Palette["red"])
		}
	})

	t.Run("stored calibration overrides", func(t *testing.T) {
		store := &fakeCalibrationStore{res: sensing.CalibrationResult{
			References: map[sensing.SensorID]sensing.Calibration{
				sensing.Left:  {White: [3]float64{1, 1, 1}},
				sensing.Right: {White: [3]float64{1, 1, 1}},
			},
			Palette: map[string][3]float64{"red": {0.7, 0.2, 0.2}},
		}}
		got := map[sensing.SensorID]bool{}
		p, err := loadPalette(ctx, cfg, store, func(id sensing.SensorID, _ sensing.Calibration) { got[id] = true }, nopLogger{})
		if err != nil {
			t.Fatalf("loadPalette() error = %v", err)
		}
		if !got[sensing.Left] || !got[sensing.Right] || got[sensing.Front] {
			t.Errorf("applied = %v, want left and right", got)
		}
		red, _ := p.Get("red") //nolint:errcheck // Checked by value
		if red.RGB() != [3]float64{0.7, 0.2, 0.2} {
			t.Errorf("red = %v, want stored value", red.RGB())
		}
		if _, err := p.Get("blue"); err != nil {
			t.Errorf("configured colour lost: %v", err)
		}
		if cfg.Palette["red"] == [3]float64{0.7, 0.2, 0.2} {
			t.Error("configured palette was modified")
		}
	})

	t.Run("store error", func(t *testing.T) {
		store := &fakeCalibrationStore{err: errors.New("locked")}
		if _, err := loadPalette(ctx, cfg, store, func(sensing.SensorID, sensing.Calibration) {}, nopLogger{}); err == nil {
			t.Error("loadPalette() expected error")
		}
	})
}

func TestLoadGains(t *testing.T) {
	stored := steering.Gains{P: 2, I: 1, D: 0.1}

	tests := []struct {
		name    string
		store   *fakeGainStore
		wantSet int
		wantErr bool
	}{
		{"nothing stored", &fakeGainStore{}, 0, false},
		{"stored gains applied", &fakeGainStore{stored: &stored}, 1, false},
		{"store error", &fakeGainStore{loadErr: errors.New("locked")}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &gainRecorder{}
			err := loadGains(context.Background(), rec, tt.store, nopLogger{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadGains() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rec.set) != tt.wantSet {
				t.Fatalf("SetGains called %d times, want %d", len(rec.set), tt.wantSet)
			}
			if tt.wantSet == 1 && rec.set[0] != stored {
				t.Errorf("SetGains(%+v), want %+v", rec.set[0], stored)
			}
		})
	}
}

func TestBuildCourse_FollowOnly(t *testing.T) {
	cfg := config.Default()
	crs, planned, err := buildCourse(cfg, &runOptions{followOnly: true}, logging.Default())
	if err != nil {
		t.Fatalf("buildCourse() error = %v", err)
	}
	if planned != nil {
		t.Error("follow-only run should have no plan")
	}
	if crs == nil {
		t.Fatal("course is nil")
	}
}

func TestBuildCourse_Mission(t *testing.T) {
	cfg := config.Default()
	course, mission := writeCourse(t)
	cfg.Course = course

	crs, planned, err := buildCourse(cfg, &runOptions{mission: mission}, logging.Default())
	if err != nil {
		t.Fatalf("buildCourse() error = %v", err)
	}
	if planned == nil || len(planned.plan.Nodes) != 8 {
		t.Fatalf("planned = %+v", planned)
	}
	if crs.NextAction().Kind() != nav.KindPullout {
		t.Errorf("first action = %v, want pullout", crs.NextAction())
	}
}

type fakeHealth struct {
	err   error
	calls int
}

func (f *fakeHealth) HealthCheck(context.Context) error {
	f.calls++
	return f.err
}

func TestHealthCheck(t *testing.T) {
	errDown := errors.New("broker unreachable")

	t.Run("all healthy", func(t *testing.T) {
		db, broker := &fakeHealth{}, &fakeHealth{}
		if err := healthCheck(context.Background(), dependency{"database", db}, dependency{"mqtt", broker}); err != nil {
			t.Fatalf("healthCheck() error = %v", err)
		}
		if db.calls != 1 || broker.calls != 1 {
			t.Errorf("calls = (%d, %d), want one each", db.calls, broker.calls)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		broker, influx := &fakeHealth{err: errDown}, &fakeHealth{}
		err := healthCheck(context.Background(), dependency{"mqtt", broker}, dependency{"influxdb", influx})
		if !errors.Is(err, errDown) || !strings.Contains(err.Error(), "mqtt") {
			t.Errorf("healthCheck() error = %v, want mqtt failure", err)
		}
		if influx.calls != 0 {
			t.Errorf("influxdb checked after an earlier failure")
		}
	})

	t.Run("real database", func(t *testing.T) {
		db, err := openDatabase(context.Background(), config.DatabaseConfig{Path: ":memory:"}, logging.Default())
		if err != nil {
			t.Fatalf("openDatabase() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if err := healthCheck(context.Background(), dependency{"database", db}); err != nil {
			t.Errorf("healthCheck() error = %v", err)
		}
	})
}
