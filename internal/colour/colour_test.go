package colour

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func TestNew_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		wantErr bool
	}{
		{"black", 0, 0, 0, false},
		{"white", 1, 1, 1, false},
		{"negative red", -0.01, 0, 0, true},
		{"green above one", 0, 1.01, 0, true},
		{"NaN blue", 0, 0, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.r, tt.g, tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Errorf("New() error = %v, want ErrOutOfRange", err)
				}
				return
			}
			if err != nil {
				t.Errorf("New() unexpected error = %v", err)
			}
		})
	}
}

func TestClamped(t *testing.T) {
	c := Clamped(-0.5, 0.3, 1.7)
	if c.R() != 0 || c.G() != 0.3 || c.B() != 1 {
		t.Errorf("Clamped() = %v", c)
	}
}

func TestBlend_Endpoints(t *testing.T) {
	red := Must(0.8, 0.1, 0.1)
	grey := Must(0.4, 0.4, 0.4)

	if got := red.Blend(grey, 1); got != red {
		t.Errorf("Blend(ratio=1) = %v, want %v", got, red)
	}
	if got := red.Blend(grey, 0); got != grey {
		t.Errorf("Blend(ratio=0) = %v, want %v", got, grey)
	}

	mid := red.Blend(grey, 0.5)
	if math.Abs(mid.R()-0.6) > eps || math.Abs(mid.G()-0.25) > eps {
		t.Errorf("Blend(0.5) = %v", mid)
	}
}

func TestComposition_RoundTrip(t *testing.T) {
	pairs := []struct {
		name   string
		c1, c2 Colour
	}{
		{"yellow over grey", Must(0.85, 0.75, 0.15), Must(0.45, 0.45, 0.45)},
		{"blue over black", Must(0.1, 0.2, 0.7), Must(0.05, 0.05, 0.05)},
		{"one shared channel", Must(0.9, 0.5, 0.1), Must(0.1, 0.5, 0.9)},
		{"two shared channels", Must(0.3, 0.3, 0.9), Must(0.3, 0.3, 0.2)},
	}
	ratios := []float64{0, 0.1, 0.25, 0.5, 0.73, 0.9, 1}

	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			for _, r := range ratios {
				got := p.c1.Blend(p.c2, r).Composition(p.c1, p.c2)
				if math.Abs(got-r) > 1e-9 {
					t.Errorf("ratio %v: Composition = %v", r, got)
				}
			}
		})
	}
}

func TestComposition_IdenticalReferences(t *testing.T) {
	grey := Must(0.5, 0.5, 0.5)
	if got := Must(0.2, 0.9, 0.4).Composition(grey, grey); got != 1 {
		t.Errorf("Composition(identical) = %v, want 1", got)
	}
}

func TestReverseBlend(t *testing.T) {
	road := Must(0.4, 0.4, 0.4)
	yellow := Must(0.8, 0.7, 0.2)
	mixed := yellow.Blend(road, 0.5)

	got, err := road.ReverseBlend(mixed)
	if err != nil {
		t.Fatalf("ReverseBlend() error = %v", err)
	}
	if Distance(got, yellow) > 1e-9 {
		t.Errorf("ReverseBlend() = %v, want %v", got, yellow)
	}

	if _, err := Must(1, 1, 1).ReverseBlend(Must(0.1, 0.1, 0.1)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReverseBlend() error = %v, want ErrOutOfRange", err)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(Must(0, 0, 0), Must(1, 1, 1)); math.Abs(got-math.Sqrt(3)) > eps {
		t.Errorf("Distance(black, white) = %v, want sqrt(3)", got)
	}
	if got := Distance(Must(0.3, 0.3, 0.3), Must(0.3, 0.3, 0.3)); got != 0 {
		t.Errorf("Distance(same) = %v, want 0", got)
	}
}

func TestParseString(t *testing.T) {
	c := Must(0.25, 0.5, 1)
	got, err := Parse(c.String())
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", c.String(), err)
	}
	if got != c {
		t.Errorf("Parse() = %v, want %v", got, c)
	}

	for _, bad := range []string{"0.1, 0.2, 0.3", "[0.1, 0.2]", "[a, b, c]", "[0.1, 0.2, 2]"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}
