package colour

import (
	"errors"
	"testing"
)

func testPalette(t *testing.T) *Palette {
	t.Helper()
	p, err := FromRGB(0.137254902, map[string][3]float64{
		"black":  {0.05, 0.05, 0.05},
		"white":  {0.95, 0.95, 0.95},
		"yellow": {0.85, 0.75, 0.15},
		"red":    {0.80, 0.12, 0.10},
		"blue":   {0.10, 0.20, 0.70},
		"grey":   {0.45, 0.45, 0.45},
	})
	if err != nil {
		t.Fatalf("FromRGB() error = %v", err)
	}
	return p
}

func TestPalette_Names_Sorted(t *testing.T) {
	p := testPalette(t)
	want := []string{"black", "blue", "grey", "red", "white", "yellow"}

	got := p.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestPalette_BestMatch(t *testing.T) {
	p := testPalette(t)

	tests := []struct {
		name    string
		reading Colour
		want    string
	}{
		{"exact grey", Must(0.45, 0.45, 0.45), "grey"},
		{"noisy red", Must(0.75, 0.2, 0.15), "red"},
		{"near white", Must(0.9, 0.88, 0.93), "white"},
		{"between grey and yellow", Must(0.65, 0.6, 0.3), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.BestMatch(tt.reading); got != tt.want {
				t.Errorf("BestMatch(%v) = %q, want %q", tt.reading, got, tt.want)
			}
		})
	}
}

func TestPalette_BestBlend(t *testing.T) {
	p := testPalette(t)
	// black, grey and white are collinear, so only one of black/white
	// can be told apart from a grey blend.
	candidates := []string{"black", "yellow", "blue", "red"}
	grey, _ := p.Get("grey")

	for _, name := range candidates {
		ref, _ := p.Get(name)
		reading := ref.Blend(grey, 0.6)

		got, err := p.BestBlend(candidates, "grey", reading)
		if err != nil {
			t.Fatalf("BestBlend() error = %v", err)
		}
		if got != name {
			t.Errorf("BestBlend(%s mixed with grey) = %q", name, got)
		}
	}
}

func TestPalette_BestBlend_Unknown(t *testing.T) {
	p := testPalette(t)

	if _, err := p.BestBlend([]string{"black"}, "purple", MidGrey); !errors.Is(err, ErrUnknownColour) {
		t.Errorf("unknown base error = %v, want ErrUnknownColour", err)
	}
	if _, err := p.BestBlend([]string{"mauve"}, "grey", MidGrey); !errors.Is(err, ErrUnknownColour) {
		t.Errorf("unknown candidate error = %v, want ErrUnknownColour", err)
	}
}

func TestPalette_SetReplaces(t *testing.T) {
	p := NewPalette(0.1)
	p.Set("road", Must(0.4, 0.4, 0.4))
	p.Set("road", Must(0.5, 0.5, 0.5))

	if n := len(p.Names()); n != 1 {
		t.Errorf("Names() length = %d, want 1", n)
	}
	got, err := p.Get("road")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != Must(0.5, 0.5, 0.5) {
		t.Errorf("Get() = %v", got)
	}
}

func TestFromRGB_Invalid(t *testing.T) {
	_, err := FromRGB(0.1, map[string][3]float64{"bad": {2, 0, 0}})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("FromRGB() error = %v, want ErrOutOfRange", err)
	}
}
