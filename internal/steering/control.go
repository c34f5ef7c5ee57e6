package steering

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// SignedError maps a blend ratio in [0, 1] onto [-1, 1].
func SignedError(ratio float64) float64 {
	return 2 * (ratio - 0.5)
}

// Trust is 1 - 1/(1+e^(-x/k)): close to 1 for strongly negative x,
// 0.5 at zero and falling towards 0 as x grows.
func Trust(x, k float64) float64 {
	return 1 - 1/(1+math.Exp(-x/k))
}

// PositionError fuses left and right errors, weighting each by its trust.
func PositionError(left, right, k float64) float64 {
	tl := Trust(left, k)
	tr := Trust(right, k)
	return 2 / (tl + tr) * (left*tl - right*tr)
}

// Glue pins one side's error while a manoeuvre expects a false edge there.
type Glue int

// Glue modes.
const (
	GlueNone Glue = iota
	// GlueLeft pins the right error to neutral and doubles the left.
	GlueLeft
	// GlueRight pins the left error to neutral and doubles the right.
	GlueRight
)

func (g Glue) String() string {
	switch g {
	case GlueLeft:
		return "left"
	case GlueRight:
		return "right"
	default:
		return "none"
	}
}

// ParseGlue parses "none", "left" or "right". An empty string is none.
func ParseGlue(s string) (Glue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return GlueNone, nil
	case "left":
		return GlueLeft, nil
	case "right":
		return GlueRight, nil
	default:
		return GlueNone, fmt.Errorf("%w: %q", ErrUnknownGlue, s)
	}
}

// applyGlue returns the errors after the glue override.
func applyGlue(g Glue, left, right float64) (float64, float64) {
	switch g {
	case GlueLeft:
		return left * 2, 0
	case GlueRight:
		return 0, right * 2
	default:
		return left, right
	}
}

// derivative estimates dv/dt in units per second between consecutive
// samples. The first sample after reset yields 0.
type derivative struct {
	now    func() time.Time
	last   float64
	lastAt time.Time
	primed bool
}

func (d *derivative) reset() {
	d.primed = false
}

func (d *derivative) next(v float64) float64 {
	t := d.now()
	if !d.primed {
		d.last, d.lastAt, d.primed = v, t, true
		return 0
	}
	dt := t.Sub(d.lastAt).Seconds()
	if dt <= 0 {
		return 0
	}
	out := (v - d.last) / dt
	d.last, d.lastAt = v, t
	return out
}

// SoftSpeed is the travel speed for a cycle: the top speed reduced by
// slowdown×|positionError| (error capped at 1), never above maxSpeed.
func SoftSpeed(maxSpeed, top, slowdown, positionError float64) float64 {
	e := math.Min(math.Abs(positionError), 1)
	return math.Min(maxSpeed, top*(1-slowdown*e))
}
