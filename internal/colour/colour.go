package colour

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Colour is an immutable RGB triple with channels in [0,1].
type Colour struct {
	r, g, b float64
}

// MidGrey is the neutral reading substituted when a sensor read fails.
var MidGrey = Colour{r: 0.5, g: 0.5, b: 0.5}

// New returns a Colour, rejecting channels outside [0,1].
func New(r, g, b float64) (Colour, error) {
	for _, v := range [3]float64{r, g, b} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Colour{}, fmt.Errorf("%w: [%g, %g, %g]", ErrOutOfRange, r, g, b)
		}
	}
	return Colour{r: r, g: g, b: b}, nil
}

// Must is New for constants known to be valid; it panics otherwise.
func Must(r, g, b float64) Colour {
	c, err := New(r, g, b)
	if err != nil {
		panic(err)
	}
	return c
}

// Clamped returns a Colour with each channel clamped into [0,1].
// NaN channels become 0.
func Clamped(r, g, b float64) Colour {
	return Colour{r: clamp01(r), g: clamp01(g), b: clamp01(b)}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// R returns the red channel.
func (c Colour) R() float64 { return c.r }

// G returns the green channel.
func (c Colour) G() float64 { return c.g }

// B returns the blue channel.
func (c Colour) B() float64 { return c.b }

// RGB returns the channels as an array.
func (c Colour) RGB() [3]float64 {
	return [3]float64{c.r, c.g, c.b}
}

// Blend mixes c with other: ratio 1 yields c, ratio 0 yields other.
// The ratio is clamped into [0,1].
func (c Colour) Blend(other Colour, ratio float64) Colour {
	ratio = clamp01(ratio)
	return Colour{
		r: c.r*ratio + other.r*(1-ratio),
		g: c.g*ratio + other.g*(1-ratio),
		b: c.b*ratio + other.b*(1-ratio),
	}
}

// ReverseBlend returns the colour x such that an even blend of c and x
// gives mixed, i.e. 2*mixed - c.
//
// Returns:
//   - Colour: The inferred partner colour
//   - error: ErrOutOfRange if no valid colour produces mixed
func (c Colour) ReverseBlend(mixed Colour) (Colour, error) {
	return New(2*mixed.r-c.r, 2*mixed.g-c.g, 2*mixed.b-c.b)
}

// Composition infers the ratio r such that c ≈ a.Blend(b, r).
//
// Each channel where a and b differ yields an estimate (c-b)/(a-b); the
// estimates are averaged. Channels where a and b agree carry no
// information and are skipped. If a and b are identical the result is 1.
// The result is not clamped: readings beyond either reference give values
// outside [0,1].
func (c Colour) Composition(a, b Colour) float64 {
	ca, cb, cc := a.RGB(), b.RGB(), c.RGB()

	var sum float64
	var n int
	for i := range cc {
		d := ca[i] - cb[i]
		if d == 0 {
			continue
		}
		sum += (cc[i] - cb[i]) / d
		n++
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

// Distance returns the Euclidean distance between two colours.
func Distance(a, b Colour) float64 {
	dr, dg, db := a.r-b.r, a.g-b.g, a.b-b.b
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Within reports whether every channel of a and b differs by at most tol.
func Within(a, b Colour, tol float64) bool {
	return math.Abs(a.r-b.r) <= tol && math.Abs(a.g-b.g) <= tol && math.Abs(a.b-b.b) <= tol
}

// String formats the colour as "[r, g, b]".
func (c Colour) String() string {
	return fmt.Sprintf("[%s, %s, %s]", fmtChannel(c.r), fmtChannel(c.g), fmtChannel(c.b))
}

func fmtChannel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parse reads the "[r, g, b]" form produced by String.
func Parse(s string) (Colour, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return Colour{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 3 {
		return Colour{}, fmt.Errorf("%w: %q needs three channels", ErrInvalidFormat, s)
	}

	var ch [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Colour{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
		}
		ch[i] = v
	}
	return New(ch[0], ch[1], ch[2])
}
