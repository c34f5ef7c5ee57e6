package colour

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Palette is a set of named reference colours with a per-channel match
// tolerance. Iteration order is sorted by name, so ties resolve to the
// alphabetically first colour.
//
// Thread Safety:
//   - All methods are safe for concurrent use; Set is expected only during setup.
type Palette struct {
	mu        sync.RWMutex
	tolerance float64
	colours   map[string]Colour
	names     []string
}

// NewPalette creates an empty palette.
func NewPalette(tolerance float64) *Palette {
	return &Palette{
		tolerance: tolerance,
		colours:   make(map[string]Colour),
	}
}

// FromRGB builds a palette from name → [r, g, b] entries, as found in
// configuration.
func FromRGB(tolerance float64, entries map[string][3]float64) (*Palette, error) {
	p := NewPalette(tolerance)
	for name, rgb := range entries {
		c, err := New(rgb[0], rgb[1], rgb[2])
		if err != nil {
			return nil, fmt.Errorf("palette entry %s: %w", name, err)
		}
		p.Set(name, c)
	}
	return p, nil
}

// Set defines or replaces a named colour.
func (p *Palette) Set(name string, c Colour) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.colours[name]; !exists {
		p.names = append(p.names, name)
		sort.Strings(p.names)
	}
	p.colours[name] = c
}

// Get returns a named colour.
func (p *Palette) Get(name string) (Colour, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.colours[name]
	if !ok {
		return Colour{}, fmt.Errorf("%w: %s", ErrUnknownColour, name)
	}
	return c, nil
}

// Names returns the colour names in sorted order.
func (p *Palette) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Tolerance returns the per-channel match tolerance.
func (p *Palette) Tolerance() float64 {
	return p.tolerance
}

// BestMatch returns the name of the closest palette colour whose every
// channel lies within the tolerance of c, or "" when none qualifies.
func (p *Palette) BestMatch(c Colour) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	best := ""
	bestDist := math.Inf(1)
	for _, name := range p.names {
		ref := p.colours[name]
		if !Within(ref, c, p.tolerance) {
			continue
		}
		if d := Distance(ref, c); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// BestBlend returns which of candidates, mixed with the colour named base,
// best explains c: the candidate whose segment to base passes closest to c
// in RGB space.
//
// Parameters:
//   - candidates: Palette names that may appear alongside base
//   - base: Palette name of the colour always present (the road)
//   - c: The observed reading
//
// Returns:
//   - string: The winning candidate name ("" if candidates is empty)
//   - error: ErrUnknownColour if base or a candidate is undefined
func (p *Palette) BestBlend(candidates []string, base string, c Colour) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	baseColour, ok := p.colours[base]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownColour, base)
	}

	best := ""
	bestDist := math.Inf(1)
	for _, name := range candidates {
		ref, ok := p.colours[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownColour, name)
		}
		if name == base {
			continue
		}
		if d := lineDistance(c, ref, baseColour); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, nil
}

// lineDistance is the distance from point x0 to the line through x1 and x2:
// |(x0-x1) × (x0-x2)| / |x2-x1|.
func lineDistance(x0, x1, x2 Colour) float64 {
	a := [3]float64{x0.r - x1.r, x0.g - x1.g, x0.b - x1.b}
	b := [3]float64{x0.r - x2.r, x0.g - x2.g, x0.b - x2.b}
	cross := [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
	num := math.Sqrt(cross[0]*cross[0] + cross[1]*cross[1] + cross[2]*cross[2])
	den := Distance(x1, x2)
	if den == 0 {
		return Distance(x0, x1)
	}
	return num / den
}

// Snapshot copies the palette as name → [r, g, b].
func (p *Palette) Snapshot() map[string][3]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string][3]float64, len(p.colours))
	for name, c := range p.colours {
		out[name] = c.RGB()
	}
	return out
}
