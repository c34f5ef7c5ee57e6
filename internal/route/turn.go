package route

import "fmt"

// NormalizeTurn converts the arriving heading of one arc and the leaving
// heading of the next into a turn in [-90, 90]; positive is right.
//
// Raw differences in [270, 450] or [-450, -270] wrap by 360. Anything
// still outside [-90, 90] is a map defect and returns ErrTurnTooSharp:
// the course never needs a sharper turn.
func NormalizeTurn(exit, entry int) (int, error) {
	raw := exit - entry
	angle := raw
	switch {
	case raw >= 270 && raw <= 450:
		angle -= 360
	case raw >= -450 && raw <= -270:
		angle += 360
	}
	if angle < -90 || angle > 90 {
		return 0, fmt.Errorf("%w: exit %d, entry %d gives %d", ErrTurnTooSharp, exit, entry, angle)
	}
	return angle, nil
}

// TurnAngle returns the turn made at b when driving a→b→c.
func (g *Graph) TurnAngle(a, b, c string) (int, error) {
	in, err := g.Arc(a, b)
	if err != nil {
		return 0, err
	}
	out, err := g.Arc(b, c)
	if err != nil {
		return 0, err
	}
	angle, err := NormalizeTurn(in.Exit, out.Entry)
	if err != nil {
		return 0, fmt.Errorf("turn %s-%s-%s: %w", a, b, c, err)
	}
	return angle, nil
}
