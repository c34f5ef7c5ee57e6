package nav

import (
	"fmt"
	"strings"
)

// Side is the side of the road a lot or manoeuvre refers to.
type Side int

// Sides. SideNone is the zero value.
const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// Sign is -1 for left, +1 for right and 0 for none.
func (s Side) Sign() float64 {
	switch s {
	case SideLeft:
		return -1
	case SideRight:
		return 1
	default:
		return 0
	}
}

// ParseSide accepts "left" or "right" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return SideLeft, nil
	case "right", "r":
		return SideRight, nil
	default:
		return SideNone, fmt.Errorf("nav: unknown side %q", s)
	}
}

// ActionKind names an action variant.
type ActionKind string

// Action kinds.
const (
	KindLineFollow   ActionKind = "line_follow"
	KindIntersection ActionKind = "intersection"
	KindPark         ActionKind = "park"
	KindPullout      ActionKind = "pullout"
	KindCelebrate    ActionKind = "celebrate"
)

// Action is what the robot should do next. The set of implementations is
// closed: LineFollow, Intersection, Park, Pullout and Celebrate.
type Action interface {
	Kind() ActionKind
	// Seq is the course's event count when the action was chosen.
	Seq() int
	String() string
	action()
}

// LineFollow follows the road from one node towards the next.
type LineFollow struct {
	Sequence int
	From, To string
}

// Intersection drives through an intersection turning Angle degrees;
// positive is right, negative left.
type Intersection struct {
	Sequence int
	Angle    int
}

// Park reverses into a lot on Side, Spots counting the lots on that stretch.
type Park struct {
	Sequence int
	Spots    int
	Side     Side
}

// Pullout leaves a lot towards Side.
type Pullout struct {
	Sequence int
	Side     Side
}

// Celebrate ends the run.
type Celebrate struct {
	Sequence int
}

func (LineFollow) Kind() ActionKind   { return KindLineFollow }
func (Intersection) Kind() ActionKind { return KindIntersection }
func (Park) Kind() ActionKind         { return KindPark }
func (Pullout) Kind() ActionKind      { return KindPullout }
func (Celebrate) Kind() ActionKind    { return KindCelebrate }

func (a LineFollow) Seq() int   { return a.Sequence }
func (a Intersection) Seq() int { return a.Sequence }
func (a Park) Seq() int         { return a.Sequence }
func (a Pullout) Seq() int      { return a.Sequence }
func (a Celebrate) Seq() int    { return a.Sequence }

func (LineFollow) action()   {}
func (Intersection) action() {}
func (Park) action()         {}
func (Pullout) action()      {}
func (Celebrate) action()    {}

func (a LineFollow) String() string {
	return fmt.Sprintf("#%d line_follow %s->%s", a.Sequence, a.From, a.To)
}

func (a Intersection) String() string {
	return fmt.Sprintf("#%d intersection %+d°", a.Sequence, a.Angle)
}

func (a Park) String() string {
	return fmt.Sprintf("#%d park %s (%d spots)", a.Sequence, a.Side, a.Spots)
}

func (a Pullout) String() string {
	return fmt.Sprintf("#%d pullout %s", a.Sequence, a.Side)
}

func (a Celebrate) String() string {
	return fmt.Sprintf("#%d celebrate", a.Sequence)
}

// ActionRecord is the flattened form of an action for logs, telemetry and
// storage.
type ActionRecord struct {
	Kind  ActionKind `json:"kind"`
	Seq   int        `json:"seq"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to,omitempty"`
	Angle int        `json:"angle,omitempty"`
	Spots int        `json:"spots,omitempty"`
	Side  string     `json:"side,omitempty"`
}

// Record flattens an action.
func Record(a Action) ActionRecord {
	r := ActionRecord{Kind: a.Kind(), Seq: a.Seq()}
	switch v := a.(type) {
	case LineFollow:
		r.From, r.To = v.From, v.To
	case Intersection:
		r.Angle = v.Angle
	case Park:
		r.Spots, r.Side = v.Spots, v.Side.String()
	case Pullout:
		r.Side = v.Side.String()
	}
	return r
}
