package nav

import (
	"fmt"
	"time"
)

// EventKind identifies what a sensor daemon or action observed.
type EventKind int

// Event kinds.
const (
	IntersectionDetected EventKind = iota + 1
	IntersectionNavigated
	ParkingLotLeftDetected
	ParkingLotRightDetected
	Parked
	PulledOut
	ApproachingObject
	AllClear
)

var eventNames = map[EventKind]string{
	IntersectionDetected:    "intersection_detected",
	IntersectionNavigated:   "intersection_navigated",
	ParkingLotLeftDetected:  "parking_lot_left_detected",
	ParkingLotRightDetected: "parking_lot_right_detected",
	Parked:                  "parked",
	PulledOut:               "pulled_out",
	ApproachingObject:       "approaching_object",
	AllClear:                "all_clear",
}

// String returns the snake_case name used in logs and telemetry.
func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// IsCollision reports whether the kind belongs to collision avoidance,
// which adjusts speed without involving the course.
func (k EventKind) IsCollision() bool {
	return k == ApproachingObject || k == AllClear
}

// Event is one notification. Distance is set for ApproachingObject only.
type Event struct {
	Kind     EventKind `json:"-"`
	Name     string    `json:"kind"`
	Distance float64   `json:"distance,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent stamps an event of the given kind with the current time.
func NewEvent(kind EventKind) Event {
	return Event{Kind: kind, Name: kind.String(), At: time.Now()}
}

// Approaching returns an ApproachingObject event at distance metres.
func Approaching(distance float64) Event {
	e := NewEvent(ApproachingObject)
	e.Distance = distance
	return e
}

func (e Event) String() string {
	if e.Kind == ApproachingObject {
		return fmt.Sprintf("%s(%.3fm)", e.Kind, e.Distance)
	}
	return e.Kind.String()
}
