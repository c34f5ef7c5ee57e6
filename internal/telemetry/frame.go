package telemetry

import (
	"time"

	"github.com/nerrad567/parkrunner-core/internal/course"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Frame types.
const (
	FrameEvent  = "event"
	FrameAction = "action"
	FrameStatus = "status"
)

// Frame is one telemetry message. The same shape is published on MQTT and
// pushed to WebSocket clients.
type Frame struct {
	Type   string            `json:"type"`
	RunID  string            `json:"run_id,omitempty"`
	Event  *nav.Event        `json:"event,omitempty"`
	Action *nav.ActionRecord `json:"action,omitempty"`
	Status *StatusFrame      `json:"status,omitempty"`
	At     time.Time         `json:"at"`
}

// StatusFrame is the retained run snapshot. Index is the course's
// position along its path; Node is empty for scripted courses.
type StatusFrame struct {
	State   string            `json:"state"`
	RobotID string            `json:"robot_id,omitempty"`
	Index   int               `json:"index"`
	Node    string            `json:"node,omitempty"`
	Action  *nav.ActionRecord `json:"action,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// NewStatusFrame builds a status snapshot, taking the position from
// tracker when it is not nil.
func NewStatusFrame(state string, tracker course.Tracker) *StatusFrame {
	st := &StatusFrame{State: state}
	if tracker != nil {
		pos := tracker.Position()
		st.Index = pos.Index
		st.Node = pos.Node
	}
	return st
}

// EventFrame wraps an accepted event.
func EventFrame(runID string, evt nav.Event) Frame {
	return Frame{Type: FrameEvent, RunID: runID, Event: &evt, At: time.Now().UTC()}
}

// ActionFrame wraps a dispatched action.
func ActionFrame(runID string, a nav.Action) Frame {
	rec := nav.Record(a)
	return Frame{Type: FrameAction, RunID: runID, Action: &rec, At: time.Now().UTC()}
}
