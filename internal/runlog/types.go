package runlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Outcome is how a run ended.
type Outcome string

// Run outcomes.
const (
	OutcomeRunning   Outcome = "running"
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
	OutcomeFailed    Outcome = "failed"
)

// Run is one mission attempt.
type Run struct {
	ID         string     `json:"id"`
	RobotID    string     `json:"robot_id"`
	MapName    string     `json:"map_name,omitempty"`
	Base       string     `json:"base,omitempty"`
	Lots       []int      `json:"lots"`
	Path       []string   `json:"path"`
	Cost       int        `json:"cost"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    Outcome    `json:"outcome"`
	Error      string     `json:"error,omitempty"`

	// Populated by Get only.
	Actions []ActionEntry `json:"actions,omitempty"`
	Events  []EventEntry  `json:"events,omitempty"`
}

// NewRun returns a running Run with a fresh ID.
func NewRun(robotID string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		RobotID:   robotID,
		Lots:      []int{},
		Path:      []string{},
		StartedAt: time.Now().UTC(),
		Outcome:   OutcomeRunning,
	}
}

// ActionEntry is one dispatched action.
type ActionEntry struct {
	Seq          int              `json:"seq"`
	Kind         nav.ActionKind   `json:"kind"`
	Detail       nav.ActionRecord `json:"detail"`
	DispatchedAt time.Time        `json:"dispatched_at"`
}

// EventEntry is one accepted event.
type EventEntry struct {
	Kind       string    `json:"kind"`
	Distance   *float64  `json:"distance,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
