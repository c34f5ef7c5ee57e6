package course

import (
	"sync"

	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Scripted hands out a fixed list of actions, one per course event,
// regardless of what the event was. Collision events do not advance it.
// After the list runs out it returns Celebrate.
type Scripted struct {
	mu      sync.Mutex
	actions []nav.Action
	pos     int
	seq     int
}

// NewScripted creates a course from actions; the first is returned
// before any event.
func NewScripted(actions ...nav.Action) *Scripted {
	cp := make([]nav.Action, len(actions))
	copy(cp, actions)
	return &Scripted{actions: cp}
}

// FollowOnly is a course that line-follows until the first intersection,
// then celebrates. Used for steering bench runs.
func FollowOnly() *Scripted {
	return NewScripted(
		nav.LineFollow{Sequence: 0, From: "bench", To: "bench"},
		nav.Celebrate{Sequence: 1},
	)
}

// LogEvent advances to the next scripted action.
func (s *Scripted) LogEvent(evt nav.Event) error {
	if evt.Kind.IsCollision() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.pos < len(s.actions) {
		s.pos++
	}
	return nil
}

// Position reports the index of the current action. Scripted courses
// have no nodes, so Node and Nodes stay empty.
func (s *Scripted) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Position{
		Index: s.pos,
		Seq:   s.seq,
		Done:  s.pos >= len(s.actions),
	}
}

// NextAction returns the current scripted action.
func (s *Scripted) NextAction() nav.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.actions) {
		return nav.Celebrate{Sequence: s.seq}
	}
	return s.actions[s.pos]
}
