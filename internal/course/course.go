package course

import (
	"fmt"
	"sync"

	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/route"
)

// Course decides actions from events.
type Course interface {
	LogEvent(evt nav.Event) error
	NextAction() nav.Action
}

// Tracker is a course that reports its progress for status.
// Both *StateMachine and *Scripted satisfy it.
type Tracker interface {
	Position() Position
}

var (
	_ Tracker = (*StateMachine)(nil)
	_ Tracker = (*Scripted)(nil)
)

// TurnCalculator returns the turn at b on the way a→b→c.
// *route.Graph satisfies it.
type TurnCalculator interface {
	TurnAngle(a, b, c string) (int, error)
}

// Logger is the logging interface used by courses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Position is a snapshot of the state machine for status reporting.
type Position struct {
	Index      int      `json:"index"`
	Node       string   `json:"node"`
	ParkedSide string   `json:"parked_side"`
	Seq        int      `json:"seq"`
	Done       bool     `json:"done"`
	Nodes      []string `json:"nodes"`
}

// StateMachine is the map-driven course.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type StateMachine struct {
	mu     sync.Mutex
	nodes  []string
	turns  TurnCalculator
	logger Logger

	spots  int
	index  int
	parked nav.Side
	seq    int
	next   nav.Action
	done   bool
}

// NewStateMachine creates a course over a planned node list.
//
// Parameters:
//   - nodes: The planned node sequence, stops repeated
//   - startSide: The side the robot pulls out towards from its base
//   - turns: Turn angle source, normally the map graph
//
// Returns:
//   - *StateMachine: Ready course whose first action is Pullout{startSide}
//   - error: ErrEmptyPath if nodes is empty
func NewStateMachine(nodes []string, startSide nav.Side, turns TurnCalculator) (*StateMachine, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyPath
	}
	cp := make([]string, len(nodes))
	copy(cp, nodes)

	return &StateMachine{
		nodes:  cp,
		turns:  turns,
		logger: noopLogger{},
		spots:  3,
		next:   nav.Pullout{Sequence: 0, Side: startSide},
	}, nil
}

// SetLogger sets the logger.
func (m *StateMachine) SetLogger(l Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l != nil {
		m.logger = l
	}
}

// SetParkSpots sets the lot count reported in Park actions (default 3).
func (m *StateMachine) SetParkSpots(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.spots = n
	}
}

// NextAction returns the action chosen by the most recent event.
func (m *StateMachine) NextAction() nav.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// Position returns a snapshot of progress along the path.
func (m *StateMachine) Position() Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	nodes := make([]string, len(m.nodes))
	copy(nodes, m.nodes)
	return Position{
		Index:      m.index,
		Node:       m.nodes[m.index],
		ParkedSide: m.parked.String(),
		Seq:        m.seq,
		Done:       m.done,
		Nodes:      nodes,
	}
}

// LogEvent records an event and chooses the next action.
//
// Every event advances the sequence number. On error the next action is
// unchanged: ErrNotParking marks a misuse the caller should log and
// ignore, while turn and path errors mean the plan does not fit the map
// and the run cannot continue.
func (m *StateMachine) LogEvent(evt nav.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	if m.done {
		m.logger.Debug("event after celebrate ignored", "event", evt.Kind.String(), "seq", m.seq)
		return nil
	}

	var err error
	switch evt.Kind {
	case nav.IntersectionDetected:
		err = m.onIntersection()
	case nav.IntersectionNavigated:
		err = m.onNavigated()
	case nav.ParkingLotLeftDetected:
		err = m.onParkingLot(nav.SideLeft)
	case nav.ParkingLotRightDetected:
		err = m.onParkingLot(nav.SideRight)
	case nav.Parked:
		err = m.onParked()
	case nav.PulledOut:
		err = m.onPulledOut()
	default:
		m.logger.Debug("event not relevant to course", "event", evt.Kind.String())
		return nil
	}

	if err != nil {
		m.logger.Warn("course event rejected",
			"event", evt.Kind.String(),
			"seq", m.seq,
			"index", m.index,
			"error", err,
		)
		return err
	}

	m.logger.Info("course advanced",
		"event", evt.Kind.String(),
		"seq", m.seq,
		"index", m.index,
		"node", m.nodes[m.index],
		"action", m.next.String(),
	)
	return nil
}

func (m *StateMachine) onIntersection() error {
	i := m.index
	for i < len(m.nodes) && route.IsLot(m.nodes[i]) {
		i++
	}
	if i >= len(m.nodes) {
		return fmt.Errorf("%w: no intersection after index %d", ErrPathExhausted, m.index)
	}

	if i == len(m.nodes)-1 {
		m.index = i
		m.next = nav.Celebrate{Sequence: m.seq}
		m.done = true
		return nil
	}
	if i == 0 {
		return fmt.Errorf("%w: intersection %s has no approach node", ErrPathExhausted, m.nodes[i])
	}

	a, b, c := m.nodes[i-1], m.nodes[i], m.nodes[i+1]
	angle, err := m.turns.TurnAngle(a, b, c)
	if err != nil {
		return fmt.Errorf("turn at %s: %w", b, err)
	}

	m.index = i + 1
	m.next = nav.Intersection{Sequence: m.seq, Angle: angle}
	return nil
}

func (m *StateMachine) onNavigated() error {
	if m.index == 0 {
		return fmt.Errorf("%w: navigated before any intersection", ErrPathExhausted)
	}
	m.next = nav.LineFollow{Sequence: m.seq, From: m.nodes[m.index-1], To: m.nodes[m.index]}
	return nil
}

func (m *StateMachine) onParkingLot(side nav.Side) error {
	if m.index+1 >= len(m.nodes) {
		return fmt.Errorf("%w: lot detected at final node", ErrPathExhausted)
	}

	cur, nxt := m.nodes[m.index], m.nodes[m.index+1]
	if cur == nxt {
		m.index++
		m.parked = side
		m.next = nav.Park{Sequence: m.seq, Spots: m.spots, Side: side}
		return nil
	}

	m.next = nav.LineFollow{Sequence: m.seq, From: cur, To: nxt}
	return nil
}

func (m *StateMachine) onParked() error {
	if m.parked == nav.SideNone {
		return ErrNotParking
	}
	m.next = nav.Pullout{Sequence: m.seq, Side: m.parked}
	m.parked = nav.SideNone
	return nil
}

func (m *StateMachine) onPulledOut() error {
	if m.index+1 >= len(m.nodes) {
		return fmt.Errorf("%w: pulled out at final node", ErrPathExhausted)
	}
	m.next = nav.LineFollow{Sequence: m.seq, From: m.nodes[m.index], To: m.nodes[m.index+1]}
	return nil
}
