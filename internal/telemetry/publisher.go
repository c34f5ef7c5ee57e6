package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/course"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

var _ controller.Observer = (*Publisher)(nil)

// publishQueue bounds frames waiting for the broker.
const publishQueue = 128

// MQTTPublisher is the subset of the MQTT client the publisher needs.
type MQTTPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface used by this package.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

type message struct {
	topic    string
	payload  []byte
	retained bool
}

// Publisher sends controller activity to the broker. Observer calls
// marshal and enqueue; one goroutine publishes in order.
type Publisher struct {
	client  MQTTPublisher
	topics  mqtt.Topics
	qos     byte
	robotID string
	runID   string
	tracker course.Tracker
	logger  Logger

	queue     chan message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewPublisher creates a publisher for one run. Call Start before the
// controller starts and Close after it finishes.
func NewPublisher(client MQTTPublisher, robotID, runID string, qos byte) *Publisher {
	return &Publisher{
		client:  client,
		qos:     qos,
		robotID: robotID,
		runID:   runID,
		logger:  noopLogger{},
		queue:   make(chan message, publishQueue),
	}
}

// SetLogger sets the logger. A nil logger disables logging.
func (p *Publisher) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	p.logger = l
}

// SetTracker sets the course whose position is reported in status frames.
// Call before Start.
func (p *Publisher) SetTracker(t course.Tracker) {
	p.tracker = t
}

// Start launches the publishing goroutine and publishes an idle status.
func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.run()
	p.status(controller.StateIdle, nil, "")
}

// Close publishes what is queued and stops.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

func (p *Publisher) OnEvent(evt nav.Event) {
	p.send(p.topics.Events(), EventFrame(p.runID, evt), false)
}

func (p *Publisher) OnAction(a nav.Action) {
	f := ActionFrame(p.runID, a)
	p.send(p.topics.Actions(), f, false)
	p.status(controller.StateRunning, f.Action, "")
}

func (p *Publisher) OnActionDone(nav.Action, time.Duration, error) {}

func (p *Publisher) OnFinish(err error) {
	if err != nil {
		p.status(controller.StateFailed, nil, err.Error())
		return
	}
	p.status(controller.StateFinished, nil, "")
}

func (p *Publisher) status(state string, action *nav.ActionRecord, errMsg string) {
	st := NewStatusFrame(state, p.tracker)
	st.RobotID = p.robotID
	st.Action = action
	st.Error = errMsg
	p.send(p.topics.Status(), Frame{
		Type:   FrameStatus,
		RunID:  p.runID,
		Status: st,
		At:     time.Now().UTC(),
	}, true)
}

func (p *Publisher) send(topic string, f Frame, retained bool) {
	payload, err := json.Marshal(f)
	if err != nil {
		p.logger.Warn("telemetry frame not marshalled", "type", f.Type, "error", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- message{topic: topic, payload: payload, retained: retained}:
	default:
		p.logger.Warn("telemetry queue full, dropping frame", "type", f.Type)
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for m := range p.queue {
		if err := p.client.Publish(m.topic, m.payload, p.qos, m.retained); err != nil {
			p.logger.Warn("telemetry publish failed", "topic", m.topic, "error", err)
		}
	}
}
