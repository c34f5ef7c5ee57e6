package ev3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/parkrunner-core/internal/drive"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// QoS levels. Per-cycle commands go out at most once; everything else at
// least once.
const (
	qosCycle   byte = 0
	qosRequest byte = 1
)

var (
	_ drive.Pilot         = (*Client)(nil)
	_ drive.Sounder       = (*Client)(nil)
	_ sensing.Rangefinder = (*Client)(nil)
)

// MQTTClient is the subset of the MQTT client the bridge client needs.
// Satisfied by *mqtt.Client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by this package.
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

// Client talks to the brick over MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	mqtt    MQTTClient
	name    string
	timeout time.Duration
	topics  mqtt.Topics
	newID   func() string

	pending   map[string]chan Response
	pendingMu sync.Mutex

	colours map[string][3]float64
	pilot   PilotState
	speed   float64
	online  bool
	stateMu sync.RWMutex

	sensors map[sensing.SensorID]*Sensor

	done     chan struct{}
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a client for the bridge named in cfg. Call Start to subscribe
// and Close when done.
func New(client MQTTClient, cfg config.BridgeConfig) *Client {
	c := &Client{
		mqtt:    client,
		name:    cfg.Name,
		timeout: cfg.RequestTimeout,
		newID:   uuid.NewString,
		pending: make(map[string]chan Response),
		colours: make(map[string][3]float64),
		sensors: make(map[sensing.SensorID]*Sensor),
		done:    make(chan struct{}),
		logger:  noopLogger{},
	}
	for _, id := range sensing.AllSensors {
		c.sensors[id] = &Sensor{client: c, id: id}
	}
	return c
}

// SetLogger sets the logger. A nil logger disables logging.
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	c.loggerMu.Lock()
	c.logger = l
	c.loggerMu.Unlock()
}

func (c *Client) log() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Start subscribes to the bridge's state, response and status topics.
func (c *Client) Start() error {
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{c.topics.AllBridgeStates(c.name), c.handleState},
		{c.topics.AllBridgeResponses(c.name), c.handleResponse},
		{c.topics.BridgeStatus(c.name), c.handleStatus},
	}
	for _, s := range subs {
		if err := c.mqtt.Subscribe(s.topic, qosRequest, s.handler); err != nil {
			return fmt.Errorf("subscribe to %s: %w", s.topic, err)
		}
	}
	c.log().Info("ev3 bridge client started", "bridge", c.name)
	return nil
}

// Close unsubscribes and fails every outstanding request with ErrStopped.
// Stop is the drive command; Close ends the client.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.done)
		for _, topic := range []string{
			c.topics.AllBridgeStates(c.name),
			c.topics.AllBridgeResponses(c.name),
			c.topics.BridgeStatus(c.name),
		} {
			if err := c.mqtt.Unsubscribe(topic); err != nil {
				c.log().Warn("ev3 unsubscribe failed", "topic", topic, "error", err)
			}
		}
		c.log().Info("ev3 bridge client stopped", "bridge", c.name)
	})
}

// Online reports whether the bridge last announced itself online.
func (c *Client) Online() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.online
}

// HealthCheck returns ErrOffline unless the bridge has announced itself
// online. Used as the bridge process health check.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.Online() {
		return ErrOffline
	}
	return nil
}

// call publishes req and waits for its response.
//
// Returns:
//   - float64: the response value (distance readings)
//   - error: ErrTimeout, ErrCommandFailed, ErrStopped or the context error
func (c *Client) call(ctx context.Context, req Request) (float64, error) {
	select {
	case <-c.done:
		return 0, ErrStopped
	default:
	}

	req.ID = c.newID()
	req.Timestamp = time.Now().UTC()

	ch := make(chan Response, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.publish(req, qosRequest); err != nil {
		return 0, err
	}

	var timeout <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp := <-ch:
		return resp.Value, resp.err(req.Command)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %s: %w", ErrTimeout, req.Command, ctx.Err())
		}
		return 0, fmt.Errorf("%s: %w", req.Command, ctx.Err())
	case <-timeout:
		return 0, fmt.Errorf("%w: %s after %v", ErrTimeout, req.Command, c.timeout)
	case <-c.done:
		return 0, ErrStopped
	}
}

// send publishes req without waiting for an answer.
func (c *Client) send(req Request) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	req.ID = c.newID()
	req.Timestamp = time.Now().UTC()
	return c.publish(req, qosCycle)
}

func (c *Client) publish(req Request, qos byte) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", req.Command, err)
	}
	if err := c.mqtt.Publish(c.topics.BridgeRequest(c.name, req.ID), payload, qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", req.Command, err)
	}
	return nil
}

// handleResponse routes a response to the waiting call. Responses to
// fire-and-forget commands have no waiter and are dropped.
func (c *Client) handleResponse(topic string, payload []byte) error {
	id := topic[strings.LastIndex(topic, "/")+1:]

	resp, err := decode[Response](payload)
	if err != nil {
		return fmt.Errorf("response %s: %w", id, err)
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	c.pendingMu.Unlock()
	if !ok {
		if !resp.OK {
			c.log().Warn("ev3 command failed", "request_id", id, "error", resp.Error)
		}
		return nil
	}

	select {
	case ch <- resp:
	default:
		c.log().Debug("ev3 duplicate response dropped", "request_id", id)
	}
	return nil
}

// handleState caches sensor and pilot state published by the brick.
func (c *Client) handleState(topic string, payload []byte) error {
	addr := strings.TrimPrefix(topic, c.topics.BridgeState(c.name, ""))

	switch {
	case addr == "pilot":
		st, err := decode[PilotState](payload)
		if err != nil {
			return fmt.Errorf("pilot state: %w", err)
		}
		c.stateMu.Lock()
		c.pilot = st
		c.stateMu.Unlock()

	case strings.HasPrefix(addr, "colour/"):
		sensor := strings.TrimPrefix(addr, "colour/")
		st, err := decode[ColourState](payload)
		if err != nil {
			return fmt.Errorf("colour state %s: %w", sensor, err)
		}
		c.stateMu.Lock()
		c.colours[sensor] = [3]float64{st.R, st.G, st.B}
		c.stateMu.Unlock()

	default:
		c.log().Debug("ev3 state ignored", "topic", topic)
	}
	return nil
}

// handleStatus logs the bridge coming and going, including its LWT.
func (c *Client) handleStatus(_ string, payload []byte) error {
	st, err := decode[StatusMessage](payload)
	if err != nil {
		return fmt.Errorf("bridge status: %w", err)
	}

	online := st.Status == "online"
	c.stateMu.Lock()
	c.online = online
	c.stateMu.Unlock()

	if online {
		c.log().Info("ev3 bridge online", "bridge", c.name)
	} else {
		c.log().Warn("ev3 bridge offline", "bridge", c.name, "reason", st.Reason)
	}
	return nil
}

// raw returns the cached raw channels of one colour sensor.
func (c *Client) raw(sensor string) ([3]float64, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	rgb, ok := c.colours[sensor]
	if !ok {
		return rgb, fmt.Errorf("%w: %s", ErrNoReading, sensor)
	}
	return rgb, nil
}
