package controller

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/course"
	"github.com/nerrad567/parkrunner-core/internal/drive"
	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
	"github.com/nerrad567/parkrunner-core/internal/nav"
	"github.com/nerrad567/parkrunner-core/internal/sensing"
)

// EventSource publishes navigation events.
type EventSource interface {
	Subscribe() (nav.SubscriberID, <-chan nav.Event)
	Unsubscribe(id nav.SubscriberID)
}

// Monitor is the colour monitor as the controller uses it.
type Monitor interface {
	EventSource
	Start() error
	Match(id sensing.SensorID) (string, error)
	RoadColour() string
}

// Sonar is the collision daemon and sweeping rangefinder.
type Sonar interface {
	EventSource
	Start() error
	Pause() error
	SetAlertThreshold(metres float64)
	Sweep(ctx context.Context, sw config.SweepConfig) (bool, error)
}

// Follower is the line follower.
type Follower interface {
	Start() error
	Stop() error
	IsFollowing() bool
	SetMaxSpeed(v float64)
}

// Logger is the logging interface used by the controller.
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

// Deps holds the controller's collaborators. All but Logger are required.
type Deps struct {
	Course   course.Course
	Monitor  Monitor
	Sonar    Sonar
	Follower Follower
	Pilot    drive.Pilot
	Sounder  drive.Sounder
	Logger   Logger
}

// Status is a snapshot for status reporting.
type Status struct {
	State     string            `json:"state"`
	Current   *nav.ActionRecord `json:"current,omitempty"`
	LastEvent *nav.Event        `json:"last_event,omitempty"`
	Position  *course.Position  `json:"position,omitempty"`
	Following bool              `json:"following"`
	Error     string            `json:"error,omitempty"`
}

// Run states reported by Status.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateFinished = "finished"
	StateFailed   = "failed"
)

// job is one queued unit of work: an action, or a bare delay.
type job struct {
	action nav.Action
	delay  time.Duration
	done   chan struct{}
}

// Controller runs actions chosen by the course against the hardware.
//
// Thread Safety:
//   - Start, Wait, Close, Status and AddObserver are safe for concurrent use.
//   - Action handlers run only on the executor goroutine.
type Controller struct {
	course   course.Course
	monitor  Monitor
	sonar    Sonar
	follower Follower
	pilot    drive.Pilot
	sounder  drive.Sounder
	robot    config.RobotConfig
	sonarCfg config.SonarConfig
	logger   Logger

	monitorSub, sonarSub nav.SubscriberID
	monitorCh, sonarCh   <-chan nav.Event

	mu        sync.Mutex
	queue     []job
	current   chan struct{}
	running   nav.Action
	lastEvent *nav.Event
	observers []Observer
	started   bool

	wake chan struct{}

	finishOnce sync.Once
	finished   chan struct{}
	err        error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a controller and subscribes to the monitor and sonar.
//
// Parameters:
//   - deps: Collaborators
//   - robot: Speeds, geometry and manoeuvre constants
//   - sonarCfg: Alert threshold, sweep profiles and sweep timeout
//
// Returns:
//   - *Controller: Controller ready to Start
//   - error: ErrMissingDependency if a required collaborator is nil
func New(deps Deps, robot config.RobotConfig, sonarCfg config.SonarConfig) (*Controller, error) {
	switch {
	case deps.Course == nil:
		return nil, fmt.Errorf("%w: course", ErrMissingDependency)
	case deps.Monitor == nil:
		return nil, fmt.Errorf("%w: monitor", ErrMissingDependency)
	case deps.Sonar == nil:
		return nil, fmt.Errorf("%w: sonar", ErrMissingDependency)
	case deps.Follower == nil:
		return nil, fmt.Errorf("%w: follower", ErrMissingDependency)
	case deps.Pilot == nil:
		return nil, fmt.Errorf("%w: pilot", ErrMissingDependency)
	case deps.Sounder == nil:
		return nil, fmt.Errorf("%w: sounder", ErrMissingDependency)
	}

	c := &Controller{
		course:   deps.Course,
		monitor:  deps.Monitor,
		sonar:    deps.Sonar,
		follower: deps.Follower,
		pilot:    deps.Pilot,
		sounder:  deps.Sounder,
		robot:    robot,
		sonarCfg: sonarCfg,
		logger:   deps.Logger,
		wake:     make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}

	c.monitorSub, c.monitorCh = c.monitor.Subscribe()
	c.sonarSub, c.sonarCh = c.sonar.Subscribe()
	c.sonar.SetAlertThreshold(sonarCfg.AlertThreshold)
	return c, nil
}

// AddObserver registers an observer. Call before Start.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Start starts the sensor daemons, the event loop and the executor, then
// queues the course's first action.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if err := c.monitor.Start(); err != nil {
		return fmt.Errorf("starting colour monitor: %w", err)
	}
	if err := c.sonar.Start(); err != nil {
		return fmt.Errorf("starting sonar: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go c.runExecutor(ctx)
	go c.runEvents(ctx)

	first := c.course.NextAction()
	c.logger.Info("run started", "first_action", first.String())
	c.submitAction(first)
	return nil
}

// Wait blocks until the run finishes or ctx ends.
//
// Returns:
//   - error: nil after Celebrate, the failing action's error, ErrClosed, or ctx.Err()
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.finished:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the run finishes.
func (c *Controller) Done() <-chan struct{} {
	return c.finished
}

// Close stops the executor and event loop, stops the follower and the
// drive, and unsubscribes. The sensor daemons are left to their owner.
func (c *Controller) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	c.finish(ErrClosed)
	c.monitor.Unsubscribe(c.monitorSub)
	c.sonar.Unsubscribe(c.sonarSub)
	c.halt(context.Background())
	return nil
}

// Status returns a snapshot of the run.
func (c *Controller) Status() Status {
	c.mu.Lock()
	s := Status{State: StateIdle}
	if c.started {
		s.State = StateRunning
	}
	if c.running != nil {
		r := nav.Record(c.running)
		s.Current = &r
	}
	if c.lastEvent != nil {
		e := *c.lastEvent
		s.LastEvent = &e
	}
	c.mu.Unlock()

	select {
	case <-c.finished:
		s.State = StateFinished
		if c.err != nil {
			s.State = StateFailed
			s.Error = c.err.Error()
		}
	default:
	}
	if t, ok := c.course.(course.Tracker); ok {
		pos := t.Position()
		s.Position = &pos
	}
	s.Following = c.follower.IsFollowing()
	return s
}

// ApproachScale maps the distance to an obstacle ahead onto a speed
// factor: 0 at or below 5 cm, rising linearly to 1 at 20 cm.
func ApproachScale(distance float64) float64 {
	switch {
	case distance <= 0.05:
		return 0
	case distance <= 0.2:
		return (distance - 0.05) / (0.2 - 0.05)
	default:
		return 1
	}
}

func (c *Controller) runEvents(ctx context.Context) {
	defer c.wg.Done()

	monitorCh, sonarCh := c.monitorCh, c.sonarCh
	for monitorCh != nil || sonarCh != nil {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-monitorCh:
			if !ok {
				monitorCh = nil
				continue
			}
			c.handleEvent(ctx, evt)
		case evt, ok := <-sonarCh:
			if !ok {
				sonarCh = nil
				continue
			}
			c.handleEvent(ctx, evt)
		}
	}
}

// handleEvent reacts to one event if no action is in flight. Once the
// run has finished the course is never consulted again.
func (c *Controller) handleEvent(ctx context.Context, evt nav.Event) {
	if c.isFinished() {
		c.logger.Debug("event ignored after run finished", "event", evt.Kind.String())
		return
	}
	if !c.idle() {
		c.logger.Debug("event dropped while action in flight", "event", evt.Kind.String())
		return
	}

	c.mu.Lock()
	c.lastEvent = &evt
	c.mu.Unlock()
	c.notify(func(o Observer) { o.OnEvent(evt) })

	switch evt.Kind {
	case nav.ApproachingObject:
		limit := c.robot.CruiseSpeed * ApproachScale(evt.Distance)
		c.logger.Debug("object ahead, limiting speed", "distance", evt.Distance, "max_speed", limit)
		c.follower.SetMaxSpeed(limit)
		return
	case nav.AllClear:
		c.logger.Debug("path clear, speed limit released")
		c.follower.SetMaxSpeed(math.Inf(1))
		return
	}

	c.logger.Info("event", "event", evt.Kind.String())
	if err := c.course.LogEvent(evt); err != nil {
		c.logger.Warn("course rejected event", "event", evt.Kind.String(), "error", err)
	}
	next := c.course.NextAction()

	if _, ok := next.(nav.LineFollow); ok && c.follower.IsFollowing() {
		return
	}

	c.stopLineFollowing()
	if err := c.pilot.Stop(ctx); err != nil {
		c.logger.Warn("stopping drive failed", "error", err)
	}

	switch evt.Kind {
	case nav.IntersectionDetected:
		if err := c.sounder.Beep(ctx); err != nil {
			c.logger.Debug("beep failed", "error", err)
		}
		c.submitDelay(c.robot.StopDelay)
	case nav.ParkingLotLeftDetected, nav.ParkingLotRightDetected:
		c.submitDelay(c.robot.ParkDelay)
	}
	c.submitAction(next)
}

// idle reports whether the most recently queued action has finished.
func (c *Controller) idle() bool {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return false
	}
	select {
	case <-cur:
		return true
	default:
		return false
	}
}

func (c *Controller) submitAction(a nav.Action) {
	j := job{action: a, done: make(chan struct{})}
	c.mu.Lock()
	c.queue = append(c.queue, j)
	c.current = j.done
	c.mu.Unlock()
	c.signal()
}

func (c *Controller) submitDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, job{delay: d})
	c.mu.Unlock()
	c.signal()
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) next() (job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return job{}, false
	}
	j := c.queue[0]
	c.queue = c.queue[1:]
	return j, true
}

func (c *Controller) runExecutor(ctx context.Context) {
	defer c.wg.Done()

	for {
		j, ok := c.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-c.wake:
				continue
			}
		}

		if c.isFinished() {
			return
		}

		if j.action == nil {
			if err := sleep(ctx, j.delay); err != nil {
				return
			}
			continue
		}

		err := c.execute(ctx, j.action)
		close(j.done)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("action failed", "action", j.action.String(), "error", err)
			c.halt(ctx)
			c.finish(fmt.Errorf("%s: %w", j.action.Kind(), err))
			return
		}
	}
}

func (c *Controller) execute(ctx context.Context, a nav.Action) error {
	c.mu.Lock()
	c.running = a
	c.mu.Unlock()

	c.logger.Info("action started", "action", a.String())
	c.notify(func(o Observer) { o.OnAction(a) })
	start := time.Now()

	var err error
	switch v := a.(type) {
	case nav.LineFollow:
		err = c.lineFollow(v)
	case nav.Intersection:
		err = c.intersection(ctx, v)
	case nav.Park:
		err = c.park(ctx, v)
	case nav.Pullout:
		err = c.pullout(ctx, v)
	case nav.Celebrate:
		err = c.celebrate(ctx)
	default:
		err = fmt.Errorf("unsupported action %T", a)
	}

	elapsed := time.Since(start)
	c.logger.Debug("action finished", "action", a.String(), "elapsed", elapsed, "error", err)
	c.notify(func(o Observer) { o.OnActionDone(a, elapsed, err) })
	return err
}

func (c *Controller) isFinished() bool {
	select {
	case <-c.finished:
		return true
	default:
		return false
	}
}

// finish ends the run once.
func (c *Controller) finish(err error) {
	c.finishOnce.Do(func() {
		c.err = err
		close(c.finished)
		c.notify(func(o Observer) { o.OnFinish(err) })
	})
}

// halt stops everything that moves.
func (c *Controller) halt(ctx context.Context) {
	c.stopLineFollowing()
	if err := c.pilot.Stop(ctx); err != nil {
		c.logger.Warn("stopping drive failed", "error", err)
	}
}

func (c *Controller) stopLineFollowing() {
	if err := c.follower.Stop(); err != nil {
		c.logger.Debug("stopping follower failed", "error", err)
	}
	if err := c.sonar.Pause(); err != nil {
		c.logger.Debug("pausing sonar failed", "error", err)
	}
}

func (c *Controller) notify(fn func(Observer)) {
	c.mu.Lock()
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()
	for _, o := range obs {
		fn(o)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
