package daemon

import (
	"sync"
	"time"
)

// Task is one cycle of work.
type Task func()

// Option configures a Daemon.
type Option func(*Daemon)

// WithInterval sets a pause between consecutive background cycles.
// Zero (the default) loops as fast as the task allows.
func WithInterval(d time.Duration) Option {
	return func(dm *Daemon) {
		dm.interval = d
	}
}

// Daemon runs a Task repeatedly on its own goroutine while running.
//
// Thread Safety:
//   - Start, Pause, Terminate and the state accessors are safe for concurrent use.
type Daemon struct {
	name     string
	task     Task
	interval time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	active  bool
	running bool

	// taskMu serialises task calls between Start and the loop.
	taskMu sync.Mutex

	// stop is closed by the first Terminate to cut an interval short.
	stop chan struct{}
	done chan struct{}
}

// New creates a paused Daemon and launches its goroutine.
//
// Parameters:
//   - name: Identifier used in logs and diagnostics
//   - task: The unit of work to repeat
//   - opts: Optional settings
//
// Returns:
//   - *Daemon: A paused daemon; call Start to begin cycling
func New(name string, task Task, opts ...Option) *Daemon {
	d := &Daemon{
		name:   name,
		task:   task,
		active: true,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}

	go d.loop()
	return d
}

// Name returns the daemon's identifier.
func (d *Daemon) Name() string {
	return d.name
}

// Start runs the task once synchronously, then lets the background loop
// repeat it until Pause or Terminate.
//
// Returns:
//   - error: ErrTerminated if Terminate has been called
func (d *Daemon) Start() error {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return ErrTerminated
	}
	d.mu.Unlock()

	d.runTask()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return ErrTerminated
	}
	d.running = true
	d.cond.Broadcast()
	return nil
}

// Pause stops further background cycles. It does not wait for an
// in-flight cycle and is idempotent.
//
// Returns:
//   - error: ErrTerminated if Terminate has been called
func (d *Daemon) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return ErrTerminated
	}
	d.running = false
	return nil
}

// Terminate permanently stops the daemon. The background goroutine runs the
// task one final time and exits; Terminate returns once it has.
// Calling Terminate more than once is harmless.
func (d *Daemon) Terminate() error {
	d.mu.Lock()
	if d.active {
		d.active = false
		close(d.stop)
	}
	d.running = false
	d.cond.Broadcast()
	d.mu.Unlock()

	<-d.done
	return nil
}

// IsRunning reports whether the background loop is cycling.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// IsActive reports whether Terminate has not yet been called.
func (d *Daemon) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Done is closed once the background goroutine has exited.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

func (d *Daemon) loop() {
	defer close(d.done)

	for {
		d.mu.Lock()
		for d.active && !d.running {
			d.cond.Wait()
		}
		active := d.active
		d.mu.Unlock()

		d.runTask()
		if !active {
			return
		}

		if d.interval > 0 {
			t := time.NewTimer(d.interval)
			select {
			case <-t.C:
			case <-d.stop:
				t.Stop()
			}
		}
	}
}

func (d *Daemon) runTask() {
	d.taskMu.Lock()
	defer d.taskMu.Unlock()
	d.task()
}
