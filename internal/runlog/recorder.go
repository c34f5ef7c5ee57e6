package runlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/controller"
	"github.com/nerrad567/parkrunner-core/internal/nav"
)

var _ controller.Observer = (*Recorder)(nil)

// recorderQueue bounds writes waiting for the database.
const recorderQueue = 256

// writeTimeout bounds each database write.
const writeTimeout = 5 * time.Second

// Logger is the logging interface used by this package.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes one run's history as the controller reports it.
// Observer calls only enqueue; a background goroutine does the writes in
// order. When the queue is full the write is dropped and logged.
type Recorder struct {
	repo   Repository
	run    *Run
	logger Logger

	queue     chan func(context.Context) error
	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewRecorder creates a recorder for run. A nil logger disables logging.
func NewRecorder(repo Repository, run *Run, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:   repo,
		run:    run,
		logger: logger,
		queue:  make(chan func(context.Context) error, recorderQueue),
	}
}

// RunID returns the ID of the run being recorded.
func (r *Recorder) RunID() string { return r.run.ID }

// Start inserts the run record and starts the writer.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.repo.Create(ctx, r.run); err != nil {
		return err
	}
	r.wg.Add(1)
	go r.write()
	return nil
}

// Close flushes pending writes and stops the writer.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	r.wg.Wait()
}

func (r *Recorder) OnEvent(evt nav.Event) {
	r.enqueue("event", func(ctx context.Context) error {
		return r.repo.AppendEvent(ctx, r.run.ID, evt)
	})
}

func (r *Recorder) OnAction(a nav.Action) {
	rec, at := nav.Record(a), time.Now()
	r.enqueue("action", func(ctx context.Context) error {
		return r.repo.AppendAction(ctx, r.run.ID, rec, at)
	})
}

// OnActionDone is a no-op; a failing action is recorded by OnFinish.
func (r *Recorder) OnActionDone(nav.Action, time.Duration, error) {}

func (r *Recorder) OnFinish(err error) {
	outcome, msg := OutcomeFor(err)
	r.enqueue("finish", func(ctx context.Context) error {
		return r.repo.Finish(ctx, r.run.ID, outcome, msg)
	})
}

// OutcomeFor classifies the error a controller run ended with.
func OutcomeFor(err error) (Outcome, string) {
	switch {
	case err == nil:
		return OutcomeCompleted, ""
	case errors.Is(err, controller.ErrClosed), errors.Is(err, context.Canceled):
		return OutcomeAborted, err.Error()
	default:
		return OutcomeFailed, err.Error()
	}
}

func (r *Recorder) enqueue(what string, fn func(context.Context) error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- fn:
	default:
		r.logger.Warn("run log queue full, dropping write", "run_id", r.run.ID, "write", what)
	}
}

func (r *Recorder) write() {
	defer r.wg.Done()
	for fn := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := fn(ctx); err != nil {
			r.logger.Error("run log write failed", "run_id", r.run.ID, "error", err)
		}
		cancel()
	}
}
