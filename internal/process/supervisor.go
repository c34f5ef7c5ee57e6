package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
)

// Status represents the current state of a supervised process.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusFailed   Status = "failed"
)

// maxLineLength bounds one captured output line.
const maxLineLength = 64 * 1024

// Config holds configuration for a supervised subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string

	// WorkDir is the working directory for the process.
	// If empty, inherits from parent process.
	WorkDir string

	// RestartOnFailure enables automatic restart when the process exits unexpectedly.
	RestartOnFailure bool

	// RestartDelay is the first back-off delay; it doubles per attempt.
	RestartDelay time.Duration

	// MaxRestartDelay caps the back-off delay.
	MaxRestartDelay time.Duration

	// MaxRestartAttempts limits consecutive restart attempts. 0 means unlimited.
	MaxRestartAttempts int

	// StableThreshold is how long a process must run before its restart
	// count is reset.
	StableThreshold time.Duration

	// GracefulTimeout is how long to wait for graceful shutdown before SIGKILL.
	GracefulTimeout time.Duration

	// HealthCheckFunc is called periodically to verify the process is healthy.
	// If nil, the process is considered healthy while running.
	HealthCheckFunc func(ctx context.Context) error

	// HealthCheckInterval is how often to run health checks.
	HealthCheckInterval time.Duration

	// OnStart is called when the process starts successfully.
	OnStart func()

	// OnStop is called when the process stops (either normally or due to failure).
	OnStop func(err error)

	// OnRestart is called before each restart attempt.
	OnRestart func(attempt int)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name, binary string, args []string) Config {
	return Config{
		Name:                name,
		Binary:              binary,
		Args:                args,
		RestartOnFailure:    true,
		RestartDelay:        5 * time.Second,
		MaxRestartDelay:     5 * time.Minute,
		MaxRestartAttempts:  10,
		StableThreshold:     2 * time.Minute,
		GracefulTimeout:     10 * time.Second,
		HealthCheckInterval: 30 * time.Second,
	}
}

// ConfigFromBridge builds a supervisor config from the bridge section.
// Zero durations fall back to DefaultConfig's values.
func ConfigFromBridge(b config.BridgeConfig) Config {
	cfg := DefaultConfig(b.Name+"-bridge", b.Binary, b.Args)
	if b.RestartDelay > 0 {
		cfg.RestartDelay = b.RestartDelay
	}
	if b.MaxRestartDelay > 0 {
		cfg.MaxRestartDelay = b.MaxRestartDelay
	}
	if b.MaxRestartAttempts > 0 {
		cfg.MaxRestartAttempts = b.MaxRestartAttempts
	}
	if b.StableRunThreshold > 0 {
		cfg.StableThreshold = b.StableRunThreshold
	}
	if b.ShutdownGracePeriod > 0 {
		cfg.GracefulTimeout = b.ShutdownGracePeriod
	}
	return cfg
}

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor manages the lifecycle of one subprocess.
//
// Thread Safety:
//   - All methods are safe for concurrent use. SetLogger must be called
//     before Start.
type Supervisor struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	cmd           *exec.Cmd
	outputs       *sync.WaitGroup
	status        Status
	restartCount  int
	lastError     error
	startTime     time.Time
	stopRequested bool

	stop chan struct{}
	done chan struct{}
}

// NewSupervisor creates a supervisor with the given configuration.
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = 5 * time.Second
	}
	if cfg.MaxRestartDelay == 0 {
		cfg.MaxRestartDelay = 5 * time.Minute
	}
	if cfg.StableThreshold == 0 {
		cfg.StableThreshold = 2 * time.Minute
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 10 * time.Second
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}

	return &Supervisor{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger. A nil logger disables logging.
func (s *Supervisor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Start launches the subprocess and begins monitoring it.
//
// Returns:
//   - error: ErrAlreadyRunning, or the launch failure
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusRunning || s.status == StatusStarting {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, s.config.Name)
	}
	s.status = StatusStarting
	s.stopRequested = false
	s.restartCount = 0
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	if err := s.startProcess(ctx); err != nil {
		s.mu.Lock()
		s.status = StatusFailed
		s.lastError = err
		close(s.done)
		s.mu.Unlock()
		return err
	}

	go s.monitor(ctx)
	return nil
}

func (s *Supervisor) startProcess(ctx context.Context) error {
	s.logger.Info("starting process",
		"name", s.config.Name,
		"binary", s.config.Binary,
		"args", s.config.Args,
	)

	cmd := exec.CommandContext(ctx, s.config.Binary, s.config.Args...) //nolint:gosec // Binary comes from operator config

	// New process group so shutdown signals reach the bridge's children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	if s.config.Env != nil {
		cmd.Env = append(os.Environ(), s.config.Env...)
	}
	if s.config.WorkDir != "" {
		cmd.Dir = s.config.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return permanent("starting %s: %w", s.config.Name, err)
		}
		return fmt.Errorf("starting %s: %w", s.config.Name, err)
	}

	outputs := &sync.WaitGroup{}
	outputs.Add(2)
	go s.captureOutput(outputs, "stdout", stdout)
	go s.captureOutput(outputs, "stderr", stderr)

	s.mu.Lock()
	s.cmd = cmd
	s.outputs = outputs
	s.status = StatusRunning
	s.startTime = time.Now()
	s.mu.Unlock()

	s.logger.Info("process started",
		"name", s.config.Name,
		"pid", cmd.Process.Pid,
	)

	if s.config.OnStart != nil {
		s.config.OnStart()
	}
	return nil
}

// captureOutput logs each line the process writes. stderr lines are
// logged at Warn, stdout at Info.
func (s *Supervisor) captureOutput(wg *sync.WaitGroup, stream string, r io.Reader) {
	defer wg.Done()
	log := s.logger.Info
	if stream == "stderr" {
		log = s.logger.Warn
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 4096), maxLineLength)
	for sc.Scan() {
		log("process output",
			"name", s.config.Name,
			"stream", stream,
			"line", sc.Text(),
		)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Debug("output stream closed",
			"name", s.config.Name,
			"stream", stream,
			"error", err,
		)
	}
}

// waitForExitOrHealthFailure waits for the process to exit, killing its
// process group after three consecutive health check failures. Output is
// drained before Wait closes the pipes.
func (s *Supervisor) waitForExitOrHealthFailure(ctx context.Context, cmd *exec.Cmd, outputs *sync.WaitGroup) error {
	exitCh := make(chan error, 1)
	go func() {
		outputs.Wait()
		exitCh <- cmd.Wait()
	}()

	if s.config.HealthCheckFunc == nil {
		return <-exitCh
	}

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	consecutiveFailures := 0
	const maxConsecutiveFailures = 3

	for {
		select {
		case err := <-exitCh:
			return err

		case <-ctx.Done():
			// CommandContext kills the process; collect its exit.
			<-exitCh
			return ctx.Err()

		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := s.config.HealthCheckFunc(checkCtx)
			cancel()

			if err == nil {
				if consecutiveFailures > 0 {
					s.logger.Info("health check recovered",
						"name", s.config.Name,
						"previous_failures", consecutiveFailures,
					)
				}
				consecutiveFailures = 0
				continue
			}

			consecutiveFailures++
			s.logger.Warn("health check failed",
				"name", s.config.Name,
				"error", err,
				"consecutive_failures", consecutiveFailures,
			)
			if consecutiveFailures < maxConsecutiveFailures {
				continue
			}

			s.logger.Error("health check failed repeatedly, killing process",
				"name", s.config.Name,
				"failures", consecutiveFailures,
			)
			if cmd.Process != nil {
				syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) //nolint:errcheck // Exit collected below
			}
			select {
			case <-exitCh:
			case <-time.After(5 * time.Second):
			}
			return fmt.Errorf("%w after %d attempts: %w", ErrUnhealthy, consecutiveFailures, err)
		}
	}
}

// calculateBackoffDelay returns RestartDelay × 2^(attempt-1), capped at
// MaxRestartDelay.
func (s *Supervisor) calculateBackoffDelay(attempt int) time.Duration {
	delay := s.config.RestartDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.config.MaxRestartDelay {
			return s.config.MaxRestartDelay
		}
	}
	return min(delay, s.config.MaxRestartDelay)
}

// monitor watches the process and handles restarts.
func (s *Supervisor) monitor(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.RLock()
		cmd, outputs := s.cmd, s.outputs
		started := s.startTime
		s.mu.RUnlock()

		err := s.waitForExitOrHealthFailure(ctx, cmd, outputs)

		s.mu.Lock()
		stopRequested := s.stopRequested
		if time.Since(started) >= s.config.StableThreshold {
			s.restartCount = 0
		}
		s.mu.Unlock()

		if stopRequested || ctx.Err() != nil {
			s.logger.Info("process stopped", "name", s.config.Name)
			s.setStopped(nil)
			if s.config.OnStop != nil {
				s.config.OnStop(nil)
			}
			return
		}

		s.logger.Warn("process exited unexpectedly",
			"name", s.config.Name,
			"error", err,
		)
		if err == nil {
			err = fmt.Errorf("%s exited", s.config.Name)
		}
		s.setFailed(err)
		if s.config.OnStop != nil {
			s.config.OnStop(err)
		}

		if !s.config.RestartOnFailure {
			s.logger.Info("restart disabled, not restarting", "name", s.config.Name)
			return
		}

		if !s.restart(ctx) {
			return
		}
	}
}

// restart waits out the back-off and relaunches the process, retrying
// launch failures. It returns false when supervision should end.
func (s *Supervisor) restart(ctx context.Context) bool {
	for {
		s.mu.Lock()
		s.restartCount++
		attempt := s.restartCount
		s.mu.Unlock()

		if s.config.MaxRestartAttempts > 0 && attempt > s.config.MaxRestartAttempts {
			s.logger.Error("max restart attempts reached",
				"name", s.config.Name,
				"attempts", attempt-1,
			)
			return false
		}

		delay := s.calculateBackoffDelay(attempt)
		s.logger.Info("restarting process",
			"name", s.config.Name,
			"attempt", attempt,
			"delay", delay,
		)
		if s.config.OnRestart != nil {
			s.config.OnRestart(attempt)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, not restarting", "name", s.config.Name)
			return false
		case <-s.stop:
			s.setStopped(nil)
			return false
		case <-time.After(delay):
		}

		err := s.startProcess(ctx)
		if err == nil {
			s.mu.RLock()
			stopping, pid := s.stopRequested, s.cmd.Process.Pid
			s.mu.RUnlock()
			if stopping {
				syscall.Kill(-pid, syscall.SIGTERM) //nolint:errcheck // Exit collected by monitor
			}
			return true
		}
		s.logger.Error("failed to restart process",
			"name", s.config.Name,
			"error", err,
		)
		s.setFailed(err)
		if !IsRecoverable(err) {
			return false
		}
	}
}

func (s *Supervisor) setStopped(err error) {
	s.mu.Lock()
	s.status = StatusStopped
	s.lastError = err
	s.mu.Unlock()
}

func (s *Supervisor) setFailed(err error) {
	s.mu.Lock()
	s.status = StatusFailed
	s.lastError = err
	s.mu.Unlock()
}

// Stop gracefully stops the subprocess and ends supervision.
// It sends SIGTERM to the process group, then SIGKILL after GracefulTimeout.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.done == nil {
		s.mu.Unlock()
		return nil
	}
	if !s.stopRequested {
		s.stopRequested = true
		close(s.stop)
	}
	cmd := s.cmd
	done := s.done
	running := s.status == StatusRunning
	s.mu.Unlock()

	if !running || cmd == nil || cmd.Process == nil {
		<-done
		return nil
	}

	pid := cmd.Process.Pid
	s.logger.Info("stopping process", "name", s.config.Name, "pid", pid)

	// Negative PID signals the process group created via Setpgid.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		s.logger.Warn("failed to send SIGTERM to process group", "name", s.config.Name, "error", err)
	}

	select {
	case <-done:
		s.logger.Info("process stopped gracefully", "name", s.config.Name)
		return nil
	case <-time.After(s.config.GracefulTimeout):
		s.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", s.config.Name,
			"timeout", s.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("killing process group %s: %w", s.config.Name, err)
	}

	<-done
	s.logger.Info("process killed", "name", s.config.Name)
	return nil
}

// Status returns the current status of the supervised process.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsRunning returns true if the process is currently running.
func (s *Supervisor) IsRunning() bool {
	return s.Status() == StatusRunning
}

// LastError returns the last error that caused the process to exit.
func (s *Supervisor) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// RestartCount returns the number of consecutive restart attempts.
func (s *Supervisor) RestartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restartCount
}

// Uptime returns how long the process has been running, or 0.
func (s *Supervisor) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusRunning {
		return 0
	}
	return time.Since(s.startTime)
}

// PID returns the process ID, or 0 if not running.
func (s *Supervisor) PID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == StatusRunning && s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Process.Pid
	}
	return 0
}

// Stats is a snapshot of the supervised process.
type Stats struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	PID          int           `json:"pid,omitempty"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	RestartCount int           `json:"restart_count"`
	LastError    string        `json:"last_error,omitempty"`
}

// Stats returns current statistics for the process.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Name:         s.config.Name,
		Status:       s.status,
		RestartCount: s.restartCount,
	}
	if s.status == StatusRunning && s.cmd != nil && s.cmd.Process != nil {
		stats.PID = s.cmd.Process.Pid
		stats.Uptime = time.Since(s.startTime)
	}
	if s.lastError != nil {
		stats.LastError = s.lastError.Error()
	}
	return stats
}
