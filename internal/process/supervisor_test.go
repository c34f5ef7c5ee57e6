package process

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/infrastructure/config"
)

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	var b strings.Builder
	b.WriteString(level + " " + msg)
	for i := 0; i+1 < len(args); i += 2 {
		if s, ok := args[i+1].(string); ok {
			b.WriteString(" " + args[i].(string) + "=" + s)
		}
	}
	l.mu.Lock()
	l.lines = append(l.lines, b.String())
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func (l *recordingLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func waitDone(t *testing.T, s *Supervisor, timeout time.Duration) {
	t.Helper()
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("supervisor did not finish within %v", timeout)
	}
}

func TestNewSupervisor_Defaults(t *testing.T) {
	s := NewSupervisor(Config{
		Name:   "test-proc",
		Binary: "/usr/bin/test",
		Args:   []string{"--flag"},
	})

	if s.config.RestartDelay != 5*time.Second {
		t.Errorf("RestartDelay = %v, want %v", s.config.RestartDelay, 5*time.Second)
	}
	if s.config.MaxRestartDelay != 5*time.Minute {
		t.Errorf("MaxRestartDelay = %v, want %v", s.config.MaxRestartDelay, 5*time.Minute)
	}
	if s.config.StableThreshold != 2*time.Minute {
		t.Errorf("StableThreshold = %v, want %v", s.config.StableThreshold, 2*time.Minute)
	}
	if s.config.GracefulTimeout != 10*time.Second {
		t.Errorf("GracefulTimeout = %v, want %v", s.config.GracefulTimeout, 10*time.Second)
	}
	if s.config.HealthCheckInterval != 30*time.Second {
		t.Errorf("HealthCheckInterval = %v, want %v", s.config.HealthCheckInterval, 30*time.Second)
	}
}

func TestConfigFromBridge(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		cfg := ConfigFromBridge(config.BridgeConfig{
			Name:                "ev3",
			Binary:              "/opt/parkrunner/ev3-bridge",
			Args:                []string{"--broker", "tcp://localhost:1883"},
			RestartDelay:        time.Second,
			MaxRestartDelay:     time.Minute,
			MaxRestartAttempts:  3,
			StableRunThreshold:  30 * time.Second,
			ShutdownGracePeriod: 2 * time.Second,
		})
		if cfg.Name != "ev3-bridge" || cfg.Binary != "/opt/parkrunner/ev3-bridge" || len(cfg.Args) != 2 {
			t.Errorf("identity = %q %q %v", cfg.Name, cfg.Binary, cfg.Args)
		}
		if !cfg.RestartOnFailure {
			t.Error("bridge restarts should be enabled")
		}
		if cfg.RestartDelay != time.Second || cfg.MaxRestartDelay != time.Minute ||
			cfg.MaxRestartAttempts != 3 || cfg.StableThreshold != 30*time.Second ||
			cfg.GracefulTimeout != 2*time.Second {
			t.Errorf("timings = %+v", cfg)
		}
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		cfg := ConfigFromBridge(config.BridgeConfig{Name: "ev3", Binary: "/bin/true"})
		def := DefaultConfig("x", "y", nil)
		if cfg.RestartDelay != def.RestartDelay || cfg.MaxRestartAttempts != def.MaxRestartAttempts ||
			cfg.GracefulTimeout != def.GracefulTimeout {
			t.Errorf("cfg = %+v, want defaults", cfg)
		}
	})
}

func TestSupervisor_InitialState(t *testing.T) {
	s := NewSupervisor(Config{Name: "test", Binary: "/bin/true"})

	if s.Status() != StatusStopped {
		t.Errorf("initial Status() = %q, want %q", s.Status(), StatusStopped)
	}
	if s.IsRunning() || s.PID() != 0 || s.RestartCount() != 0 || s.Uptime() != 0 || s.LastError() != nil {
		t.Errorf("initial stats = %+v", s.Stats())
	}
	if stats := s.Stats(); stats.Name != "test" || stats.Status != StatusStopped {
		t.Errorf("Stats() = %+v", stats)
	}

	// Stopping a supervisor that never started is a no-op.
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() on stopped process error = %v, want nil", err)
	}
}

func TestSupervisor_StartAndStop(t *testing.T) {
	started := make(chan struct{}, 1)
	s := NewSupervisor(Config{
		Name:            "test-sleep",
		Binary:          "/bin/sleep",
		Args:            []string{"60"},
		GracefulTimeout: 2 * time.Second,
		OnStart:         func() { started <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	select {
	case <-started:
	default:
		t.Error("OnStart callback was not called")
	}

	if !s.IsRunning() || s.PID() == 0 {
		t.Errorf("after Start: running=%v pid=%d", s.IsRunning(), s.PID())
	}

	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if s.IsRunning() || s.Status() != StatusStopped {
		t.Errorf("after Stop: status = %q", s.Status())
	}
	if s.PID() != 0 {
		t.Errorf("PID() = %d after Stop, want 0", s.PID())
	}
}

func TestSupervisor_StartWithInvalidBinary(t *testing.T) {
	s := NewSupervisor(Config{Name: "bad-binary", Binary: "/nonexistent/binary"})

	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("Start() with invalid binary expected error, got nil")
	}
	if IsRecoverable(err) {
		t.Errorf("missing binary should not be recoverable: %v", err)
	}
	if s.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", s.Status(), StatusFailed)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() after failed start: %v", err)
	}
}

func TestSupervisor_CapturesOutput(t *testing.T) {
	logger := &recordingLogger{}
	stopped := make(chan error, 1)
	s := NewSupervisor(Config{
		Name:   "talker",
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo bridge ready; echo motor port B missing >&2"},
		OnStop: func(err error) { stopped <- err },
	})
	s.SetLogger(logger)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, s, 5*time.Second)

	if !logger.contains("INFO process output name=talker stream=stdout line=bridge ready") {
		t.Errorf("stdout line not logged at info: %v", logger.lines)
	}
	if !logger.contains("WARN process output name=talker stream=stderr line=motor port B missing") {
		t.Errorf("stderr line not logged at warn: %v", logger.lines)
	}

	// A clean exit is still unexpected for a bridge.
	select {
	case err := <-stopped:
		if err == nil {
			t.Error("OnStop error = nil, want unexpected exit")
		}
	default:
		t.Error("OnStop was not called")
	}
	if s.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", s.Status(), StatusFailed)
	}
}

func TestSupervisor_RestartsWithCappedAttempts(t *testing.T) {
	var mu sync.Mutex
	var attempts []int
	s := NewSupervisor(Config{
		Name:               "crasher",
		Binary:             "/bin/sh",
		Args:               []string{"-c", "exit 3"},
		RestartOnFailure:   true,
		RestartDelay:       10 * time.Millisecond,
		MaxRestartDelay:    20 * time.Millisecond,
		MaxRestartAttempts: 2,
		OnRestart: func(attempt int) {
			mu.Lock()
			attempts = append(attempts, attempt)
			mu.Unlock()
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, s, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("restart attempts = %v, want [1 2]", attempts)
	}
	if s.Status() != StatusFailed || s.LastError() == nil {
		t.Errorf("status = %q, last error = %v", s.Status(), s.LastError())
	}
}

func TestSupervisor_StopDuringBackoff(t *testing.T) {
	restarting := make(chan struct{}, 1)
	s := NewSupervisor(Config{
		Name:             "crasher",
		Binary:           "/bin/sh",
		Args:             []string{"-c", "exit 1"},
		RestartOnFailure: true,
		RestartDelay:     time.Hour,
		MaxRestartDelay:  time.Hour,
		OnRestart:        func(int) { restarting <- struct{}{} },
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	select {
	case <-restarting:
	case <-time.After(5 * time.Second):
		t.Fatal("process was not scheduled for restart")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on the back-off delay")
	}
	if s.Status() != StatusStopped {
		t.Errorf("Status() = %q, want %q", s.Status(), StatusStopped)
	}
}

func TestSupervisor_ContextCancel(t *testing.T) {
	s := NewSupervisor(Config{
		Name:             "sleeper",
		Binary:           "/bin/sleep",
		Args:             []string{"60"},
		RestartOnFailure: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	cancel()
	waitDone(t, s, 5*time.Second)

	if s.Status() != StatusStopped {
		t.Errorf("Status() = %q, want %q", s.Status(), StatusStopped)
	}
}

func TestSupervisor_HealthCheckKillsHungProcess(t *testing.T) {
	s := NewSupervisor(Config{
		Name:                "hung",
		Binary:              "/bin/sleep",
		Args:                []string{"60"},
		HealthCheckInterval: 10 * time.Millisecond,
		HealthCheckFunc: func(context.Context) error {
			return errors.New("bridge offline")
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitDone(t, s, 5*time.Second)

	if !errors.Is(s.LastError(), ErrUnhealthy) {
		t.Errorf("LastError() = %v, want ErrUnhealthy", s.LastError())
	}
}

func TestCalculateBackoffDelay(t *testing.T) {
	s := NewSupervisor(Config{
		Name:            "test",
		Binary:          "/bin/true",
		RestartDelay:    1 * time.Second,
		MaxRestartDelay: 30 * time.Second,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{7, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := s.calculateBackoffDelay(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"plain error", context.DeadlineExceeded, true},
		{"recoverable", &testRecoverableError{recoverable: true}, true},
		{"non-recoverable", &testRecoverableError{recoverable: false}, false},
		{"permanent", permanent("starting %s: %w", "ev3", errors.New("no such file")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// testRecoverableError implements RecoverableError for testing.
type testRecoverableError struct {
	recoverable bool
}

func (e *testRecoverableError) Error() string       { return "test error" }
func (e *testRecoverableError) IsRecoverable() bool { return e.recoverable }
