package process

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start on a running supervisor.
	ErrAlreadyRunning = errors.New("process: already running")

	// ErrUnhealthy is returned when the watchdog kills a hung process.
	ErrUnhealthy = errors.New("process: health check failed")
)

// RecoverableError lets an exit error say whether a restart can help.
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable reports whether err permits a restart. Errors that do not
// implement RecoverableError are treated as recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return true
}

// permanentError marks a failure that no restart will fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string       { return e.err.Error() }
func (e *permanentError) Unwrap() error       { return e.err }
func (e *permanentError) IsRecoverable() bool { return false }

// permanent wraps a start failure that no restart will fix.
func permanent(format string, args ...any) error {
	return &permanentError{err: fmt.Errorf(format, args...)}
}
