// Package daemon provides a pausable background worker.
//
// A Daemon wraps one repeatable unit of work (a Task) and owns exactly one
// goroutine that calls it in a loop while the daemon is running. The
// lifecycle is:
//
//	New ──▶ paused ──Start──▶ running ──Pause──▶ paused
//	                  ▲                      │
//	                  └──────────Start───────┘
//	any state ──Terminate──▶ terminated (final run, goroutine exits)
//
// Start runs the task once on the caller's goroutine before returning, so a
// caller that starts a sensor daemon can read a fresh sample immediately.
// Pause only stops future cycles; an in-flight cycle finishes. Terminate is
// one-way: it forces a final cycle so the task can release hardware (return
// a rotated sensor to neutral, stop motors) and blocks until the goroutine
// has exited. Start and Pause after Terminate return ErrTerminated.
//
// Task invocations never overlap, whichever goroutine makes them.
//
// # Usage
//
//	d := daemon.New("sonar", s.cycle, daemon.WithInterval(50*time.Millisecond))
//	if err := d.Start(); err != nil { ... }
//	...
//	_ = d.Pause()
//	_ = d.Terminate()
package daemon
