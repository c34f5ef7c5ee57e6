// Package runlog keeps the history of missions in SQLite.
//
// Every `parkrunner run` creates one Run: the mission it was given, the
// planned node path and its cost, when it started and finished, and how it
// ended. While the run is in progress the Recorder appends every action the
// controller dispatches and every event it accepts, in order.
//
// The status API reads the history back through Repository.
//
// Thread Safety: SQLiteRepository is safe for concurrent use. Recorder's
// observer methods are safe to call from the controller's goroutines; the
// writes happen on one background goroutine.
package runlog
