package controller

import (
	"time"

	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Observer is notified of what the controller does. Calls are made from
// the controller's goroutines and must not block.
type Observer interface {
	// OnEvent is called for every event the controller accepts.
	OnEvent(evt nav.Event)
	// OnAction is called when an action starts executing.
	OnAction(a nav.Action)
	// OnActionDone is called when an action's handler returns.
	OnActionDone(a nav.Action, elapsed time.Duration, err error)
	// OnFinish is called once when the run ends; err is nil after Celebrate.
	OnFinish(err error)
}

// NopObserver implements Observer with no-ops. Embed it to handle only
// some notifications.
type NopObserver struct{}

func (NopObserver) OnEvent(nav.Event)                             {}
func (NopObserver) OnAction(nav.Action)                           {}
func (NopObserver) OnActionDone(nav.Action, time.Duration, error) {}
func (NopObserver) OnFinish(error)                                {}
