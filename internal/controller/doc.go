// Package controller executes the course.
//
// The Controller listens to the colour monitor and the sonar. Collision
// events (approaching_object, all_clear) only cap the line follower's
// speed. Every other event goes to the course, whose next action is queued
// on a single executor goroutine, so at most one manoeuvre runs at a time.
//
// Events are only considered while no action is in flight. An action that
// hands over to another (intersection → line follow, park → pull out)
// queues its successor before it returns, so the whole chain runs without
// interruption. Line following returns at once: the follower and sonar keep
// the robot moving until the next event.
//
// Typical use:
//
//	ctrl, err := controller.New(deps, cfg.Robot, cfg.Sonar)
//	if err != nil { ... }
//	if err := ctrl.Start(ctx); err != nil { ... }
//	err = ctrl.Wait(ctx)
//	ctrl.Close()
package controller
