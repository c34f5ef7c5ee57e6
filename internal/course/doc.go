// Package course turns navigation events into the robot's next action.
//
// A Course is consulted by the controller: LogEvent records what just
// happened and NextAction returns what to do about it. NextAction is
// idempotent until the next LogEvent.
//
// StateMachine walks a planned node list (see package route). It keeps an
// index into the list and the side of the lot it is parked in, if any:
//
//	Event                     Action
//	intersection_detected     skip lot nodes; at the last node Celebrate,
//	                          otherwise Intersection{turn at the node}
//	intersection_navigated    LineFollow{previous → current}
//	parking_lot_*_detected    Park{side} if the plan repeats the current
//	                          node, otherwise LineFollow{current → next}
//	parked                    Pullout{parked side}
//	pulled_out                LineFollow{current → next}
//
// The first action is a Pullout from the starting base; Celebrate is
// terminal. Collision events (approaching_object, all_clear) are ignored.
//
// Scripted replays a fixed action list and is used for bench runs.
package course
