// Package api implements the HTTP status API and WebSocket live feed for
// parkrunner.
//
// This package provides:
//   - REST endpoints for run status, the planned route, steering gains,
//     the glue override and run history
//   - WebSocket hub broadcasting events, actions and status frames
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The server is a local diagnostics surface on the robot. It reads the
// controller's status snapshot, the steering follower's gains and the run
// log; the only writes are replacing the steering gains and selecting the
// glue override. The Hub is
// registered as a controller observer so every accepted event and
// dispatched action reaches WebSocket clients as it happens.
//
// # Graceful Degradation
//
// Every collaborator except the logger is optional. Endpoints whose
// collaborator is missing answer 503 so a bench run without a database or
// a planning-only process still serves what it has.
package api
