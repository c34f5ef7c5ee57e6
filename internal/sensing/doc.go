// Package sensing fuses raw sensor readings into navigation events.
//
// Monitor owns the three downward colour sensors (left, right, front). Each
// cycle it reads all three, classifies every reading against the palette
// (best match, best blend partner with the road colour, blend ratio) and
// publishes edge-triggered events:
//
//   - intersection_detected when the front sensor's red channel rises above
//     the intersection threshold
//   - parking_lot_left/right_detected when a side sensor starts seeing the
//     parking colour, either outright or as a strong enough blend
//
// Each event fires once per crossing: a latch holds it off until the
// condition clears. Classified readings are kept per sensor behind their
// own lock, so readers never see a half-updated sensor, and the accessors
// refuse to answer while the monitor is paused.
//
// Sonar owns the rotating rangefinder. Its cycle looks straight ahead and
// publishes approaching_object / all_clear; Sweep scans an arc for the
// actions that need to know whether a space is free.
//
// Calibrator walks an operator through black/white and palette
// calibration; CalibrationStore persists the result in SQLite.
package sensing
