// Package steering implements the closed-loop line follower.
//
// Each cycle the Follower reads the left and right blend ratios from the
// colour monitor and maps them to signed errors in [-1, 1]. From those it
// derives three terms:
//
//   - angular error: the negated time derivative of (left - right)
//   - derivative of angular error: the negated time derivative of the above
//   - position error: a trust-weighted difference of left and right, where a
//     reading far from zero is trusted less
//
// The steering command is -(angular·P + position·I + derivative·D). Travel
// speed is the lesser of the externally imposed maximum and the top speed,
// softened in proportion to |position error|.
//
// Gains are live-tunable (Tune, SetGains, HandleTuneCommand) and persisted
// through a GainStore.
package steering
