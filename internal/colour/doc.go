// Package colour provides the RGB value type and named palette used to
// interpret the robot's colour sensors.
//
// Channels are normalised to [0,1]. Beyond matching a reading against
// reference colours, the package can explain a reading as a mix of two
// references: Blend produces the mix, Composition recovers the ratio, and
// Palette.BestBlend finds which candidate, mixed with a known base colour
// (the road), best explains what a sensor straddling an edge sees.
package colour
