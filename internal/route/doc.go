// Package route plans the robot's tour of the course.
//
// The course is a directed graph whose nodes are intersections ("I03") and
// parking lots ("L05A"). Each arc carries a length and two headings: the
// heading on entering the arc at its source and the heading on arriving at
// its destination. The turn the robot makes at an intersection B between
// arcs A→B and B→C is the arriving heading of A→B minus the leaving
// heading of B→C, normalised into [-90, 90].
//
// Map files hold one arc per line:
//
//	SRC-DEST:weight;heading          # same heading at both ends
//	SRC-DEST:weight;entry-exit
//
// Planner finds the cheapest order in which to visit a set of required
// lots, by running Dijkstra between every pair of interesting nodes and
// trying every permutation of the lots. Stop counts are a handful, so the
// exhaustive search is cheap.
//
// The planned node list concatenates the legs whole, so every stop appears
// twice in a row ("... I01, L01A, L01A, I01 ..."). The course package reads
// that repetition as "park here".
package route
