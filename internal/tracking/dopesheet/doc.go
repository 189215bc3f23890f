// Package dopesheet summarises how well the active object is tracked: one
// channel per track with its continuously tracked segments, and coverage
// segments classifying every frame by how many tracks are enabled on it.
//
// The dopesheet is rebuilt lazily. Update compares the registry revision
// and the display options against the last build and does nothing when
// both are unchanged.
//
// Key types: Dopesheet, Channel, Segment, CoverageSegment, Options.
//
// Dependency rule: dopesheet depends on registry and track only.
package dopesheet
