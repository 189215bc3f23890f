// Package reconstruct solves camera or object motion from 2D tracks.
//
// Responsibilities: pre-flight checks, snapshotting an object's tracks into
// solver observations, driving a Solver with progress reporting, and
// writing bundles, camera poses, refined intrinsics and errors back into
// the registry. Rescale applies a scene scale to every solved object.
//
// Key types: Context, Solver, Result, Problem, ReferenceSolver.
//
// Dependency rule: reconstruct depends on registry, tracksmap, track,
// camera and geom. Solver backends plug in through the Solver interface.
package reconstruct
