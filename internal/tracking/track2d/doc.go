// Package track2d drives frame-by-frame 2D tracking of selected tracks.
//
// Responsibilities: snapshotting eligible tracks at the start of a run,
// building reference patches (keyframe or previous frame), running the
// region tracker for every track in parallel, committing new markers in a
// serial phase with disabled boundary markers, merging progress back into
// the registry and single-marker refinement.
//
// Key types: Context, Stats.
//
// Dependency rule: track2d depends on registry, tracksmap, regiontrack,
// imbuf, mask, coords and track. It never touches solver or storage code.
package track2d
