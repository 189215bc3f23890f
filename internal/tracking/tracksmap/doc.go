// Package tracksmap holds the working copy of tracks used by an in-flight
// tracking or reconstruction run and merges it back into the registry.
//
// Responsibilities: deep-copying tracks at the start of a run, carrying
// per-track engine state alongside them, and merging results back while
// keeping track identity, user flag changes and name uniqueness.
//
// Key types: Map.
//
// Dependency rule: tracksmap depends on registry and track. Identity is the
// track ID assigned by the registry, never a pointer.
package tracksmap
