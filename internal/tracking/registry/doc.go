// Package registry holds the live tracking set: objects, their tracks and
// reconstructions, the camera, stabilization settings and the session
// clipboard.
//
// Responsibilities: object and track lifecycle with forced name
// uniqueness, lookups by name, ID and bundle ordinal, validated active and
// rotation track references, selection, copy/paste, reconstructed camera
// queries and a revision counter bumped on every mutation.
//
// Key types: Tracking, Object, Reconstruction, CameraPose, Settings,
// Stabilization.
//
// Dependency rule: registry depends on track, camera, geom and config. The
// engines (track2d, reconstruct, stabilize, dopesheet) depend on registry,
// never the reverse.
package registry
