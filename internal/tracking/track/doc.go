// Package track owns tracks and their per-frame markers.
//
// Responsibilities: the marker store (sorted per-track marker arrays with
// nearest-before lookup and a last-accessed cache), marker clamping, path
// clearing, joining of two tracks, sub-frame positions, selection flags and
// annotation layers used for masks and detection filters.
// Key types: Marker, Track, Layer.
//
// Dependency rule: track depends only on geom. It knows nothing about
// objects, images or solvers.
package track
