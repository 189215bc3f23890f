// Package mask rasterizes a track's annotation layer into a float coverage
// mask aligned with the marker's search window.
//
// Responsibilities: transform marker-relative strokes into search pixels,
// clip them to the search window and fill them with anti-aliasing.
// Key types: none; Rasterize is the entry point.
//
// Dependency rule: mask depends on geom and track only.
package mask
