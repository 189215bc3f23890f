// Package coords converts marker geometry between the three coordinate
// frames used by tracking.
//
// Frames: "frame" is the whole image, "search" is the marker's search window
// with its origin at the pixel-snapped bottom-left corner, "marker" is
// relative to the marker position. Units are "unified" (0..1 of the frame
// size) or "pixel".
// Key types: Coords.
//
// Dependency rule: coords depends only on geom and track. All functions are
// pure.
package coords
