// Package regiontrack finds where a reference pattern moved to inside a
// destination search window.
//
// Responsibilities: the Tracker request/result contract used by the 2D
// tracking engine and a pure Go implementation based on masked normalized
// cross-correlation. Building with the gocv tag adds a pyramidal
// Lucas-Kanade tracker backed by OpenCV.
//
// Key types: Tracker, Request, Options, Result, NCCTracker.
//
// Dependency rule: regiontrack depends on coords, imbuf and track only. It
// never sees markers or frames, just patches and pixel coordinates.
package regiontrack
