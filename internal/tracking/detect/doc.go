// Package detect finds trackable corners in a frame and seeds tracks on
// them.
//
// Key types: Detector, Feature, FASTDetector, Options.
//
// Dependency rule: detect depends on imbuf, registry and track. The OpenCV
// detector is only built with the gocv build tag.
package detect
