//go:build !gocv

package main

import (
	"fmt"

	"github.com/banshee-data/motiontrack/internal/tracking/detect"
	"github.com/banshee-data/motiontrack/internal/tracking/regiontrack"
)

// trackerNames lists the region trackers compiled into this binary.
var trackerNames = []string{"ncc"}

func newTracker(name string) (regiontrack.Tracker, error) {
	switch name {
	case "", "ncc":
		return regiontrack.NCCTracker{}, nil
	}
	return nil, fmt.Errorf("unknown tracker %q (available: %v)", name, trackerNames)
}

func newDetector(name string, opts detect.Options) (detect.Detector, error) {
	switch name {
	case "", "fast":
		return detect.FASTDetector{Options: opts}, nil
	}
	return nil, fmt.Errorf("unknown detector %q (available: [fast])", name)
}
