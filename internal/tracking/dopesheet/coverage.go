package dopesheet

import (
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Coverage classifies a frame by the number of enabled markers on it.
type Coverage int

const (
	CoverageBad Coverage = iota
	CoverageAcceptable
	CoverageOK
)

func (c Coverage) String() string {
	switch c {
	case CoverageBad:
		return "bad"
	case CoverageAcceptable:
		return "acceptable"
	}
	return "ok"
}

// Track counts below which a frame is poorly covered.
const (
	badBelow        = 8
	acceptableBelow = 16
)

func coverageFromCount(n int) Coverage {
	switch {
	case n < badBelow:
		return CoverageBad
	case n < acceptableBelow:
		return CoverageAcceptable
	}
	return CoverageOK
}

// CoverageSegment is a run of frames sharing one classification. Start and
// End are inclusive.
type CoverageSegment struct {
	Coverage Coverage
	Start    int
	End      int
}

// coverage classifies every frame between the first and last marker of
// tracks. An empty first or last frame only holds disabled boundary markers
// and counts as OK; empty frames further inside stay bad.
func coverage(tracks []*track.Track) []CoverageSegment {
	start, end := math.MaxInt, math.MinInt
	for _, t := range tracks {
		if len(t.Markers) == 0 {
			continue
		}
		start = min(start, t.Markers[0].Frame)
		end = max(end, t.Markers[len(t.Markers)-1].Frame)
	}
	if start > end {
		return nil
	}

	counts := make([]int, end-start+1)
	for _, t := range tracks {
		for i := range t.Markers {
			if t.Markers[i].Enabled() {
				counts[t.Markers[i].Frame-start]++
			}
		}
	}

	var out []CoverageSegment
	for i, n := range counts {
		c := coverageFromCount(n)
		if n == 0 && (i == 0 || i == len(counts)-1) {
			c = CoverageOK
		}
		frame := start + i
		if k := len(out) - 1; k >= 0 && out[k].Coverage == c {
			out[k].End = frame
			continue
		}
		out = append(out, CoverageSegment{Coverage: c, Start: frame, End: frame})
	}
	return out
}
