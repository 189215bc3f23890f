package track

import (
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

// MarkerFlag holds per-marker state bits.
type MarkerFlag uint8

const (
	// MarkerDisabled marks a frame where the track is not active. Disabled
	// markers bound tracked segments.
	MarkerDisabled MarkerFlag = 1 << iota
	// MarkerTracked marks a marker produced by the tracker rather than placed
	// by hand.
	MarkerTracked
)

// Marker is one track's geometric state at one frame. Pos is in unified
// frame space; PatternCorners, SearchMin and SearchMax are relative to Pos.
// Corners run counter-clockwise starting at the bottom-left one.
type Marker struct {
	Frame          int
	Pos            geom.Vec2
	PatternCorners [4]geom.Vec2
	SearchMin      geom.Vec2
	SearchMax      geom.Vec2
	Flag           MarkerFlag
}

// Disabled reports whether the marker is flagged disabled.
func (m *Marker) Disabled() bool { return m.Flag&MarkerDisabled != 0 }

// Enabled reports whether the marker is not disabled.
func (m *Marker) Enabled() bool { return m.Flag&MarkerDisabled == 0 }

// PatternMinMax returns the bounding box of the pattern corners relative to
// the marker position.
func (m *Marker) PatternMinMax() (min, max geom.Vec2) {
	min = geom.Vec2{X: math.Inf(1), Y: math.Inf(1)}
	max = geom.Vec2{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, c := range m.PatternCorners {
		min = geom.MinV(min, c)
		max = geom.MaxV(max, c)
	}
	return min, max
}

// ClampMode selects which edit a clamp follows.
type ClampMode int

const (
	// ClampPatternDim is applied after the pattern was resized.
	ClampPatternDim ClampMode = iota
	// ClampPatternPos is applied after the pattern was moved.
	ClampPatternPos
	// ClampSearchDim is applied after the search area was resized.
	ClampSearchDim
	// ClampSearchPos is applied after the search area was moved.
	ClampSearchPos
)

// Clamp keeps the search area at least as large as the pattern and the
// pattern inside the search area, following the given edit mode.
func (m *Marker) Clamp(mode ClampMode) {
	patMin, patMax := m.PatternMinMax()

	switch mode {
	case ClampPatternDim, ClampSearchDim:
		// search shouldn't be smaller than the pattern
		m.SearchMin = geom.MinV(patMin, m.SearchMin)
		m.SearchMax = geom.MaxV(patMax, m.SearchMax)

	case ClampPatternPos:
		if patMin.X < m.SearchMin.X {
			m.shiftPattern(geom.Vec2{X: m.SearchMin.X - patMin.X})
		}
		if patMax.X > m.SearchMax.X {
			m.shiftPattern(geom.Vec2{X: m.SearchMax.X - patMax.X})
		}
		if patMin.Y < m.SearchMin.Y {
			m.shiftPattern(geom.Vec2{Y: m.SearchMin.Y - patMin.Y})
		}
		if patMax.Y > m.SearchMax.Y {
			m.shiftPattern(geom.Vec2{Y: m.SearchMax.Y - patMax.Y})
		}

	case ClampSearchPos:
		dim := m.SearchMax.Sub(m.SearchMin)
		if m.SearchMin.X > patMin.X {
			m.SearchMin.X = patMin.X
			m.SearchMax.X = m.SearchMin.X + dim.X
		}
		if m.SearchMax.X < patMax.X {
			m.SearchMax.X = patMax.X
			m.SearchMin.X = m.SearchMax.X - dim.X
		}
		if m.SearchMin.Y > patMin.Y {
			m.SearchMin.Y = patMin.Y
			m.SearchMax.Y = m.SearchMin.Y + dim.Y
		}
		if m.SearchMax.Y < patMax.Y {
			m.SearchMax.Y = patMax.Y
			m.SearchMin.Y = m.SearchMax.Y - dim.Y
		}
	}
}

func (m *Marker) shiftPattern(d geom.Vec2) {
	for i := range m.PatternCorners {
		m.PatternCorners[i] = m.PatternCorners[i].Add(d)
	}
}
