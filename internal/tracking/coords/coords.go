package coords

import (
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Coords holds the five points that are warped by the region tracker: the
// four pattern corners followed by the marker center.
type Coords struct {
	X [5]float64
	Y [5]float64
}

// Point returns the i-th point.
func (c Coords) Point(i int) geom.Vec2 { return geom.Vec2{X: c.X[i], Y: c.Y[i]} }

// Center returns the center point.
func (c Coords) Center() geom.Vec2 { return c.Point(4) }

// UnifiedToPixel scales unified frame coordinates to pixels.
func UnifiedToPixel(w, h int, p geom.Vec2) geom.Vec2 {
	return geom.Vec2{X: p.X * float64(w), Y: p.Y * float64(h)}
}

// PixelToUnified scales frame pixels to unified coordinates.
func PixelToUnified(w, h int, p geom.Vec2) geom.Vec2 {
	return geom.Vec2{X: p.X / float64(w), Y: p.Y / float64(h)}
}

// MarkerToFramePixel converts a marker-relative unified point to frame
// pixels.
func MarkerToFramePixel(w, h int, m *track.Marker, p geom.Vec2) geom.Vec2 {
	return UnifiedToPixel(w, h, p.Add(m.Pos))
}

// SearchOrigin returns the bottom-left pixel of the marker's search window,
// truncated toward zero.
func SearchOrigin(w, h int, m *track.Marker) geom.Vec2 {
	p := MarkerToFramePixel(w, h, m, m.SearchMin)
	return geom.Vec2{X: math.Trunc(p.X), Y: math.Trunc(p.Y)}
}

// MarkerUnifiedToSearchPixel converts a marker-relative unified point into
// search window pixels.
func MarkerUnifiedToSearchPixel(w, h int, m *track.Marker, p geom.Vec2) geom.Vec2 {
	return MarkerToFramePixel(w, h, m, p).Sub(SearchOrigin(w, h, m))
}

// SearchPixelToMarkerUnified is the inverse of MarkerUnifiedToSearchPixel.
func SearchPixelToMarkerUnified(w, h int, m *track.Marker, p geom.Vec2) geom.Vec2 {
	frame := PixelToUnified(w, h, p.Add(SearchOrigin(w, h, m)))
	return frame.Sub(m.Pos)
}

// MarkerToTracking returns the pattern corners and center of m in search
// pixel space, shifted by half a pixel so integer coordinates address pixel
// centers.
func MarkerToTracking(w, h int, m *track.Marker) Coords {
	var c Coords
	for i := 0; i < 4; i++ {
		p := MarkerUnifiedToSearchPixel(w, h, m, m.PatternCorners[i])
		c.X[i], c.Y[i] = p.X-0.5, p.Y-0.5
	}
	p := MarkerUnifiedToSearchPixel(w, h, m, geom.Vec2{})
	c.X[4], c.Y[4] = p.X-0.5, p.Y-0.5
	return c
}

// MarkerFromTracking applies tracker output back onto m. The corners are
// taken from c, then the whole pattern is moved by the displacement of the
// center so the quad stays attached to the tracked point.
func MarkerFromTracking(w, h int, m *track.Marker, c Coords) {
	for i := 0; i < 4; i++ {
		m.PatternCorners[i] = SearchPixelToMarkerUnified(w, h, m, geom.Vec2{X: c.X[i] + 0.5, Y: c.Y[i] + 0.5})
	}
	delta := SearchPixelToMarkerUnified(w, h, m, geom.Vec2{X: c.X[4] + 0.5, Y: c.Y[4] + 0.5})
	for i := 0; i < 4; i++ {
		m.PatternCorners[i] = m.PatternCorners[i].Sub(delta)
	}
	m.Pos = m.Pos.Add(delta)
}
