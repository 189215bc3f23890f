package track

import "github.com/banshee-data/motiontrack/internal/tracking/geom"

// Stroke is a closed polygon. For track masks the points are relative to the
// marker position in unified space; for detection filters they are absolute
// unified frame coordinates.
type Stroke struct {
	Points []geom.Vec2
}

// Layer is a set of annotation strokes.
type Layer struct {
	Name    string
	Strokes []Stroke
}

// Clone returns a deep copy of l.
func (l *Layer) Clone() *Layer {
	c := &Layer{Name: l.Name, Strokes: make([]Stroke, len(l.Strokes))}
	for i, s := range l.Strokes {
		c.Strokes[i].Points = append([]geom.Vec2(nil), s.Points...)
	}
	return c
}

// Empty reports whether the layer has no stroke with at least one point.
func (l *Layer) Empty() bool {
	if l == nil {
		return true
	}
	for _, s := range l.Strokes {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any stroke of the layer. Each
// stroke is tested with the even-odd rule, so self-intersecting strokes give
// unreliable answers.
func (l *Layer) Contains(p geom.Vec2) bool {
	for _, s := range l.Strokes {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// Contains reports whether p lies inside the stroke polygon.
func (s Stroke) Contains(p geom.Vec2) bool {
	pts := s.Points
	if len(pts) < 3 {
		return false
	}
	count := 0
	prev := len(pts) - 1
	for i := range pts {
		if (pts[i].Y < p.Y && pts[prev].Y >= p.Y) || (pts[prev].Y < p.Y && pts[i].Y >= p.Y) {
			fac := (p.Y - pts[i].Y) / (pts[prev].Y - pts[i].Y)
			if pts[i].X+fac*(pts[prev].X-pts[i].X) < p.X {
				count++
			}
		}
		prev = i
	}
	return count%2 == 1
}
