package imbuf

import (
	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Rec. 709 luma weights.
const (
	WeightRed   = 0.2126
	WeightGreen = 0.7152
	WeightBlue  = 0.0722
)

// Gray is a single channel float image, bottom-up like ImBuf.
type Gray struct {
	W, H int
	Pix  []float32
}

// At returns the value at (x, y), or 0 outside the image.
func (g *Gray) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}
	return g.Pix[y*g.W+x]
}

// SearchArea cuts the marker's search window out of b. With anchored set the
// window is shifted by the track offset. With disableChannels set the track's
// disabled channels are removed and the result is made grayscale. It returns
// nil for an empty window.
func SearchArea(b *ImBuf, t *track.Track, m *track.Marker, anchored, disableChannels bool) *ImBuf {
	origin := coords.SearchOrigin(b.W, b.H, m)
	x, y := int(origin.X), int(origin.Y)
	if anchored {
		x += int(t.Offset.X * float64(b.W))
		y += int(t.Offset.Y * float64(b.H))
	}

	w := int((m.SearchMax.X - m.SearchMin.X) * float64(b.W))
	h := int((m.SearchMax.Y - m.SearchMin.Y) * float64(b.H))
	if w <= 0 || h <= 0 {
		return nil
	}

	var s *ImBuf
	if b.IsFloat() {
		s = NewFloat(w, h)
	} else {
		s = NewByte(w, h)
	}
	RectCopy(s, b, x, y, w, h)

	if disableChannels && t.Flag&(track.PreviewGrayscale|track.DisableRed|track.DisableGreen|track.DisableBlue) != 0 {
		DisableChannels(s, t.Flag&track.DisableRed != 0, t.Flag&track.DisableGreen != 0, t.Flag&track.DisableBlue != 0, true)
	}
	return s
}

// DisableChannels zeroes the disabled color channels of b. With grayscale
// set the remaining channels are mixed into luma, rescaled by the weight of
// the channels kept so a single kept channel is not darkened.
func DisableChannels(b *ImBuf, disableRed, disableGreen, disableBlue, grayscale bool) {
	if !disableRed && !disableGreen && !disableBlue && !grayscale {
		return
	}

	var scale float32
	if !disableRed {
		scale += WeightRed
	}
	if !disableGreen {
		scale += WeightGreen
	}
	if !disableBlue {
		scale += WeightBlue
	}

	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			p := b.RGBA(x, y)
			if disableRed {
				p[0] = 0
			}
			if disableGreen {
				p[1] = 0
			}
			if disableBlue {
				p[2] = 0
			}
			if grayscale {
				var gray float32
				if scale > 0 {
					gray = (WeightRed*p[0] + WeightGreen*p[1] + WeightBlue*p[2]) / scale
				}
				p[0], p[1], p[2] = gray, gray, gray
			}
			b.SetRGBA(x, y, p)
		}
	}
}

// ToGray converts b to luma.
func ToGray(b *ImBuf) *Gray {
	g := &Gray{W: b.W, H: b.H, Pix: make([]float32, b.W*b.H)}
	for i := range g.Pix {
		if b.Float != nil {
			p := b.Float[i*4 : i*4+4]
			g.Pix[i] = WeightRed*p[0] + WeightGreen*p[1] + WeightBlue*p[2]
		} else {
			p := b.Byte[i*4 : i*4+4]
			g.Pix[i] = (WeightRed*float32(p[0]) + WeightGreen*float32(p[1]) + WeightBlue*float32(p[2])) / 255
		}
	}
	return g
}

// SearchGray returns the grayscale search window of m in b with the track's
// channel settings applied, or nil when the window is empty.
func SearchGray(b *ImBuf, t *track.Track, m *track.Marker) *Gray {
	s := SearchArea(b, t, m, false, true)
	if s == nil {
		return nil
	}
	return ToGray(s)
}

// SamplePattern resamples the marker's pattern quad out of the search buffer
// into an nx*ny float buffer. The quad is mapped bilinearly onto the output
// grid. pos receives the marker center in pattern pixel space.
func SamplePattern(frameW, frameH int, search *ImBuf, t *track.Track, m *track.Marker, anchored bool, nx, ny int) (out *ImBuf, pos geom.Vec2) {
	if nx <= 0 || ny <= 0 || search == nil {
		return nil, geom.Vec2{}
	}

	c := coords.MarkerToTracking(frameW, frameH, m)
	if anchored {
		fx := t.Offset.X*float64(frameW) - float64(int(t.Offset.X*float64(frameW)))
		fy := t.Offset.Y*float64(frameH) - float64(int(t.Offset.Y*float64(frameH)))
		// truncation rounds toward zero, so negative offsets are one pixel short
		if t.Offset.X < 0 {
			fx++
		}
		if t.Offset.Y < 0 {
			fy++
		}
		for i := range c.X {
			c.X[i] += fx
			c.Y[i] += fy
		}
	}

	out = NewFloat(nx, ny)
	for j := 0; j < ny; j++ {
		v := (float64(j) + 0.5) / float64(ny)
		for i := 0; i < nx; i++ {
			u := (float64(i) + 0.5) / float64(nx)
			p := quadPoint(c, u, v)
			out.SetRGBA(i, j, search.Bilinear(p.X, p.Y))
		}
	}

	pos = invertQuad(c, c.Center(), nx, ny)
	return out, pos
}

// quadPoint maps (u, v) in the unit square onto the pattern quad.
func quadPoint(c coords.Coords, u, v float64) geom.Vec2 {
	p0, p1, p2, p3 := c.Point(0), c.Point(1), c.Point(2), c.Point(3)
	bottom := geom.Lerp(p0, p1, u)
	top := geom.Lerp(p3, p2, u)
	return geom.Lerp(bottom, top, v)
}

func invertQuad(c coords.Coords, p geom.Vec2, nx, ny int) geom.Vec2 {
	// Newton iterations on the bilinear map, starting at the square center
	// with a finite difference Jacobian.
	u, v := 0.5, 0.5
	for iter := 0; iter < 10; iter++ {
		q := quadPoint(c, u, v)
		r := q.Sub(p)
		du := quadPoint(c, u+1e-4, v).Sub(q).Scale(1e4)
		dv := quadPoint(c, u, v+1e-4).Sub(q).Scale(1e4)
		det := du.X*dv.Y - du.Y*dv.X
		if det == 0 {
			break
		}
		u -= (r.X*dv.Y - r.Y*dv.X) / det
		v -= (du.X*r.Y - du.Y*r.X) / det
	}
	return geom.Vec2{X: u*float64(nx) - 0.5, Y: v*float64(ny) - 0.5}
}
