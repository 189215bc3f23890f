package mask

import (
	"image"
	"image/draw"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"golang.org/x/image/vector"

	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// clipScale converts search pixels to the integer grid used for clipping.
const clipScale = 1024

// Size returns the mask dimensions for m on a frameW x frameH frame. They
// match the search window extracted by imbuf.SearchArea.
func Size(frameW, frameH int, m *track.Marker) (w, h int) {
	w = int((m.SearchMax.X - m.SearchMin.X) * float64(frameW))
	h = int((m.SearchMax.Y - m.SearchMin.Y) * float64(frameH))
	return w, h
}

// Rasterize returns the coverage of the track's mask layer over the search
// window of m, one float in 0..1 per pixel with row 0 at the bottom. It
// returns nil when the track has no usable layer.
func Rasterize(frameW, frameH int, t *track.Track, m *track.Marker) []float32 {
	if t.Mask.Empty() {
		return nil
	}
	w, h := Size(frameW, frameH, m)
	if w <= 0 || h <= 0 {
		return nil
	}

	bounds := clipper.Path{
		ip(0, 0), ip(float64(w), 0), ip(float64(w), float64(h)), ip(0, float64(h)),
	}

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	drawn := false

	for _, s := range t.Mask.Strokes {
		if len(s.Points) < 3 {
			continue
		}
		subject := make(clipper.Path, 0, len(s.Points))
		for _, p := range s.Points {
			px := (p.X - m.SearchMin.X) * float64(frameW)
			py := (p.Y - m.SearchMin.Y) * float64(frameH)
			subject = append(subject, ip(px, py))
		}

		c := clipper.NewClipper(0) // no init options
		c.AddPath(subject, clipper.PtSubject, true)
		c.AddPath(bounds, clipper.PtClip, true)
		clipped, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)
		if !ok {
			continue
		}

		for _, poly := range clipped {
			if len(poly) < 3 {
				continue
			}
			z.MoveTo(fromIP(poly[0]))
			for _, q := range poly[1:] {
				z.LineTo(fromIP(q))
			}
			z.ClosePath()
			drawn = true
		}
	}

	out := make([]float32, w*h)
	if !drawn {
		return out
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x, a := range row {
			out[y*w+x] = float32(a) / 255
		}
	}
	return out
}

func ip(x, y float64) *clipper.IntPoint {
	return &clipper.IntPoint{
		X: clipper.CInt(math.Round(x * clipScale)),
		Y: clipper.CInt(math.Round(y * clipScale)),
	}
}

func fromIP(p *clipper.IntPoint) (float32, float32) {
	return float32(float64(p.X) / clipScale), float32(float64(p.Y) / clipScale)
}
