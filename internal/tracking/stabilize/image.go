package stabilize

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
)

// StabilizeImage applies m, a transform of y-up frame pixels as built by
// ToMat4, to a decoded image. Uncovered pixels are transparent.
func StabilizeImage(src image.Image, m geom.Mat4, filter registry.Filter) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// image rows run top-down
	flip := geom.Translate(geom.Vec3{Y: float64(b.Dy())}).Mul(geom.ScaleMat(geom.Vec3{X: 1, Y: -1, Z: 1}))
	s := flip.Mul(m).Mul(flip)
	minX, minY := float64(b.Min.X), float64(b.Min.Y)
	s2d := f64.Aff3{
		s[0], s[1], s[3] - s[0]*minX - s[1]*minY,
		s[4], s[5], s[7] - s[4]*minX - s[5]*minY,
	}

	kernel(filter).Transform(dst, s2d, src, b, xdraw.Src, nil)
	return dst
}

func kernel(f registry.Filter) xdraw.Transformer {
	switch f {
	case registry.FilterNearest:
		return xdraw.NearestNeighbor
	case registry.FilterBicubic:
		return xdraw.CatmullRom
	}
	return xdraw.BiLinear
}
