package stabilize

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
)

// parallelRows is the frame height from which rows are resampled
// concurrently.
const parallelRows = 128

// StabilizeFrame returns src resampled with the correction of frame, along
// with that correction. src itself is returned when stabilization is
// disabled.
func StabilizeFrame(ctx context.Context, tr *registry.Tracking, frame int, src *imbuf.ImBuf) (*imbuf.ImBuf, Transform, error) {
	if !tr.Stabilization.Enabled {
		return src, Identity, nil
	}

	t := Data(tr, frame, src.W, src.H)
	mat := ToMat4(src.W, src.H, tr.Camera.PixelAspect, t)
	dst, err := Resample(ctx, src, mat, tr.Stabilization.Filter)
	if err != nil {
		return nil, t, err
	}
	return dst, t, nil
}

// Resample returns a buffer the size of src where each pixel p is src
// sampled at the inverse of m applied to p.
func Resample(ctx context.Context, src *imbuf.ImBuf, m geom.Mat4, filter registry.Filter) (*imbuf.ImBuf, error) {
	inv, ok := m.Inverse()
	if !ok {
		inv = geom.Identity()
	}
	sample := sampler(filter)
	dst := src.NewLike()

	row := func(y int) {
		for x := 0; x < dst.W; x++ {
			p := inv.TransformPoint(geom.Vec3{X: float64(x), Y: float64(y)})
			dst.SetRGBA(x, y, sample(src, p.X, p.Y))
		}
	}

	if dst.H <= parallelRows {
		for y := 0; y < dst.H; y++ {
			row(y)
		}
		return dst, ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < dst.H; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row(y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

type sampleFunc func(b *imbuf.ImBuf, u, v float64) [4]float32

func sampler(f registry.Filter) sampleFunc {
	switch f {
	case registry.FilterBilinear:
		return bilinear
	case registry.FilterBicubic:
		return bicubic
	}
	return nearest
}

func nearest(b *imbuf.ImBuf, u, v float64) [4]float32 {
	return b.RGBA(int(math.Floor(u)), int(math.Floor(v)))
}

func bilinear(b *imbuf.ImBuf, u, v float64) [4]float32 {
	return b.Bilinear(u, v)
}

// bicubic samples with a cubic B-spline over the 4x4 neighbourhood,
// clamping at the borders. Points outside the buffer are transparent.
func bicubic(b *imbuf.ImBuf, u, v float64) [4]float32 {
	var out [4]float32
	if u < 0 || v < 0 || u >= float64(b.W) || v >= float64(b.H) {
		return out
	}

	i, j := int(math.Floor(u)), int(math.Floor(v))
	a, bb := u-float64(i), v-float64(j)

	for n := -1; n <= 2; n++ {
		wy := cubicBSpline(bb - float64(n))
		y := clampInt(j+n, 0, b.H-1)
		for m := -1; m <= 2; m++ {
			w := float32(cubicBSpline(float64(m)-a) * wy)
			x := clampInt(i+m, 0, b.W-1)
			p := b.RGBA(x, y)
			for c := range out {
				out[c] += w * p[c]
			}
		}
	}
	return out
}

func cubicBSpline(x float64) float64 {
	p := func(v float64) float64 {
		if v > 0 {
			return v * v * v
		}
		return 0
	}
	return (p(x+2) - 4*p(x+1) + 6*p(x) - 4*p(x-1)) / 6
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
