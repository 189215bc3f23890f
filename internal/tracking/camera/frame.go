package camera

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// UndistortImage removes lens distortion from src. Overscan widens the field
// of the result by the given fraction so corners pulled inward stay visible.
func (in Intrinsics) UndistortImage(ctx context.Context, src *imbuf.ImBuf, overscan float64) (*imbuf.ImBuf, error) {
	return in.warpFrame(ctx, src, overscan, in.DistortPoint)
}

// DistortImage applies lens distortion to src.
func (in Intrinsics) DistortImage(ctx context.Context, src *imbuf.ImBuf, overscan float64) (*imbuf.ImBuf, error) {
	return in.warpFrame(ctx, src, overscan, in.UndistortPoint)
}

// warpFrame fills every destination pixel by sampling src at lookup(p). The
// intrinsics are scaled to the frame when it differs from the calibration
// size. Rows are processed in parallel.
func (in Intrinsics) warpFrame(ctx context.Context, src *imbuf.ImBuf, overscan float64, lookup func(geom.Vec2) geom.Vec2) (*imbuf.ImBuf, error) {
	dst := src.NewLike()

	sx, sy := 1.0, 1.0
	if in.ImageWidth > 0 && in.ImageHeight > 0 {
		sx = float64(src.W) / float64(in.ImageWidth)
		sy = float64(src.H) / float64(in.ImageHeight)
	}
	center := geom.Vec2{X: float64(src.W) / 2, Y: float64(src.H) / 2}
	grow := 1 + overscan

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < dst.H; y++ {
		y := y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := 0; x < dst.W; x++ {
				p := geom.Vec2{X: float64(x), Y: float64(y)}
				p = center.Add(p.Sub(center).Scale(grow))
				// to calibration pixels and back
				q := lookup(geom.Vec2{X: p.X / sx, Y: p.Y / sy})
				q = geom.Vec2{X: q.X * sx, Y: q.Y * sy}
				dst.SetRGBA(x, y, src.Bilinear(q.X, q.Y))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}
