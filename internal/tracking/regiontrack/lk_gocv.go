//go:build gocv

package regiontrack

import (
	"context"
	"math"

	"gocv.io/x/gocv"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// LKTracker follows the pattern center with OpenCV's pyramidal Lucas-Kanade
// optical flow and moves the quad rigidly with it. The match is accepted
// when the correlation at the new position reaches MinCorrelation.
type LKTracker struct{}

var _ Tracker = LKTracker{}

// Track implements Tracker.
func (LKTracker) Track(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	// Shift the reference so the pattern starts at the initial guess; the
	// flow is then searched around it.
	guess := req.Dst.Center().Sub(req.Src.Center())
	ox, oy := int(math.Round(guess.X)), int(math.Round(guess.Y))

	prev := grayToMat(req.Reference, ox, oy, req.Destination.W, req.Destination.H)
	defer prev.Close()
	next := grayToMat(req.Destination, 0, 0, req.Destination.W, req.Destination.H)
	defer next.Close()

	start := shifted(req.Src, float64(ox), float64(oy))
	points := gocv.NewMatWithSize(1, 2, gocv.MatTypeCV32F)
	defer points.Close()
	points.SetFloatAt(0, 0, float32(start.Center().X))
	points.SetFloatAt(0, 1, float32(flipY(start.Center().Y, req.Destination.H)))

	nextPoints := gocv.NewMat()
	defer nextPoints.Close()
	status := gocv.NewMat()
	defer status.Close()
	errMat := gocv.NewMat()
	defer errMat.Close()

	gocv.CalcOpticalFlowPyrLK(prev, next, points, nextPoints, &status, &errMat)
	if status.Rows() == 0 || status.GetUCharAt(0, 0) != 1 {
		return Result{Dst: req.Dst}, nil
	}

	nx := float64(nextPoints.GetFloatAt(0, 0))
	ny := flipY(float64(nextPoints.GetFloatAt(0, 1)), req.Destination.H)
	moved := shifted(start, nx-start.Center().X, ny-start.Center().Y)

	corr := Correlation(req.Reference, req.Destination, req.Mask, req.Src, moved)
	res := Result{Dst: moved, Correlation: corr, OK: corr >= req.Options.MinCorrelation}
	if !res.OK {
		res.Dst = req.Dst
	}
	return res, nil
}

// grayToMat converts g to an 8-bit top-down Mat of w x h, translating the
// content by (ox, oy).
func grayToMat(g *imbuf.Gray, ox, oy, w, h int) gocv.Mat {
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.At(x-ox, y-oy)
			m.SetUCharAt(h-1-y, x, uint8(math.Max(0, math.Min(255, float64(v)*255+0.5))))
		}
	}
	return m
}

func flipY(y float64, h int) float64 { return float64(h-1) - y }
