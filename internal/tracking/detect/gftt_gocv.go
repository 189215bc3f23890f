//go:build gocv

package detect

import (
	"context"
	"math"

	"gocv.io/x/gocv"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// GFTTDetector finds Shi-Tomasi corners with OpenCV's goodFeaturesToTrack.
type GFTTDetector struct {
	MaxCorners   int
	QualityLevel float64
	Options      Options
}

var _ Detector = GFTTDetector{}

// Detect implements Detector. Scores are not reported by OpenCV, so
// features are scored by their rank.
func (d GFTTDetector) Detect(ctx context.Context, b *imbuf.ImBuf) ([]Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := imbuf.ToGray(b)
	img := gocv.NewMatWithSize(g.H, g.W, gocv.MatTypeCV8UC1)
	defer img.Close()
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := math.Max(0, math.Min(255, float64(g.At(x, y))*255+0.5))
			img.SetUCharAt(g.H-1-y, x, uint8(v))
		}
	}

	points := gocv.NewMat()
	defer points.Close()
	gocv.GoodFeaturesToTrack(img, &points, d.MaxCorners, d.QualityLevel, float64(max(d.Options.MinDistance, 1)))

	margin := float64(d.Options.Margin)
	var out []Feature
	for i := 0; i < points.Rows(); i++ {
		pt := points.GetVecfAt(i, 0)
		x := float64(pt[0])
		y := float64(g.H-1) - float64(pt[1])
		if x < margin || y < margin || x >= float64(g.W)-margin || y >= float64(g.H)-margin {
			continue
		}
		out = append(out, Feature{X: x, Y: y, Score: float64(points.Rows() - i), Size: 7})
	}
	return out, nil
}
