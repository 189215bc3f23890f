package detect

import (
	"context"
	"math"
	"sort"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// circle is the 16 pixel Bresenham ring of radius 3 used by the segment
// test, in order around the center.
var circle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// arcLength is the number of contiguous ring pixels that must all be
// brighter or all darker than the center.
const arcLength = 9

// FASTDetector finds corners with the FAST-9 segment test, scores them by
// the summed contrast of the ring and keeps the strongest corners at least
// MinDistance apart.
type FASTDetector struct {
	Options Options
}

var _ Detector = FASTDetector{}

// Detect implements Detector.
func (d FASTDetector) Detect(ctx context.Context, b *imbuf.ImBuf) ([]Feature, error) {
	g := imbuf.ToGray(b)
	margin := max(d.Options.Margin, 3)
	threshold := float32(d.Options.Threshold) / 255

	var candidates []Feature
	for y := margin; y < g.H-margin; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := margin; x < g.W-margin; x++ {
			if score, ok := segmentTest(g, x, y, threshold); ok {
				candidates = append(candidates, Feature{X: float64(x), Y: float64(y), Score: float64(score * 255), Size: 7})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return suppress(candidates, float64(d.Options.MinDistance)), nil
}

// segmentTest reports whether (x, y) is a corner and its score.
func segmentTest(g *imbuf.Gray, x, y int, t float32) (float32, bool) {
	c := g.At(x, y)
	var diff [16]float32
	for i, o := range circle {
		diff[i] = g.At(x+o[0], y+o[1]) - c
	}

	brighter := longestRun(diff, func(v float32) bool { return v > t })
	darker := longestRun(diff, func(v float32) bool { return v < -t })
	if brighter < arcLength && darker < arcLength {
		return 0, false
	}

	var score float32
	for _, v := range diff {
		if a := float32(math.Abs(float64(v))); a > t {
			score += a - t
		}
	}
	return score, true
}

// longestRun returns the longest cyclic run of ring values matching pred.
func longestRun(diff [16]float32, pred func(float32) bool) int {
	best, run := 0, 0
	for i := 0; i < 32; i++ {
		if pred(diff[i%16]) {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return min(best, 16)
}

// suppress keeps features in order, dropping any closer than minDist to
// one already kept.
func suppress(fs []Feature, minDist float64) []Feature {
	if minDist <= 0 {
		return fs
	}
	min2 := minDist * minDist
	var kept []Feature
	for _, f := range fs {
		ok := true
		for _, k := range kept {
			dx, dy := f.X-k.X, f.Y-k.Y
			if dx*dx+dy*dy < min2 {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, f)
		}
	}
	return kept
}
