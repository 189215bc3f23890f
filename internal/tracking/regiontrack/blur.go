package regiontrack

import (
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// blur applies a separable Gaussian of the given sigma, clamping at the
// borders.
func blur(g *imbuf.Gray, sigma float64) *imbuf.Gray {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 || g.W == 0 || g.H == 0 {
		return g
	}

	kernel := make([]float32, 2*radius+1)
	var sum float32
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = float32(math.Exp(-d * d / (2 * sigma * sigma)))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	clamp := func(v, hi int) int { return min(max(v, 0), hi-1) }

	tmp := make([]float32, len(g.Pix))
	for y := 0; y < g.H; y++ {
		row := g.Pix[y*g.W : (y+1)*g.W]
		for x := 0; x < g.W; x++ {
			var acc float32
			for k, w := range kernel {
				acc += w * row[clamp(x+k-radius, g.W)]
			}
			tmp[y*g.W+x] = acc
		}
	}

	out := &imbuf.Gray{W: g.W, H: g.H, Pix: make([]float32, len(g.Pix))}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			var acc float32
			for k, w := range kernel {
				acc += w * tmp[clamp(y+k-radius, g.H)*g.W+x]
			}
			out.Pix[y*g.W+x] = acc
		}
	}
	return out
}
