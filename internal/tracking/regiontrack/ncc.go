package regiontrack

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// NCCTracker searches integer translations of the pattern's bounding box and
// refines the best one to sub-pixel precision with a parabolic fit. The
// pattern moves rigidly, so motion models beyond translation are tracked as
// translation of the quad.
//
// With UseBrute every placement inside the destination is scored; without
// it the search hill-climbs from the initial guess for at most
// NumIterations moves. UseNormalization scores by zero-mean normalized
// cross-correlation, otherwise by weighted squared difference. Either way
// the final match is accepted when its normalized cross-correlation reaches
// MinCorrelation.
type NCCTracker struct{}

var _ Tracker = NCCTracker{}

// pattern is the reference window flattened for scoring.
type pattern struct {
	x0, y0, w, h int
	values       []float64
	weights      []float64
	centered     []float64 // weights * (values - mean)
	sumW         float64
	varP         float64 // sum of weights * (values - mean)^2
}

func newPattern(ref *imbuf.Gray, mask []float32, src coords.Coords) (*pattern, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < 4; i++ {
		minX = math.Min(minX, src.X[i])
		minY = math.Min(minY, src.Y[i])
		maxX = math.Max(maxX, src.X[i])
		maxY = math.Max(maxY, src.Y[i])
	}
	x0 := max(int(math.Floor(minX)), 0)
	y0 := max(int(math.Floor(minY)), 0)
	x1 := min(int(math.Ceil(maxX)), ref.W-1)
	y1 := min(int(math.Ceil(maxY)), ref.H-1)

	p := &pattern{x0: x0, y0: y0, w: x1 - x0 + 1, h: y1 - y0 + 1}
	if p.w < 2 || p.h < 2 {
		return nil, false
	}

	n := p.w * p.h
	p.values = make([]float64, n)
	p.weights = make([]float64, n)
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			i := y*p.w + x
			p.values[i] = float64(ref.At(x0+x, y0+y))
			p.weights[i] = 1
			if mask != nil {
				p.weights[i] = float64(mask[(y0+y)*ref.W+x0+x])
			}
		}
	}

	p.sumW = floats.Sum(p.weights)
	if p.sumW <= 0 {
		return nil, false
	}
	mean := floats.Dot(p.weights, p.values) / p.sumW

	p.centered = make([]float64, n)
	copy(p.centered, p.values)
	floats.AddConst(-mean, p.centered)
	tmp := make([]float64, n)
	floats.MulTo(tmp, p.centered, p.centered)
	p.varP = floats.Dot(tmp, p.weights)
	floats.Mul(p.centered, p.weights)
	return p, true
}

// scorer evaluates placements of a pattern inside a destination patch.
type scorer struct {
	p    *pattern
	dst  *imbuf.Gray
	ssd  bool
	buf  []float64
	tmp  []float64
	memo map[[2]int]float64
}

func newScorer(p *pattern, dst *imbuf.Gray, ssd bool) *scorer {
	n := p.w * p.h
	return &scorer{
		p:    p,
		dst:  dst,
		ssd:  ssd,
		buf:  make([]float64, n),
		tmp:  make([]float64, n),
		memo: make(map[[2]int]float64),
	}
}

func (s *scorer) fits(ox, oy int) bool {
	return ox >= 0 && oy >= 0 && ox+s.p.w <= s.dst.W && oy+s.p.h <= s.dst.H
}

func (s *scorer) gather(ox, oy int) {
	for y := 0; y < s.p.h; y++ {
		row := (oy+y)*s.dst.W + ox
		for x := 0; x < s.p.w; x++ {
			s.buf[y*s.p.w+x] = float64(s.dst.Pix[row+x])
		}
	}
}

// ncc returns the weighted zero-mean normalized cross-correlation of the
// pattern with the window at (ox, oy), which must fit.
func (s *scorer) ncc(ox, oy int) float64 {
	s.gather(ox, oy)
	p := s.p
	mean := floats.Dot(p.weights, s.buf) / p.sumW
	num := floats.Dot(p.centered, s.buf)
	floats.MulTo(s.tmp, s.buf, s.buf)
	varD := floats.Dot(s.tmp, p.weights) - p.sumW*mean*mean
	if varD <= 1e-12 || p.varP <= 1e-12 {
		return 0
	}
	return num / math.Sqrt(p.varP*varD)
}

// score returns how well the window at (ox, oy) matches, higher is better,
// or -Inf when the window does not fit.
func (s *scorer) score(ox, oy int) float64 {
	if !s.fits(ox, oy) {
		return math.Inf(-1)
	}
	key := [2]int{ox, oy}
	if v, ok := s.memo[key]; ok {
		return v
	}

	var v float64
	if s.ssd {
		s.gather(ox, oy)
		floats.SubTo(s.tmp, s.buf, s.p.values)
		floats.Mul(s.tmp, s.tmp)
		v = -floats.Dot(s.tmp, s.p.weights) / s.p.sumW
	} else {
		v = s.ncc(ox, oy)
	}
	s.memo[key] = v
	return v
}

// Track implements Tracker.
func (NCCTracker) Track(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	ref, dst := req.Reference, req.Destination
	if req.Options.Sigma > 0 {
		ref = blur(ref, req.Options.Sigma)
		dst = blur(dst, req.Options.Sigma)
	}

	p, ok := newPattern(ref, req.Mask, req.Src)
	if !ok {
		return Result{Dst: req.Dst}, nil
	}
	s := newScorer(p, dst, !req.Options.UseNormalization)

	guess := req.Dst.Center().Sub(req.Src.Center())
	startX := p.x0 + int(math.Round(guess.X))
	startY := p.y0 + int(math.Round(guess.Y))

	var bx, by int
	var best float64
	if req.Options.UseBrute {
		bx, by, best = bruteSearch(ctx, s)
	} else {
		bx, by, best = climb(s, startX, startY, req.Options.NumIterations)
	}
	if math.IsInf(best, -1) {
		return Result{Dst: req.Dst}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	fx := parabolic(s.score(bx-1, by), best, s.score(bx+1, by))
	fy := parabolic(s.score(bx, by-1), best, s.score(bx, by+1))

	corr := s.ncc(bx, by)
	res := Result{
		Dst:         shifted(req.Src, float64(bx-p.x0)+fx, float64(by-p.y0)+fy),
		Correlation: corr,
		OK:          corr >= req.Options.MinCorrelation,
	}
	if !res.OK {
		res.Dst = req.Dst
	}
	return res, nil
}

func bruteSearch(ctx context.Context, s *scorer) (int, int, float64) {
	bx, by, best := 0, 0, math.Inf(-1)
	for oy := 0; oy+s.p.h <= s.dst.H; oy++ {
		if ctx.Err() != nil {
			break
		}
		for ox := 0; ox+s.p.w <= s.dst.W; ox++ {
			if v := s.score(ox, oy); v > best {
				bx, by, best = ox, oy, v
			}
		}
	}
	return bx, by, best
}

// climb moves to the best 8-neighbour while that improves the score.
func climb(s *scorer, x, y, iterations int) (int, int, float64) {
	if !s.fits(x, y) {
		x = min(max(x, 0), s.dst.W-s.p.w)
		y = min(max(y, 0), s.dst.H-s.p.h)
	}
	best := s.score(x, y)
	if iterations <= 0 {
		iterations = 1
	}
	for i := 0; i < iterations; i++ {
		nx, ny, nv := x, y, best
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if v := s.score(x+dx, y+dy); v > nv {
					nx, ny, nv = x+dx, y+dy, v
				}
			}
		}
		if nx == x && ny == y {
			break
		}
		x, y, best = nx, ny, nv
	}
	return x, y, best
}

// parabolic returns the offset of the vertex of the parabola through
// (-1, l), (0, c), (1, r), limited to half a pixel.
func parabolic(l, c, r float64) float64 {
	if math.IsInf(l, -1) || math.IsInf(r, -1) {
		return 0
	}
	den := l - 2*c + r
	if den >= 0 {
		return 0
	}
	off := 0.5 * (l - r) / den
	return math.Max(-0.5, math.Min(0.5, off))
}

// Correlation returns the masked normalized cross-correlation between the
// pattern at src in ref and the same quad translated to dst in the
// destination, both rounded to whole pixels.
func Correlation(ref, dst *imbuf.Gray, mask []float32, src, moved coords.Coords) float64 {
	p, ok := newPattern(ref, mask, src)
	if !ok {
		return 0
	}
	s := newScorer(p, dst, false)
	d := moved.Center().Sub(src.Center())
	ox := p.x0 + int(math.Round(d.X))
	oy := p.y0 + int(math.Round(d.Y))
	if !s.fits(ox, oy) {
		return 0
	}
	return s.ncc(ox, oy)
}
