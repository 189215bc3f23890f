package track2d

import (
	"context"
	"math"
	"sort"

	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/mask"
	"github.com/banshee-data/motiontrack/internal/tracking/regiontrack"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// checkMargin reports whether m is far enough from the frame border to be
// tracked. The margin is half the larger pattern extent or the track's
// pixel margin, whichever is bigger.
func checkMargin(t *track.Track, m *track.Marker, w, h int) bool {
	pmin, pmax := m.PatternMinMax()
	dim := pmax.Sub(pmin)
	half := math.Max(dim.X, dim.Y) / 2

	mx := math.Max(half, float64(t.Margin)/float64(w))
	my := math.Max(half, float64(t.Margin)/float64(h))

	return m.Pos.X >= mx && m.Pos.X <= 1-mx && m.Pos.Y >= my && m.Pos.Y <= 1-my
}

// scaleSearch scales the search window of next by the change of the pattern
// bounding box from old to next.
func scaleSearch(old, next *track.Marker) {
	omin, omax := old.PatternMinMax()
	nmin, nmax := next.PatternMinMax()

	sx := (nmax.X - nmin.X) / (omax.X - omin.X)
	sy := (nmax.Y - nmin.Y) / (omax.Y - omin.Y)

	next.SearchMin.X *= sx
	next.SearchMin.Y *= sy
	next.SearchMax.X *= sx
	next.SearchMax.Y *= sy
}

// insertNewMarker commits the result of tracking old from curfra one frame
// further. A tracked marker is framed by disabled markers so the segment
// is bounded on both ends; a failed one leaves a disabled marker with the
// old geometry.
func (c *Context) insertNewMarker(t *track.Track, old *track.Marker, curfra int, tracked bool, w, h int, dst coords.Coords) {
	next := *old
	next.Frame = curfra + c.delta()

	if !tracked {
		next.Flag |= track.MarkerDisabled
		t.Insert(next)
		return
	}

	coords.MarkerFromTracking(w, h, &next, dst)
	next.Flag |= track.MarkerTracked
	scaleSearch(old, &next)

	if c.firstTime {
		t.InsertDisabled(*old, !c.backwards, false)
	}
	t.Insert(next)
	t.InsertDisabled(next, c.backwards, false)
}

// keyframedMarker walks from the marker at curfra away from the tracking
// direction and returns the first enabled marker that was placed by hand.
// When there is none, the first marker of the current tracked segment is
// used instead.
func keyframedMarker(t *track.Track, curfra int, backwards bool) *track.Marker {
	start := t.Get(curfra)
	if start == nil {
		return nil
	}
	a := sort.Search(len(t.Markers), func(i int) bool { return t.Markers[i].Frame >= start.Frame })

	var fallback *track.Marker
	for a >= 0 && a < len(t.Markers) {
		next := a - 1
		if backwards {
			next = a + 1
		}
		cur := &t.Markers[a]

		if cur.Enabled() {
			if next >= 0 && next < len(t.Markers) && t.Markers[next].Disabled() && fallback == nil {
				fallback = cur
			}
			if cur.Flag&track.MarkerTracked == 0 {
				return cur
			}
		}
		a = next
	}
	return fallback
}

// referenceMarker returns the marker the reference patch is taken from and
// the frame to load for it.
func referenceMarker(t *track.Track, curfra int, backwards bool) (*track.Marker, int) {
	if t.PatternMatch == track.MatchKeyframe {
		m := keyframedMarker(t, curfra, backwards)
		if m == nil {
			return nil, 0
		}
		return m, m.Frame
	}
	return t.Get(curfra), curfra
}

// referenceBuffer loads the frame holding the reference marker of t. It
// returns a nil buffer when either is unavailable.
func referenceBuffer(ctx context.Context, p imbuf.Provider, t *track.Track, curfra int, backwards bool) (*track.Marker, *imbuf.ImBuf) {
	ref, frame := referenceMarker(t, curfra, backwards)
	if ref == nil {
		return nil, nil
	}
	buf, err := p.Acquire(ctx, frame)
	if err != nil {
		return nil, nil
	}
	return ref, buf
}

// maskFor rasterizes the track's mask layer over the search window of m.
func maskFor(w, h int, t *track.Track, m *track.Marker) []float32 {
	return mask.Rasterize(w, h, t, m)
}

// runTracker tracks the reference patch into the search window of m in
// dst. The returned coordinates are in dst search pixels.
func (c *Context) runTracker(ctx context.Context, dst *imbuf.ImBuf, t *track.Track, ref, m *track.Marker, search *imbuf.Gray, msk []float32) (bool, coords.Coords) {
	return trackRegion(ctx, c.tracker, c.options(t), dst, t, ref, m, search, msk)
}

func (c *Context) options(t *track.Track) regiontrack.Options {
	return trackerOptions(t, c.iterations, c.sigma)
}

func trackerOptions(t *track.Track, iterations int, sigma float64) regiontrack.Options {
	return regiontrack.Options{
		MotionModel:      t.MotionModel,
		MinCorrelation:   t.MinCorrelation,
		NumIterations:    iterations,
		Sigma:            sigma,
		UseBrute:         t.AlgorithmFlag&track.UseBrute != 0,
		UseNormalization: t.AlgorithmFlag&track.UseNormalization != 0,
	}
}

func trackRegion(ctx context.Context, tracker regiontrack.Tracker, opts regiontrack.Options, dst *imbuf.ImBuf, t *track.Track, ref, m *track.Marker, search *imbuf.Gray, msk []float32) (bool, coords.Coords) {
	w, h := dst.W, dst.H
	src := coords.MarkerToTracking(w, h, ref)
	guess := coords.MarkerToTracking(w, h, m)

	patch := imbuf.SearchGray(dst, t, m)
	if patch == nil || search == nil {
		return false, guess
	}

	res, err := tracker.Track(ctx, regiontrack.Request{
		Reference:   search,
		Destination: patch,
		Src:         src,
		Dst:         guess,
		Mask:        msk,
		Options:     opts,
	})
	if err != nil {
		logf("Region tracker failed for track '%s' at frame %d: %v", t.Name, m.Frame, err)
		return false, guess
	}
	return res.OK, res.Dst
}
