package coords

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

func testMarker(x, y float64) *track.Marker {
	return &track.Marker{
		Frame: 1,
		Pos:   geom.Vec2{X: x, Y: y},
		PatternCorners: [4]geom.Vec2{
			{X: -0.05, Y: -0.05}, {X: 0.05, Y: -0.05}, {X: 0.05, Y: 0.05}, {X: -0.05, Y: 0.05},
		},
		SearchMin: geom.Vec2{X: -0.2, Y: -0.2},
		SearchMax: geom.Vec2{X: 0.2, Y: 0.2},
	}
}

func TestSearchPixelRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		w, h := 64+rng.Intn(1000), 64+rng.Intn(1000)
		m := testMarker(rng.Float64(), rng.Float64())
		p := geom.Vec2{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5}

		back := SearchPixelToMarkerUnified(w, h, m, MarkerUnifiedToSearchPixel(w, h, m, p))
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)
	}
}

func TestSearchOrigin_Truncates(t *testing.T) {
	t.Parallel()

	m := testMarker(0.5, 0.5)
	// (0.5-0.2)*101 = 30.3 ; (0.5-0.2)*99 = 29.7
	o := SearchOrigin(101, 99, m)
	assert.Equal(t, geom.Vec2{X: 30, Y: 29}, o)
}

func TestMarkerTrackingRoundTrip(t *testing.T) {
	t.Parallel()

	const w, h = 640, 480
	m := testMarker(0.4, 0.6)
	orig := *m

	t.Run("identity output leaves marker unchanged", func(t *testing.T) {
		c := MarkerToTracking(w, h, m)
		MarkerFromTracking(w, h, m, c)
		assert.InDelta(t, orig.Pos.X, m.Pos.X, 1e-9)
		assert.InDelta(t, orig.Pos.Y, m.Pos.Y, 1e-9)
		for i := range m.PatternCorners {
			assert.InDelta(t, orig.PatternCorners[i].X, m.PatternCorners[i].X, 1e-9)
			assert.InDelta(t, orig.PatternCorners[i].Y, m.PatternCorners[i].Y, 1e-9)
		}
	})

	t.Run("shifted output moves the whole patch", func(t *testing.T) {
		m := orig
		c := MarkerToTracking(w, h, &m)
		for i := range c.X {
			c.X[i] += 6.4
			c.Y[i] -= 4.8
		}
		MarkerFromTracking(w, h, &m, c)
		assert.InDelta(t, orig.Pos.X+0.01, m.Pos.X, 1e-9)
		assert.InDelta(t, orig.Pos.Y-0.01, m.Pos.Y, 1e-9)
		for i := range m.PatternCorners {
			assert.InDelta(t, orig.PatternCorners[i].X, m.PatternCorners[i].X, 1e-9)
			assert.InDelta(t, orig.PatternCorners[i].Y, m.PatternCorners[i].Y, 1e-9)
		}
	})
}
