package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

func testMarker() *track.Marker {
	return &track.Marker{
		Pos:       geom.Vec2{X: 0.5, Y: 0.5},
		SearchMin: geom.Vec2{X: -0.1, Y: -0.1},
		SearchMax: geom.Vec2{X: 0.1, Y: 0.1},
	}
}

func square(x0, y0, x1, y1 float64) track.Stroke {
	return track.Stroke{Points: []geom.Vec2{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}}
}

func TestRasterize_NoLayer(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Rasterize(100, 100, &track.Track{}, testMarker()))
	assert.Nil(t, Rasterize(100, 100, &track.Track{Mask: &track.Layer{}}, testMarker()))
}

func TestRasterize_Square(t *testing.T) {
	t.Parallel()

	// Left half of a 20x20 search window on a 100x100 frame.
	tr := &track.Track{Mask: &track.Layer{Strokes: []track.Stroke{square(-0.1, -0.1, 0.0, 0.1)}}}
	m := testMarker()

	out := Rasterize(100, 100, tr, m)
	require.Len(t, out, 20*20)

	w, h := Size(100, 100, m)
	require.Equal(t, 20, w)
	require.Equal(t, 20, h)

	assert.InDelta(t, 1.0, out[5*w+2], 1e-6)
	assert.InDelta(t, 0.0, out[5*w+15], 1e-6)

	var sum float32
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 200, sum, 1)
}

func TestRasterize_ClipsToWindow(t *testing.T) {
	t.Parallel()

	// A stroke far larger than the window covers it completely.
	tr := &track.Track{Mask: &track.Layer{Strokes: []track.Stroke{square(-1, -1, 1, 1)}}}
	out := Rasterize(100, 100, tr, testMarker())
	require.NotEmpty(t, out)
	for i, v := range out {
		require.InDelta(t, 1.0, v, 1e-6, "pixel %d", i)
	}
}
