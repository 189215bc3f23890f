package detect

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// square returns a black 100x100 frame with a white square covering
// x in [40, 60) and y in [30, 50).
func square() *imbuf.ImBuf {
	b := imbuf.NewFloat(100, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			p := [4]float32{0, 0, 0, 1}
			if x >= 40 && x < 60 && y >= 30 && y < 50 {
				p = [4]float32{1, 1, 1, 1}
			}
			b.SetRGBA(x, y, p)
		}
	}
	return b
}

func TestFASTDetector_SquareCorners(t *testing.T) {
	t.Parallel()

	d := FASTDetector{Options: Options{Margin: 16, Threshold: 16, MinDistance: 10}}
	fs, err := d.Detect(context.Background(), square())
	require.NoError(t, err)
	require.Len(t, fs, 4)

	corners := []geom.Vec2{{X: 40, Y: 30}, {X: 59, Y: 30}, {X: 59, Y: 49}, {X: 40, Y: 49}}
	for _, f := range fs {
		near := false
		for _, c := range corners {
			if math.Hypot(f.X-c.X, f.Y-c.Y) <= 3 {
				near = true
			}
		}
		assert.True(t, near, "feature %+v is not at a corner", f)
	}
	for i := 1; i < len(fs); i++ {
		assert.GreaterOrEqual(t, fs[i-1].Score, fs[i].Score)
	}
}

func TestFASTDetector_MarginAndFlat(t *testing.T) {
	t.Parallel()

	d := FASTDetector{Options: Options{Margin: 45, Threshold: 16, MinDistance: 10}}
	fs, err := d.Detect(context.Background(), square())
	require.NoError(t, err)
	assert.Empty(t, fs)

	fs, err = FASTDetector{Options: Options{Threshold: 16}}.Detect(context.Background(), imbuf.NewFloat(50, 50))
	require.NoError(t, err)
	assert.Empty(t, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Detect(ctx, square())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuppress(t *testing.T) {
	t.Parallel()

	fs := []Feature{{X: 0, Y: 0, Score: 3}, {X: 3, Y: 4, Score: 2}, {X: 10, Y: 0, Score: 1}}
	assert.Equal(t, []Feature{fs[0], fs[2]}, suppress(fs, 6))
	assert.Equal(t, fs, suppress(fs, 5))
	assert.Equal(t, fs, suppress(fs, 0))
}

func TestLongestRun(t *testing.T) {
	t.Parallel()

	var d [16]float32
	for i := 12; i < 16+5; i++ {
		d[i%16] = 1
	}
	assert.Equal(t, 9, longestRun(d, func(v float32) bool { return v > 0 }), "runs wrap around the ring")

	for i := range d {
		d[i] = 1
	}
	assert.Equal(t, 16, longestRun(d, func(v float32) bool { return v > 0 }))
}

func TestAddFeatures(t *testing.T) {
	t.Parallel()

	left := &track.Layer{Strokes: []track.Stroke{{Points: []geom.Vec2{
		{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1},
	}}}}
	features := []Feature{{X: 20, Y: 50}, {X: 80, Y: 50}}

	tests := []struct {
		name    string
		layer   *track.Layer
		outside bool
		wantX   []float64
	}{
		{"no layer", nil, false, []float64{0.2, 0.8}},
		{"inside", left, false, []float64{0.2}},
		{"outside", left, true, []float64{0.8}},
		{"empty layer", &track.Layer{}, true, []float64{0.2, 0.8}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := registry.NewFromConfig(config.MustLoadDefaultConfig(), 100, 100)
			require.NoError(t, err)
			cam := tr.CameraObject()

			added := AddFeatures(tr, cam, features, 5, 100, 100, tt.layer, tt.outside)
			require.Len(t, added, len(tt.wantX))
			for i, tk := range added {
				m := tk.GetExact(5)
				require.NotNil(t, m)
				assert.InDelta(t, tt.wantX[i], m.Pos.X, 1e-12)
				assert.InDelta(t, 0.5, m.Pos.Y, 1e-12)
				assert.True(t, tk.Selected())
				assert.NotZero(t, tk.PatFlag&track.Selected)
				assert.NotZero(t, tk.SearchFlag&track.Selected)
			}
			assert.Len(t, cam.Tracks, len(tt.wantX))
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts := OptionsFromConfig(config.MustLoadDefaultConfig())
	assert.Equal(t, Options{Margin: 16, Threshold: 16, MinDistance: 120}, opts)
}
