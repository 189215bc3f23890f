package stabilize

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/testutil"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

const size = 100

func newTracking(t *testing.T) *registry.Tracking {
	t.Helper()
	tr, err := registry.NewFromConfig(config.MustLoadDefaultConfig(), size, size)
	require.NoError(t, err)
	tr.Stabilization.Enabled = true
	return tr
}

// addPath adds a stabilization track with one marker per position,
// starting at frame 1.
func addPath(tr *registry.Tracking, stab bool, path ...geom.Vec2) *track.Track {
	tk := tr.AddTrack(tr.CameraObject(), path[0].X, path[0].Y, 1, size, size)
	base := tk.Markers[0]
	for i, p := range path[1:] {
		m := base
		m.Frame = i + 2
		m.Pos = p
		tk.Insert(m)
	}
	if stab {
		tk.Flag |= track.UseStab2D
	}
	return tk
}

func repeat(p geom.Vec2, n int) []geom.Vec2 {
	out := make([]geom.Vec2, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func assertTransform(t *testing.T, want, got Transform, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.Translation.X, got.Translation.X, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Translation.Y, got.Translation.Y, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Scale, got.Scale, 1e-9, msgAndArgs...)
	assert.InDelta(t, want.Angle, got.Angle, 1e-9, msgAndArgs...)
}

func TestData_StationaryTrack(t *testing.T) {
	t.Parallel()

	for _, autoscale := range []bool{false, true} {
		tr := newTracking(t)
		tr.Stabilization.Autoscale = autoscale
		addPath(tr, true, repeat(geom.Vec2{X: 0.3, Y: 0.6}, 10)...)

		for f := 1; f <= 10; f++ {
			assertTransform(t, Identity, Data(tr, f, size, size), "frame %d autoscale %v", f, autoscale)
		}
	}
}

func TestData_Disabled(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	addPath(tr, true, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.2, Y: 0.2})
	tr.Stabilization.Enabled = false
	assert.Equal(t, Identity, Data(tr, 2, size, size))

	tr = newTracking(t)
	addPath(tr, false, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.2, Y: 0.2})
	assert.Equal(t, Identity, Data(tr, 2, size, size), "no stabilization tracks")
}

func TestData_Translation(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Stabilization.LocInfluence = 0.5
	addPath(tr, true, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.54, Y: 0.48}, geom.Vec2{X: 0.58, Y: 0.46})

	got := Data(tr, 3, size, size)
	assertTransform(t, Transform{Translation: geom.Vec2{X: -4, Y: 2}, Scale: 1}, got)
}

func TestMedian(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	_, ok := Median(tr, 1)
	assert.False(t, ok)

	addPath(tr, true, geom.Vec2{X: 0.2, Y: 0.4})
	addPath(tr, true, geom.Vec2{X: 0.6, Y: 0.8})
	addPath(tr, false, geom.Vec2{X: 0.9, Y: 0.9})

	m, ok := Median(tr, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.4, m.X, 1e-12)
	assert.InDelta(t, 0.6, m.Y, 1e-12)
}

func TestCompute_Rotation(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Stabilization.Rotation = true
	addPath(tr, true, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.5, Y: 0.5})
	rot := addPath(tr, false, geom.Vec2{X: 0.6, Y: 0.5}, geom.Vec2{X: 0.5, Y: 0.6})
	tr.SetRotationTrack(rot)

	got := Data(tr, 2, size, size)
	assertTransform(t, Transform{Scale: 1, Angle: -math.Pi / 2}, got)

	tr.Stabilization.RotInfluence = 0.5
	assert.InDelta(t, -math.Pi/4, Data(tr, 2, size, size).Angle, 1e-9)

	tr.Stabilization.Rotation = false
	assert.Zero(t, Data(tr, 2, size, size).Angle)
}

func TestCompute_RotationAboutMedian(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Stabilization.Rotation = true
	addPath(tr, true, geom.Vec2{X: 0.7, Y: 0.5}, geom.Vec2{X: 0.7, Y: 0.5})
	rot := addPath(tr, false, geom.Vec2{X: 0.8, Y: 0.5}, geom.Vec2{X: 0.7, Y: 0.6})
	tr.SetRotationTrack(rot)

	d := Data(tr, 2, size, size)
	// the median pixel must stay put under the composed transform
	p := ToMat4(size, size, 1, d).TransformPoint(geom.Vec3{X: 70, Y: 50})
	assert.InDelta(t, 70, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)
}

func TestAutoscale(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Stabilization.Autoscale = true
	addPath(tr, true, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.4, Y: 0.5})

	assert.InDelta(t, 1.25, Autoscale(tr, size, size), 1e-9)
	assert.True(t, tr.Stabilization.Valid)

	d := Data(tr, 2, size, size)
	assertTransform(t, Transform{Translation: geom.Vec2{X: 12.5}, Scale: 1.25}, d)

	// cached until invalidated
	tr.Stabilization.MaxScale = 1.1
	assert.InDelta(t, 1.25, Autoscale(tr, size, size), 1e-9)
	tr.Stabilization.Invalidate()
	assert.InDelta(t, 1.1, Autoscale(tr, size, size), 1e-9)
}

func TestToMat4(t *testing.T) {
	t.Parallel()

	assert.Equal(t, geom.Identity(), ToMat4(size, size, 1, Identity))

	m := ToMat4(size, size, 1, Transform{Translation: geom.Vec2{X: 3, Y: -2}, Scale: 1})
	assert.Equal(t, geom.Vec3{X: 13, Y: 8}, m.TransformPoint(geom.Vec3{X: 10, Y: 10}))

	m = ToMat4(size, size, 1, Transform{Scale: 1, Angle: math.Pi / 2})
	p := m.TransformPoint(geom.Vec3{X: 100, Y: 50})
	assert.InDelta(t, 50, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)

	m = ToMat4(size, size, 1, Transform{Scale: 2})
	assert.Equal(t, geom.Vec3{X: 50, Y: 50}, m.TransformPoint(geom.Vec3{X: 50, Y: 50}))
	assert.Equal(t, geom.Vec3{X: 70, Y: 30}, m.TransformPoint(geom.Vec3{X: 60, Y: 40}))
}

func TestResample(t *testing.T) {
	t.Parallel()

	for _, n := range []int{32, 160} { // serial and row parallel
		src := testutil.Texture(n, n, 3)

		got, err := Resample(context.Background(), src, geom.Identity(), registry.FilterNearest)
		require.NoError(t, err)
		assert.Equal(t, src.Float, got.Float)

		shift := geom.Translate(geom.Vec3{X: 3, Y: 2})
		for _, f := range []registry.Filter{registry.FilterNearest, registry.FilterBilinear} {
			got, err = Resample(context.Background(), src, shift, f)
			require.NoError(t, err)
			assert.Equal(t, src.RGBA(10, 11), got.RGBA(13, 13), "filter %v", f)
			assert.Equal(t, [4]float32{}, got.RGBA(1, 1), "uncovered pixels are empty")
		}
	}
}

func TestResample_BicubicKeepsFlatColor(t *testing.T) {
	t.Parallel()

	src := imbuf.NewFloat(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetRGBA(x, y, [4]float32{0.5, 0.25, 0.75, 1})
		}
	}
	got, err := Resample(context.Background(), src, geom.Translate(geom.Vec3{X: 0.3, Y: 0.6}), registry.FilterBicubic)
	require.NoError(t, err)
	p := got.RGBA(8, 8)
	assert.InDelta(t, 0.5, p[0], 1e-5)
	assert.InDelta(t, 0.25, p[1], 1e-5)
	assert.InDelta(t, 1, p[3], 1e-5)
}

func TestResample_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Resample(ctx, testutil.Texture(200, 200, 1), geom.Identity(), registry.FilterNearest)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStabilizeFrame(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Stabilization.Filter = registry.FilterNearest
	addPath(tr, true, geom.Vec2{X: 0.5, Y: 0.5}, geom.Vec2{X: 0.75, Y: 0.25})

	src := testutil.Texture(size, size, 9)
	got, d, err := StabilizeFrame(context.Background(), tr, 2, src)
	require.NoError(t, err)
	assertTransform(t, Transform{Translation: geom.Vec2{X: -25, Y: 25}, Scale: 1}, d)
	assert.Equal(t, src.RGBA(50, 30), got.RGBA(25, 55))

	tr.Stabilization.Enabled = false
	same, d, err := StabilizeFrame(context.Background(), tr, 2, src)
	require.NoError(t, err)
	assert.Same(t, src, same)
	assert.Equal(t, Identity, d)
}

func TestStabilizeImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	src.Set(10, 20, color.RGBA{R: 255, A: 255})

	// +y in frame pixels moves up, which is -y in image rows
	m := geom.Translate(geom.Vec3{X: 5, Y: 5})
	got := StabilizeImage(src, m, registry.FilterNearest)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, got.RGBAAt(15, 15))
	assert.Equal(t, color.RGBA{}, got.RGBAAt(10, 20))
	assert.Equal(t, src.Bounds(), got.Bounds())
}
