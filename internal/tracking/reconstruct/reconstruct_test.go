package reconstruct

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

func init() {
	monitoring.SetLogger(nil)
}

const size = 100

func newTracking(t *testing.T) *registry.Tracking {
	t.Helper()
	tr, err := registry.NewFromConfig(config.MustLoadDefaultConfig(), size, size)
	require.NoError(t, err)
	cam := tr.CameraObject()
	cam.Keyframe1, cam.Keyframe2 = 1, 10
	return tr
}

// addTracks adds n tracks with enabled markers on frames first..last.
func addTracks(tr *registry.Tracking, obj *registry.Object, n, first, last int) []*track.Track {
	var out []*track.Track
	for i := 0; i < n; i++ {
		tk := tr.AddTrack(obj, 0.1+0.08*float64(i), 0.5, first, size, size)
		base := tk.Markers[0]
		for f := first + 1; f <= last; f++ {
			m := base
			m.Frame = f
			m.Pos.Y += 0.01 * float64(f-first)
			tk.Insert(m)
		}
		out = append(out, tk)
	}
	return out
}

// fullSolver returns a solver with a camera at x = frame on every frame in
// first..last except skip, and a point for every track.
func fullSolver(tracks []*track.Track, first, last, skip int) *ReferenceSolver {
	s := &ReferenceSolver{
		Cameras:     map[int]geom.Mat4{},
		Points:      map[string]geom.Vec3{},
		FrameErrors: map[int]float64{},
		TrackErrors: map[string]float64{},
		Error:       0.25,
	}
	for f := first; f <= last; f++ {
		if f == skip {
			continue
		}
		s.Cameras[f] = geom.Translate(geom.Vec3{X: float64(f)})
		s.FrameErrors[f] = 0.1 * float64(f)
	}
	for i, tk := range tracks {
		s.Points[tk.Name] = geom.Vec3{X: float64(i), Y: 1, Z: -5}
		s.TrackErrors[tk.Name] = 0.5
	}
	return s
}

func assertMat(t *testing.T, want, got geom.Mat4, msgAndArgs ...interface{}) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, msgAndArgs...)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	solver := &ReferenceSolver{}

	addTracks(tr, cam, 7, 1, 10)
	err := Check(tr, cam, solver)
	assert.ErrorIs(t, err, ErrTooFewTracks)

	addTracks(tr, cam, 1, 1, 10)
	assert.NoError(t, Check(tr, cam, solver))
	assert.ErrorIs(t, Check(tr, cam, nil), ErrSolverUnavailable)

	// a track that stops before the second keyframe does not count
	tr.Tracks()[0].Insert(track.Marker{Frame: 10, Flag: track.MarkerDisabled})
	assert.ErrorIs(t, Check(tr, cam, solver), ErrTooFewTracks)
}

func TestCheck_SkipsTrackCountWithoutKeyframePair(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Settings.SelectKeyframes = true
	assert.NoError(t, Check(tr, tr.CameraObject(), &ReferenceSolver{}))

	tr = newTracking(t)
	tr.Settings.Tripod = true
	assert.NoError(t, Check(tr, tr.CameraObject(), &ReferenceSolver{}))
	assert.ErrorIs(t, Check(tr, tr.CameraObject(), nil), ErrSolverUnavailable)
}

func TestNewContext_Problem(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Camera.PixelAspect = 2
	tr.Settings.RefineIntrinsics = registry.RefineFocal | registry.RefineK1
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 3, 2, 6)
	tracks[1].Offset = geom.Vec2{X: 0.1}
	tracks[2].Insert(track.Marker{Frame: 7, Flag: track.MarkerDisabled})

	c := NewContext(tr, cam, 2, 6, size, size)
	p := c.Problem()

	assert.Len(t, p.Observations, 15, "disabled markers are not observed")
	assert.Equal(t, []string{"Track", "Track.001", "Track.002"}, p.Tracks)
	first, last, ok := c.FrameRange()
	assert.True(t, ok)
	assert.Equal(t, 2, first)
	assert.Equal(t, 6, last)

	obs := p.Observations[5] // first marker of the second track
	assert.Equal(t, Observation{Frame: 2, Track: 1, X: (tracks[1].Markers[0].Pos.X + 0.1) * size, Y: 0.5 * size * 0.5}, obs)

	assert.Equal(t, tr.Camera.PrincipalY*0.5, p.Camera.PrincipalY)
	assert.Equal(t, ModeKeyframes, p.Options.Mode)
	assert.Equal(t, registry.RefineFocal|registry.RefineK1, p.Options.Refine)

	obj := tr.AddObject("Prop")
	addTracks(tr, obj, 1, 1, 3)
	assert.Zero(t, NewContext(tr, obj, 1, 3, size, size).Problem().Options.Refine,
		"intrinsics are only refined for the camera")

	tr.Settings.Tripod = true
	assert.Equal(t, ModeTripod, NewContext(tr, cam, 2, 6, size, size).Problem().Options.Mode)

	empty := tr.AddObject("Empty")
	_, _, ok = NewContext(tr, empty, 1, 2, size, size).FrameRange()
	assert.False(t, ok)
}

func TestSolve_ReportsProgress(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 4)

	c := NewContext(tr, cam, 1, 4, size, size)
	var messages []string
	var last float64
	err := c.Solve(context.Background(), fullSolver(tracks, 1, 4, 0), func(p float64, msg string) {
		messages = append(messages, msg)
		last = p
	})
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, "Solving camera | Replaying frame 1", messages[0])
	assert.Equal(t, 1.0, last)
	assert.Equal(t, 0.25, c.Error())

	// nil progress is allowed
	require.NoError(t, c.Solve(context.Background(), fullSolver(tracks, 1, 4, 0), nil))
}

func TestSolve_Cancelled(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewContext(tr, cam, 1, 4, size, size)
	err := c.Solve(ctx, fullSolver(tracks, 1, 4, 0), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.Finish(tr), ErrNotSolved)
}

func TestFinish_MissingFrameSkipped(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 10)

	c := NewContext(tr, cam, 1, 10, size, size)
	require.NoError(t, c.Solve(context.Background(), fullSolver(tracks, 1, 10, 7), nil))

	err := c.Finish(tr)
	assert.ErrorIs(t, err, ErrIncomplete)

	recon := cam.Reconstruction
	assert.True(t, recon.Reconstructed)
	assert.Equal(t, 0.25, recon.Error)
	require.Len(t, recon.Cameras, 9)
	for i := 1; i < len(recon.Cameras); i++ {
		assert.Greater(t, recon.Cameras[i].Frame, recon.Cameras[i-1].Frame)
		assert.NotEqual(t, 7, recon.Cameras[i].Frame)
	}

	// the first camera is the origin, the rest move with it
	assertMat(t, geom.Identity(), recon.Cameras[0].Mat)
	for _, pose := range recon.Cameras {
		want := geom.Translate(geom.Vec3{X: float64(pose.Frame - 1)})
		assertMat(t, want, pose.Mat, "frame %d", pose.Frame)
		assert.InDelta(t, 0.1*float64(pose.Frame), pose.Error, 1e-12)
	}

	for i, tk := range cam.Tracks {
		assert.True(t, tk.HasBundle(), tk.Name)
		assert.InDelta(t, float64(i)-1, tk.Bundle.X, 1e-9)
		assert.InDelta(t, 1, tk.Bundle.Y, 1e-9)
		assert.InDelta(t, -5, tk.Bundle.Z, 1e-9)
		assert.Equal(t, 0.5, tk.Error)
	}
}

func TestFinish_MissingBundle(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 5)
	tracks[3].Flag |= track.HasBundle

	solver := fullSolver(tracks, 1, 5, 0)
	delete(solver.Points, tracks[3].Name)

	c := NewContext(tr, cam, 1, 5, size, size)
	require.NoError(t, c.Solve(context.Background(), solver, nil))
	assert.ErrorIs(t, c.Finish(tr), ErrIncomplete)

	assert.Len(t, cam.Reconstruction.Cameras, 5)
	for i, tk := range cam.Tracks {
		assert.Equal(t, i != 3, tk.HasBundle(), tk.Name)
	}
}

func TestFinish_Complete(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 5)
	rev := tr.Revision()

	c := NewContext(tr, cam, 1, 5, size, size)
	require.NoError(t, c.Solve(context.Background(), fullSolver(tracks, 1, 5, 0), nil))
	require.NoError(t, c.Finish(tr))
	assert.Greater(t, tr.Revision(), rev)
}

func TestFinish_RegistryEditedDuringSolve(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 5)

	c := NewContext(tr, cam, 1, 5, size, size)

	// edits made while the solver runs
	added := tr.AddTrack(cam, 0.9, 0.9, 1, size, size)
	require.NoError(t, tr.DeleteTrack(cam, tracks[0]))

	require.NoError(t, c.Solve(context.Background(), fullSolver(tracks, 1, 5, 0), nil))
	require.NoError(t, c.Finish(tr))

	assert.Len(t, cam.Tracks, 9, "the deleted track comes back with the merge")
	assert.False(t, cam.TrackByID(added.ID).HasBundle(), "tracks outside the snapshot are left alone")
	restored := cam.TrackByID(tracks[0].ID)
	require.NotNil(t, restored)
	assert.True(t, restored.HasBundle())
}

func TestFinish_Intrinsics(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	tr.Camera.PixelAspect = 2
	tr.Settings.SelectKeyframes = true
	cam := tr.CameraObject()
	tracks := addTracks(tr, cam, 8, 1, 5)

	refined := camera.Default(size, size, 35, 36, 2)
	refined.PrincipalX, refined.PrincipalY = 48, 52
	refined.K1, refined.K2, refined.K3 = -0.1, 0.02, 0.001

	solver := fullSolver(tracks, 1, 5, 0)
	solver.Intrinsics = &refined
	solver.Keyframes = [2]int{2, 4}

	c := NewContext(tr, cam, 1, 5, size, size)
	require.NoError(t, c.Solve(context.Background(), solver, nil))
	require.NoError(t, c.Finish(tr))

	assert.InDelta(t, refined.Focal, tr.Camera.Focal, 1e-9)
	assert.InDelta(t, 48, tr.Camera.PrincipalX, 1e-9)
	assert.InDelta(t, 52, tr.Camera.PrincipalY, 1e-9)
	assert.Equal(t, -0.1, tr.Camera.K1)
	assert.Equal(t, 0.02, tr.Camera.K2)
	assert.Equal(t, 0.001, tr.Camera.K3)
	assert.Equal(t, 2, cam.Keyframe1)
	assert.Equal(t, 4, cam.Keyframe2)
}

func TestFinish_ObjectReconstruction(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	obj := tr.AddObject("Prop")
	tracks := addTracks(tr, obj, 2, 3, 6)

	c := NewContext(tr, obj, 3, 6, size, size)
	require.NoError(t, c.Solve(context.Background(), fullSolver(tracks, 3, 6, 0), nil))
	require.NoError(t, c.Finish(tr))

	assert.Len(t, obj.Reconstruction.Cameras, 4)
	assert.Empty(t, tr.CameraObject().Reconstruction.Cameras)
	assert.Equal(t, 3, obj.Reconstruction.Cameras[0].Frame)
}

func TestRescale(t *testing.T) {
	t.Parallel()

	tr := newTracking(t)
	cam := tr.CameraObject()
	tk := tr.AddTrack(cam, 0.5, 0.5, 1, size, size)
	tk.Flag |= track.HasBundle
	tk.Bundle = geom.Vec3{X: 3, Y: 4, Z: 5}
	unsolved := tr.AddTrack(cam, 0.4, 0.4, 1, size, size)
	unsolved.Bundle = geom.Vec3{X: 1, Y: 1, Z: 1}

	cam.Reconstruction.Cameras = []registry.CameraPose{
		{Frame: 1, Mat: geom.Translate(geom.Vec3{X: 1, Y: 1, Z: 1})},
		{Frame: 2, Mat: geom.Translate(geom.Vec3{X: 2, Y: 3, Z: 4})},
	}

	Rescale(tr, geom.Vec3{X: 2, Y: 2, Z: 3})

	assert.Equal(t, geom.Vec3{}, cam.Reconstruction.Cameras[0].Mat.Translation())
	assert.Equal(t, geom.Vec3{X: 2, Y: 4, Z: 9}, cam.Reconstruction.Cameras[1].Mat.Translation())
	assert.Equal(t, geom.Vec3{X: 4, Y: 6, Z: 12}, tk.Bundle)
	assert.Equal(t, geom.Vec3{X: 1, Y: 1, Z: 1}, unsolved.Bundle, "tracks without a bundle are skipped")
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	for m, want := range map[Mode]string{ModeKeyframes: "keyframes", ModeTripod: "tripod"} {
		assert.Equal(t, want, fmt.Sprint(m))
	}
}
