package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/fsutil"
	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/testutil"
	"github.com/banshee-data/motiontrack/internal/timeutil"
	"github.com/banshee-data/motiontrack/internal/tracking/footage"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/reconstruct"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/storage/sqlite"
)

func init() {
	monitoring.SetLogger(nil)
}

const (
	frameW, frameH = 200, 160
	lastFrame      = 6
)

var defaultsPath = filepath.Join("..", "..", config.DefaultConfigPath)

// writeShot renders a translating noise sequence into /shot.
func writeShot(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	p := testutil.MovingSequence(frameW, frameH, 1, lastFrame, 1, 1, 7)
	for f := 1; f <= lastFrame; f++ {
		b, err := p.Acquire(context.Background(), f)
		require.NoError(t, err)
		require.NoError(t, footage.WritePNG(mfs, fmt.Sprintf("/shot/shot_%04d.png", f), b))
	}
	return mfs
}

// writeConfig copies the defaults with overrides into a temp file.
func writeConfig(t *testing.T, overrides map[string]any) string {
	t.Helper()
	data, err := os.ReadFile(defaultsPath)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for k, v := range overrides {
		m[k] = v
	}
	data, err = json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tracking.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func denseConfig(t *testing.T) string {
	return writeConfig(t, map[string]any{"detect_min_distance": 20, "keyframe2": lastFrame})
}

func runCmd(t *testing.T, files fsutil.FileSystem, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out, files)
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()
	_, err := runCmd(t, fsutil.NewMemoryFileSystem())
	assert.ErrorIs(t, err, errUsage)

	_, err = runCmd(t, fsutil.NewMemoryFileSystem(), "bogus")
	assert.ErrorIs(t, err, errUsage)

	out, err := runCmd(t, fsutil.NewMemoryFileSystem(), "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: matchmove")
}

func TestRun_Version(t *testing.T) {
	t.Parallel()
	out, err := runCmd(t, fsutil.NewMemoryFileSystem(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "matchmove version")
}

func TestTrack_RequiresFrames(t *testing.T) {
	t.Parallel()
	_, err := runCmd(t, fsutil.NewMemoryFileSystem(), "track", "-config", defaultsPath)
	assert.ErrorContains(t, err, "-frames")
}

func TestTrack_UnknownBackend(t *testing.T) {
	t.Parallel()
	mfs := writeShot(t)
	_, err := runCmd(t, mfs, "track", "-frames", "/shot", "-config", defaultsPath, "-tracker", "nope")
	assert.Error(t, err)
	_, err = runCmd(t, mfs, "track", "-frames", "/shot", "-config", defaultsPath, "-detector", "nope")
	assert.Error(t, err)
}

func TestTrack(t *testing.T) {
	t.Parallel()
	out, err := runCmd(t, writeShot(t), "track", "-frames", "/shot", "-config", denseConfig(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "TRACK"))
	// every seeded track starts on the first frame
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 4, line)
		assert.Equal(t, "1", fields[1], line)
	}
}

func TestDopesheet(t *testing.T) {
	t.Parallel()
	mfs := writeShot(t)
	out, err := runCmd(t, mfs, "dopesheet", "-frames", "/shot", "-config", denseConfig(t), "-sort", "longest")
	require.NoError(t, err)
	assert.Contains(t, out, "CHANNEL")
	assert.Contains(t, out, "COVERAGE")
	assert.Contains(t, out, "channels, mean")

	_, err = runCmd(t, mfs, "dopesheet", "-frames", "/shot", "-config", denseConfig(t), "-sort", "sideways")
	assert.ErrorContains(t, err, "sideways")
}

func TestPlot(t *testing.T) {
	t.Parallel()
	mfs := writeShot(t)
	_, err := runCmd(t, mfs, "plot", "-frames", "/shot", "-config", denseConfig(t), "-out", "/plots")
	require.NoError(t, err)

	for _, name := range []string{"track_paths.png", "stabilization_translation.png", "stabilization_scale_angle.png"} {
		data, err := mfs.ReadFile("/plots/" + name)
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), name)
	}
	html, err := mfs.ReadFile("/plots/coverage.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Frame Coverage")
}

func TestStabilize(t *testing.T) {
	t.Parallel()
	mfs := writeShot(t)
	out, err := runCmd(t, mfs, "stabilize", "-frames", "/shot", "-config", denseConfig(t), "-out", "/stab", "-rotation")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), lastFrame)

	seq, err := footage.Open(mfs, "/stab")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, seq.Frames())
	w, h := seq.FrameSize()
	assert.Equal(t, frameW, w)
	assert.Equal(t, frameH, h)
}

func TestSolve_WithoutReplay(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := runCmd(t, writeShot(t), "solve", "-frames", "/shot", "-config", denseConfig(t), "-db", db)
	assert.ErrorIs(t, err, reconstruct.ErrSolverUnavailable)
}

func TestSolve_TooFewTracks(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "runs.db")
	// the default keyframe2 lies beyond the shot
	_, err := runCmd(t, writeShot(t), "solve", "-frames", "/shot", "-config", defaultsPath, "-db", db)
	assert.ErrorIs(t, err, reconstruct.ErrTooFewTracks)
}

func TestSolve_UnknownRun(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := runCmd(t, writeShot(t), "solve", "-frames", "/shot", "-config", denseConfig(t), "-db", db, "-replay", "missing")
	assert.ErrorIs(t, err, sqlite.ErrRunNotFound)
}

// archiveCameraPath stores a run holding one camera per frame and no
// bundles, so a replay solves every frame.
func archiveCameraPath(t *testing.T, db string) string {
	t.Helper()
	store, err := sqlite.Open(db, timeutil.RealClock{})
	require.NoError(t, err)
	defer store.Close()

	tr, err := registry.NewFromConfig(loadDefaults(t), frameW, frameH)
	require.NoError(t, err)
	cam := tr.CameraObject()
	cam.Reconstruction.Reconstructed = true
	cam.Reconstruction.Error = 0.25
	for f := 1; f <= lastFrame; f++ {
		cam.Reconstruction.Cameras = append(cam.Reconstruction.Cameras, registry.CameraPose{
			Frame: f,
			Mat:   geom.Translate(geom.Vec3{X: 0.1 * float64(f), Z: 3}),
		})
	}
	run, err := store.SaveRun(context.Background(), tr, cam)
	require.NoError(t, err)
	return run.RunID
}

func TestSolve_Replay(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "runs.db")
	runID := archiveCameraPath(t, db)

	mfs := writeShot(t)
	out, err := runCmd(t, mfs, "solve", "-frames", "/shot", "-config", denseConfig(t),
		"-db", db, "-replay", runID, "-keyframe1", "1", "-keyframe2", "6", "-camera-plot", "/camera_path.png")
	require.NoError(t, err)
	assert.Contains(t, out, "solved Camera")
	assert.Contains(t, out, "6 cameras")
	assert.Contains(t, out, "archived run")
	data, err := mfs.ReadFile("/camera_path.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	out, err = runCmd(t, fsutil.NewMemoryFileSystem(), "runs", "-db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, out, runID)
}

func TestRuns_Empty(t *testing.T) {
	t.Parallel()
	db := filepath.Join(t.TempDir(), "runs.db")
	out, err := runCmd(t, fsutil.NewMemoryFileSystem(), "runs", "-db", db, "-object", "Camera")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "RUN"))
}

func loadDefaults(t *testing.T) *config.TrackingConfig {
	t.Helper()
	cfg, err := config.LoadTrackingConfig(defaultsPath)
	require.NoError(t, err)
	return cfg
}

func TestTrack_Patterns(t *testing.T) {
	t.Parallel()
	mfs := writeShot(t)
	_, err := runCmd(t, mfs, "track", "-frames", "/shot", "-config", denseConfig(t), "-patterns", "/patterns", "-pattern-size", "16")
	require.NoError(t, err)

	data, err := mfs.ReadFile("/patterns/Track.png")
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 16, cfg.Height)

	_, err = runCmd(t, mfs, "track", "-frames", "/shot", "-config", denseConfig(t), "-patterns", "/patterns", "-pattern-size", "0")
	assert.Error(t, err)
}
