package reconstruct

import (
	"context"

	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
)

// Mode selects how the solver initialises the reconstruction.
type Mode int

const (
	// ModeKeyframes starts from a two-keyframe baseline.
	ModeKeyframes Mode = iota
	// ModeTripod solves camera rotation only.
	ModeTripod
)

func (m Mode) String() string {
	if m == ModeTripod {
		return "tripod"
	}
	return "keyframes"
}

// Observation is one enabled marker in pixels. Track is the ordinal of the
// track in Problem.Tracks.
type Observation struct {
	Frame int
	Track int
	X, Y  float64
}

// Options are the reconstruction options handed to the solver.
type Options struct {
	Mode             Mode
	SelectKeyframes  bool
	Keyframe1        int
	Keyframe2        int
	Refine           registry.RefineFlag
	SuccessThreshold float64
	UseFallback      bool
}

// Problem is everything a solver needs. Y coordinates and the principal
// point are aspect corrected.
type Problem struct {
	Observations []Observation
	// Tracks holds track names by ordinal.
	Tracks []string
	Camera camera.Intrinsics
	// FirstFrame and LastFrame bound the enabled markers.
	FirstFrame int
	LastFrame  int
	Options    Options
}

// Progress receives solver progress in [0, 1] with a status message.
type Progress func(progress float64, message string)

// Result is a finished solve. Track arguments are ordinals into
// Problem.Tracks.
type Result interface {
	CameraForFrame(frame int) (geom.Mat4, bool)
	ErrorForFrame(frame int) float64
	PointForTrack(track int) (geom.Vec3, bool)
	ErrorForTrack(track int) float64
	// Error is the overall reprojection error.
	Error() float64
	Intrinsics() camera.Intrinsics
	// Keyframes returns the keyframes the solve started from.
	Keyframes() (int, int)
}

// Solver is a bundle adjustment backend. Solve is called once per
// Context; progress is called synchronously from within Solve.
type Solver interface {
	Solve(ctx context.Context, p Problem, progress Progress) (Result, error)
}
