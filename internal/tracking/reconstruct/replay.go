package reconstruct

import (
	"context"
	"fmt"

	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

// ReferenceSolver is a deterministic Solver that returns known cameras and
// points instead of estimating them. It replays archived runs and stands
// in for a bundle adjuster in tests. Points are keyed by track name.
type ReferenceSolver struct {
	Cameras     map[int]geom.Mat4
	Points      map[string]geom.Vec3
	FrameErrors map[int]float64
	TrackErrors map[string]float64
	// Intrinsics replaces the problem camera when set.
	Intrinsics *camera.Intrinsics
	// Keyframes are reported when the problem asks for keyframe selection.
	Keyframes [2]int
	Error     float64
}

// Solve implements Solver.
func (s *ReferenceSolver) Solve(ctx context.Context, p Problem, progress Progress) (Result, error) {
	res := &replayResult{
		problem:   p,
		cameras:   make(map[int]geom.Mat4),
		points:    make(map[int]geom.Vec3),
		intrinsic: p.Camera,
		keyframe1: p.Options.Keyframe1,
		keyframe2: p.Options.Keyframe2,
		err:       s.Error,
		solver:    s,
	}
	if s.Intrinsics != nil {
		res.intrinsic = *s.Intrinsics
		// results carry the aspect corrected principal point
		aspy := 1.0
		if p.Camera.PixelAspect != 0 {
			aspy = 1 / p.Camera.PixelAspect
		}
		res.intrinsic.PrincipalY *= aspy
	}
	if p.Options.SelectKeyframes && s.Keyframes != [2]int{} {
		res.keyframe1, res.keyframe2 = s.Keyframes[0], s.Keyframes[1]
	}

	for ord, name := range p.Tracks {
		if pt, ok := s.Points[name]; ok {
			res.points[ord] = pt
		}
	}

	total := p.LastFrame - p.FirstFrame + 1
	for f := p.FirstFrame; f <= p.LastFrame; f++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m, ok := s.Cameras[f]; ok {
			res.cameras[f] = m
		}
		if progress != nil {
			progress(float64(f-p.FirstFrame+1)/float64(total), fmt.Sprintf("Replaying frame %d", f))
		}
	}
	return res, nil
}

type replayResult struct {
	problem              Problem
	cameras              map[int]geom.Mat4
	points               map[int]geom.Vec3
	intrinsic            camera.Intrinsics
	keyframe1, keyframe2 int
	err                  float64
	solver               *ReferenceSolver
}

func (r *replayResult) CameraForFrame(frame int) (geom.Mat4, bool) {
	m, ok := r.cameras[frame]
	return m, ok
}

func (r *replayResult) ErrorForFrame(frame int) float64 { return r.solver.FrameErrors[frame] }

func (r *replayResult) PointForTrack(track int) (geom.Vec3, bool) {
	p, ok := r.points[track]
	return p, ok
}

func (r *replayResult) ErrorForTrack(track int) float64 {
	if track < 0 || track >= len(r.problem.Tracks) {
		return 0
	}
	return r.solver.TrackErrors[r.problem.Tracks[track]]
}

func (r *replayResult) Error() float64                { return r.err }
func (r *replayResult) Intrinsics() camera.Intrinsics { return r.intrinsic }
func (r *replayResult) Keyframes() (int, int)         { return r.keyframe1, r.keyframe2 }
