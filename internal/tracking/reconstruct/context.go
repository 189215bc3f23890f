package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
	"github.com/banshee-data/motiontrack/internal/tracking/tracksmap"
)

var logf = monitoring.Component("reconstruct")

// MinCommonTracks is the number of tracks needed on both keyframes.
const MinCommonTracks = 8

var (
	// ErrTooFewTracks is returned by Check when the keyframes do not share
	// enough tracks.
	ErrTooFewTracks = errors.New("at least 8 common tracks on both keyframes are needed for reconstruction")
	// ErrSolverUnavailable is returned by Check when no solver is configured.
	ErrSolverUnavailable = errors.New("no reconstruction solver available")
	// ErrIncomplete is returned by Finish when some track has no bundle or
	// some frame has no camera. Whatever was recovered is still committed.
	ErrIncomplete = errors.New("reconstruction incomplete")
	// ErrNotSolved is returned by Finish before a successful Solve.
	ErrNotSolved = errors.New("reconstruction not solved")
)

// Check reports whether obj can be reconstructed with solver. Nothing is
// modified.
func Check(tr *registry.Tracking, obj *registry.Object, solver Solver) error {
	if !tr.Settings.Tripod && !tr.Settings.SelectKeyframes {
		if n := countCommonTracks(obj, obj.Keyframe1, obj.Keyframe2); n < MinCommonTracks {
			return fmt.Errorf("%w: keyframes %d and %d share %d", ErrTooFewTracks, obj.Keyframe1, obj.Keyframe2, n)
		}
	}
	if solver == nil {
		return ErrSolverUnavailable
	}
	return nil
}

func countCommonTracks(obj *registry.Object, frame1, frame2 int) int {
	n := 0
	for _, t := range obj.Tracks {
		if t.HasEnabledMarkerAt(frame1) && t.HasEnabledMarkerAt(frame2) {
			n++
		}
	}
	return n
}

// Context is one reconstruction job. It holds a private copy of the
// object's tracks so the registry may be edited while Solve runs.
type Context struct {
	tracks *tracksmap.Map[struct{}]
	// ids maps track ordinals to track IDs.
	ids []int

	problem Problem
	aspy    float64

	keyframe1, keyframe2 int
	result               Result
	reprojErr            float64
}

// NewContext snapshots the tracks of obj. w and h are the frame size the
// marker positions are scaled by.
func NewContext(tr *registry.Tracking, obj *registry.Object, keyframe1, keyframe2, w, h int) *Context {
	aspy := 1.0
	if tr.Camera.PixelAspect != 0 {
		aspy = 1 / tr.Camera.PixelAspect
	}

	c := &Context{
		tracks:    tracksmap.New[struct{}](obj.Name, obj.IsCamera(), len(obj.Tracks)),
		aspy:      aspy,
		keyframe1: keyframe1,
		keyframe2: keyframe2,
	}

	cam := tr.Camera
	cam.PrincipalY *= aspy
	cam.ImageWidth, cam.ImageHeight = w, h

	mode := ModeKeyframes
	if tr.Settings.Tripod {
		mode = ModeTripod
	}
	var refine registry.RefineFlag
	if obj.IsCamera() {
		refine = tr.Settings.RefineIntrinsics
	}

	sfra, efra := math.MaxInt, math.MinInt
	var obs []Observation
	var names []string
	for ord, t := range obj.Tracks {
		if first, last, ok := t.FirstLastEnabled(); ok {
			sfra = min(sfra, first)
			efra = max(efra, last)
		}
		obs = appendObservations(obs, t, ord, float64(w), float64(h)*aspy)

		c.tracks.Insert(t, struct{}{})
		c.ids = append(c.ids, t.ID)
		names = append(names, t.Name)
	}

	c.problem = Problem{
		Observations: obs,
		Tracks:       names,
		Camera:       cam,
		FirstFrame:   sfra,
		LastFrame:    efra,
		Options: Options{
			Mode:             mode,
			SelectKeyframes:  tr.Settings.SelectKeyframes,
			Keyframe1:        keyframe1,
			Keyframe2:        keyframe2,
			Refine:           refine,
			SuccessThreshold: tr.Settings.SuccessThreshold,
			UseFallback:      tr.Settings.UseFallback,
		},
	}
	return c
}

func appendObservations(obs []Observation, t *track.Track, ord int, w, h float64) []Observation {
	for _, m := range t.Markers {
		if m.Disabled() {
			continue
		}
		obs = append(obs, Observation{
			Frame: m.Frame,
			Track: ord,
			X:     (m.Pos.X + t.Offset.X) * w,
			Y:     (m.Pos.Y + t.Offset.Y) * h,
		})
	}
	return obs
}

// Problem returns the solver input built by NewContext.
func (c *Context) Problem() Problem { return c.problem }

// FrameRange returns the inclusive frame range spanned by enabled markers.
// ok is false when the object has no enabled markers.
func (c *Context) FrameRange() (first, last int, ok bool) {
	return c.problem.FirstFrame, c.problem.LastFrame, c.problem.FirstFrame <= c.problem.LastFrame
}

// Solve runs solver on the snapshot. progress may be nil; messages passed
// to it are prefixed with "Solving camera | ".
func (c *Context) Solve(ctx context.Context, solver Solver, progress Progress) error {
	report := func(p float64, msg string) {
		if progress != nil {
			progress(p, fmt.Sprintf("Solving camera | %s", msg))
		}
	}

	res, err := solver.Solve(ctx, c.problem, report)
	if err != nil {
		return fmt.Errorf("solve %s: %w", c.problem.Options.Mode, err)
	}
	c.result = res

	if c.problem.Options.Mode == ModeKeyframes && c.problem.Options.SelectKeyframes {
		c.keyframe1, c.keyframe2 = res.Keyframes()
	}
	c.reprojErr = res.Error()
	return nil
}

// Error returns the overall reprojection error of the last Solve.
func (c *Context) Error() float64 { return c.reprojErr }

// Finish merges the snapshot back into tr and writes the solve into the
// object: bundles, per-frame cameras, refined intrinsics and errors. The
// first solved camera becomes the identity and everything else is moved
// into its frame. ErrIncomplete is returned when any track lacks a bundle
// or any frame in range lacks a camera; the rest is committed regardless.
func (c *Context) Finish(tr *registry.Tracking) error {
	if c.result == nil {
		return ErrNotSolved
	}

	obj := c.tracks.Merge(tr)
	if c.problem.Options.SelectKeyframes {
		obj.Keyframe1, obj.Keyframe2 = c.keyframe1, c.keyframe2
	}

	recon := &obj.Reconstruction
	recon.Error = c.reprojErr
	recon.Reconstructed = true

	c.retrieveIntrinsics(tr)
	ok := c.retrieveTracks(obj)
	tr.Touch()

	if !ok {
		return ErrIncomplete
	}
	return nil
}

func (c *Context) retrieveIntrinsics(tr *registry.Tracking) {
	in := c.result.Intrinsics()
	tr.Camera.Focal = in.Focal
	tr.Camera.PrincipalX = in.PrincipalX
	tr.Camera.PrincipalY = in.PrincipalY / c.aspy
	tr.Camera.K1 = in.K1
	tr.Camera.K2 = in.K2
	tr.Camera.K3 = in.K3
}

func (c *Context) retrieveTracks(obj *registry.Object) bool {
	ok := true

	for ord, id := range c.ids {
		t := obj.TrackByID(id)
		if t == nil {
			continue
		}
		if pos, found := c.result.PointForTrack(ord); found {
			t.Bundle = pos
			t.Flag |= track.HasBundle
			t.Error = c.result.ErrorForTrack(ord)
		} else {
			t.Flag &^= track.HasBundle
			ok = false
			logf("No bundle for track #%d '%s'", ord, t.Name)
		}
	}

	recon := &obj.Reconstruction
	recon.Cameras = nil

	imat := geom.Identity()
	originSet := false
	for f := c.problem.FirstFrame; f <= c.problem.LastFrame; f++ {
		mat, found := c.result.CameraForFrame(f)
		if !found {
			ok = false
			logf("No camera for frame %d", f)
			continue
		}
		// the first solved camera defines the origin; this assumes object
		// motion starts on the same frame as the camera motion
		if !originSet {
			if inv, invertible := mat.Inverse(); invertible {
				imat = inv
			} else {
				logf("Camera for frame %d is singular, origin left unchanged", f)
			}
			mat = geom.Identity()
			originSet = true
		} else {
			mat = imat.Mul(mat)
		}
		recon.Cameras = append(recon.Cameras, registry.CameraPose{
			Frame: f,
			Mat:   mat,
			Error: c.result.ErrorForFrame(f),
		})
	}

	if originSet {
		for _, id := range c.ids {
			if t := obj.TrackByID(id); t != nil && t.HasBundle() {
				t.Bundle = imat.TransformPoint(t.Bundle)
			}
		}
	}
	return ok
}
