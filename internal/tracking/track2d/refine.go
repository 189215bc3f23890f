package track2d

import (
	"context"
	"fmt"

	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/regiontrack"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Refine re-tracks the marker of t at frame from its reference: the
// previous keyframe (or previous frame) when tracking forwards, the next
// one when backwards. The marker is updated in place and flagged tracked
// on success; neighbouring markers are never touched. Refining a marker
// against itself is a no-op.
func Refine(ctx context.Context, tr *registry.Tracking, p imbuf.Provider, tracker regiontrack.Tracker, t *track.Track, frame int, backwards bool) (bool, error) {
	m := t.GetExact(frame)
	if m == nil {
		return false, fmt.Errorf("track '%s' has no marker at frame %d", t.Name, frame)
	}

	refFrame := frame - 1
	if backwards {
		refFrame = frame + 1
	}
	ref, loadFrame := referenceMarker(t, refFrame, backwards)
	if ref == nil {
		return false, nil
	}
	refBuf, err := p.Acquire(ctx, loadFrame)
	if err != nil {
		return false, fmt.Errorf("reference frame %d: %w", loadFrame, err)
	}

	if ref == m {
		logf("Could not refine with self")
		return false, nil
	}
	// copy before the marker array can change under the pointer
	refMarker := *ref

	dst, err := p.Acquire(ctx, frame)
	if err != nil {
		return false, fmt.Errorf("frame %d: %w", frame, err)
	}

	search := imbuf.SearchGray(refBuf, t, &refMarker)
	var msk []float32
	if t.AlgorithmFlag&track.UseMask != 0 {
		msk = maskFor(dst.W, dst.H, t, &refMarker)
	}

	opts := trackerOptions(t, tr.Settings.TrackerIterations, tr.Settings.TrackerSigma)
	ok, c := trackRegion(ctx, tracker, opts, dst, t, &refMarker, m, search, msk)
	if !ok {
		return false, nil
	}

	coords.MarkerFromTracking(dst.W, dst.H, m, c)
	m.Flag |= track.MarkerTracked
	tr.Touch()
	return true, nil
}
