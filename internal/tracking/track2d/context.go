package track2d

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/regiontrack"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
	"github.com/banshee-data/motiontrack/internal/tracking/tracksmap"
)

var logf = monitoring.Component("track2d")

// entry is the per-track engine state carried in the tracks map.
type entry struct {
	reference track.Marker
	search    *imbuf.Gray
	mask      []float32

	// frames tracked for this track during the run
	frames int
}

// Stats summarises a run.
type Stats struct {
	Frames  int // steps taken
	Tracked int // markers successfully tracked
	Lost    int // tracks that stopped because tracking failed
}

// Context is one tracking run. It is driven from a single goroutine: Start,
// then Step until it returns false, with Sync whenever the registry should
// see progress, and finally Finish.
type Context struct {
	tracking *registry.Tracking
	provider imbuf.Provider
	tracker  regiontrack.Tracker
	tracks   *tracksmap.Map[entry]

	iterations int
	sigma      float64
	workers    int

	backwards bool
	sequence  bool
	frame     int
	syncFrame int
	firstTime bool

	stats Stats
}

// Start snapshots every selected, visible and unlocked track of the active
// object that has an enabled marker at frame. With sequence unset the
// caller is expected to Step only once.
func Start(tr *registry.Tracking, provider imbuf.Provider, tracker regiontrack.Tracker, backwards, sequence bool, frame int) *Context {
	obj := tr.ActiveObj()

	var eligible []*track.Track
	for _, t := range obj.Tracks {
		if !t.Selected() || t.Hidden() || t.Locked() {
			continue
		}
		if m := t.Get(frame); m != nil && m.Enabled() {
			eligible = append(eligible, t)
		}
	}

	workers := tr.Settings.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	c := &Context{
		tracking:   tr,
		provider:   provider,
		tracker:    tracker,
		tracks:     tracksmap.New[entry](obj.Name, obj.IsCamera(), len(eligible)),
		iterations: tr.Settings.TrackerIterations,
		sigma:      tr.Settings.TrackerSigma,
		workers:    workers,
		backwards:  backwards,
		sequence:   sequence,
		frame:      frame,
		syncFrame:  frame,
		firstTime:  true,
	}
	for _, t := range eligible {
		c.tracks.Insert(t, entry{})
	}
	return c
}

// Len returns the number of tracks in the run.
func (c *Context) Len() int { return c.tracks.Len() }

// Frame returns the frame the last successful step tracked to.
func (c *Context) Frame() int { return c.frame }

// Sequence reports whether the run was started for a whole sequence.
func (c *Context) Sequence() bool { return c.sequence }

// Stats returns the run statistics so far.
func (c *Context) Stats() Stats { return c.stats }

// outcome is what a parallel work item hands to the commit phase.
type outcome struct {
	processed bool
	tracked   bool
	old       track.Marker
	dst       coords.Coords
}

// Step tracks every entry one frame further. It returns false when nothing
// was tracked, either because no entry had an enabled marker at the current
// frame or because the destination frame could not be loaded. In the latter
// case no track is modified.
func (c *Context) Step(ctx context.Context) bool {
	n := c.tracks.Len()
	if n == 0 {
		return false
	}

	curfra := c.frame
	nextfra := curfra + c.delta()

	dst, err := c.provider.Acquire(ctx, nextfra)
	if err != nil {
		if !errors.Is(err, imbuf.ErrFrameUnavailable) {
			logf("Could not acquire frame %d: %v", nextfra, err)
		}
		return false
	}

	results := make([]outcome, n)
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = c.trackEntry(ctx, i, curfra, dst)
			return nil
		})
	}
	_ = g.Wait()

	ok := false
	for i, r := range results {
		if !r.processed {
			continue
		}
		t, e := c.tracks.Entry(i)
		c.insertNewMarker(t, &r.old, curfra, r.tracked, dst.W, dst.H, r.dst)
		if r.tracked {
			e.frames++
			c.stats.Tracked++
		} else {
			c.stats.Lost++
		}
		ok = true
	}

	c.frame = nextfra
	c.firstTime = false
	c.stats.Frames++
	return ok
}

func (c *Context) delta() int {
	if c.backwards {
		return -1
	}
	return 1
}

// trackEntry is the parallel part of a step. It only touches entry i.
func (c *Context) trackEntry(ctx context.Context, i, curfra int, dst *imbuf.ImBuf) outcome {
	t, e := c.tracks.Entry(i)

	m := t.GetExact(curfra)
	if m == nil || m.Disabled() {
		return outcome{}
	}
	if t.FramesLimit > 0 && e.frames >= t.FramesLimit {
		return outcome{}
	}

	out := outcome{processed: true, old: *m}
	if !checkMargin(t, m, dst.W, dst.H) {
		return out
	}

	needReadjust := t.PatternMatch == track.MatchPreviousFrame || c.firstTime
	if needReadjust {
		if !c.updateReference(ctx, t, e, curfra, dst.W, dst.H) {
			// reference frame could not be loaded
			return outcome{}
		}
	}

	out.tracked, out.dst = c.runTracker(ctx, dst, t, &e.reference, m, e.search, e.mask)
	return out
}

// updateReference rebuilds the reference patch of e. It returns false when
// the reference frame is unavailable.
func (c *Context) updateReference(ctx context.Context, t *track.Track, e *entry, curfra, w, h int) bool {
	ref, buf := referenceBuffer(ctx, c.provider, t, curfra, c.backwards)
	if buf == nil {
		return false
	}

	e.reference = *ref
	e.search = imbuf.SearchGray(buf, t, ref)
	e.mask = nil
	if t.AlgorithmFlag&track.UseMask != 0 {
		e.mask = maskFor(w, h, t, ref)
	}
	return true
}

// Sync merges the tracked markers into the registry. It can be called at
// any point between steps and is idempotent.
func (c *Context) Sync() {
	c.tracks.Merge(c.tracking)
	c.syncFrame = c.frame - c.delta()
}

// SyncFrame returns the frame a viewer should show after the last Sync: one
// step behind the frame last tracked to, against the tracking direction.
func (c *Context) SyncFrame() int { return c.syncFrame }

// Finish merges the final state into the registry and releases the run.
// The context must not be used afterwards.
func (c *Context) Finish() Stats {
	c.Sync()
	logf("Tracked %d markers over %d frames, %d lost", c.stats.Tracked, c.stats.Frames, c.stats.Lost)
	c.tracks = tracksmap.New[entry](c.tracks.ObjectName, c.tracks.IsCamera, 0)
	return c.stats
}
