package registry

import (
	"fmt"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// DefaultTrackName is the base name of newly added tracks.
const DefaultTrackName = "Track"

// AddTrack creates a track in o with a single marker at unified position
// (x, y) on frame. Pattern and search windows are taken from the default
// pixel sizes in Settings, converted to unified space for a w x h frame.
func (tr *Tracking) AddTrack(o *Object, x, y float64, frame, w, h int) *track.Track {
	s := tr.Settings

	pat := geom.Vec2{
		X: float64(s.DefaultPatternSize) / float64(w) / 2,
		Y: float64(s.DefaultPatternSize) / float64(h) / 2,
	}
	search := geom.Vec2{
		X: float64(s.DefaultSearchSize) / float64(w) / 2,
		Y: float64(s.DefaultSearchSize) / float64(h) / 2,
	}

	t := &track.Track{
		ID:             tr.NextTrackID(),
		Name:           DefaultTrackName,
		MotionModel:    s.DefaultMotionModel,
		PatternMatch:   s.DefaultPatternMatch,
		Margin:         s.DefaultMargin,
		MinCorrelation: s.DefaultMinCorrelation,
		FramesLimit:    s.DefaultFramesLimit,
		AlgorithmFlag:  s.DefaultAlgorithmFlag,
		Weight:         s.DefaultWeight,
	}
	t.Insert(track.Marker{
		Frame: frame,
		Pos:   geom.Vec2{X: x, Y: y},
		PatternCorners: [4]geom.Vec2{
			{X: -pat.X, Y: -pat.Y},
			{X: pat.X, Y: -pat.Y},
			{X: pat.X, Y: pat.Y},
			{X: -pat.X, Y: pat.Y},
		},
		SearchMin: search.Neg(),
		SearchMax: search,
	})

	o.Tracks = append(o.Tracks, t)
	tr.uniqueTrackName(o, t)
	tr.Touch()
	return t
}

// DeleteTrack removes t from o. References to it through the active or
// rotation track resolve to nil afterwards.
func (tr *Tracking) DeleteTrack(o *Object, t *track.Track) error {
	idx := o.indexOf(t)
	if idx < 0 {
		return fmt.Errorf("track %q: %w", t.Name, ErrNotFound)
	}
	o.Tracks = append(o.Tracks[:idx], o.Tracks[idx+1:]...)
	if t.ID == tr.rotTrack {
		tr.Stabilization.Invalidate()
	}
	tr.Touch()
	return nil
}

// RenameTrack renames t, adding a numeric suffix if o already has a track
// with that name.
func (tr *Tracking) RenameTrack(o *Object, t *track.Track, name string) {
	t.Name = name
	tr.uniqueTrackName(o, t)
	tr.Touch()
}

// UniqueTrackName makes t's name unique within o.
func (tr *Tracking) UniqueTrackName(o *Object, t *track.Track) {
	tr.uniqueTrackName(o, t)
}

func (tr *Tracking) uniqueTrackName(o *Object, t *track.Track) {
	t.Name = UniqueName(t.Name, func(name string) bool {
		for _, cur := range o.Tracks {
			if cur != t && cur.Name == name {
				return true
			}
		}
		return false
	})
}

// SelectTrack selects area of t. Without extend every other track of o is
// deselected first. Hidden tracks cannot be selected.
func (tr *Tracking) SelectTrack(o *Object, t *track.Track, area track.Area, extend bool) {
	if t.Hidden() {
		return
	}
	if extend {
		t.SetFlag(area, track.Selected)
	} else {
		for _, cur := range o.Tracks {
			if cur != t {
				cur.ClearFlag(track.AreaAll, track.Selected)
			} else {
				cur.SetFlag(area, track.Selected)
			}
		}
	}
	tr.Touch()
}

// DeselectTrack clears the selection of area on t.
func (tr *Tracking) DeselectTrack(t *track.Track, area track.Area) {
	t.ClearFlag(area, track.Selected)
	tr.Touch()
}

// SelectedTracks returns the visible selected tracks of o in list order.
func SelectedTracks(o *Object) []*track.Track {
	var out []*track.Track
	for _, t := range o.Tracks {
		if t.Selected() && !t.Hidden() {
			out = append(out, t)
		}
	}
	return out
}

// CopyTracks replaces the clipboard with copies of the selected tracks of o.
func (tr *Tracking) CopyTracks(o *Object) int {
	tr.ClearClipboard()
	for _, t := range SelectedTracks(o) {
		tr.clipboard = append(tr.clipboard, t.Clone())
	}
	return len(tr.clipboard)
}

// HasClipboard reports whether PasteTracks would add anything.
func (tr *Tracking) HasClipboard() bool { return len(tr.clipboard) > 0 }

// PasteTracks adds copies of the clipboard tracks to o with fresh IDs and
// unique names, and returns them.
func (tr *Tracking) PasteTracks(o *Object) []*track.Track {
	var out []*track.Track
	for _, src := range tr.clipboard {
		t := src.Clone()
		t.ID = tr.NextTrackID()
		o.Tracks = append(o.Tracks, t)
		tr.uniqueTrackName(o, t)
		out = append(out, t)
	}
	if len(out) > 0 {
		tr.Touch()
	}
	return out
}

// ClearClipboard empties the session clipboard.
func (tr *Tracking) ClearClipboard() { tr.clipboard = nil }
