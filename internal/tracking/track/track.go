package track

import (
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

// Flag holds per-track state bits. The same bit set is kept separately for
// the point, pattern and search areas, although only the point area carries
// anything beyond selection.
type Flag uint32

const (
	Selected Flag = 1 << iota
	HasBundle
	DisableRed
	DisableGreen
	DisableBlue
	Hidden
	Locked
	UseStab2D
	PreviewGrayscale
)

// Area selects which of a track's flag sets an operation touches.
type Area uint8

const (
	AreaNone  Area = 0
	AreaPoint Area = 1 << iota
	AreaPattern
	AreaSearch
	AreaAll = AreaPoint | AreaPattern | AreaSearch
)

// MotionModel is the deformation the region tracker may apply to a pattern.
type MotionModel int

const (
	MotionTranslation MotionModel = iota
	MotionTranslationRotation
	MotionTranslationScale
	MotionTranslationRotationScale
	MotionAffine
	MotionPerspective
)

var motionModelNames = map[MotionModel]string{
	MotionTranslation:              "Loc",
	MotionTranslationRotation:      "LocRot",
	MotionTranslationScale:         "LocScale",
	MotionTranslationRotationScale: "LocRotScale",
	MotionAffine:                   "Affine",
	MotionPerspective:              "Perspective",
}

// String returns the short config name of the motion model.
func (m MotionModel) String() string {
	if s, ok := motionModelNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMotionModel converts a config name into a MotionModel.
func ParseMotionModel(s string) (MotionModel, bool) {
	for m, name := range motionModelNames {
		if name == s {
			return m, true
		}
	}
	return MotionTranslation, false
}

// PatternMatch selects where the reference patch for tracking comes from.
type PatternMatch int

const (
	// MatchKeyframe samples the reference once, from the last hand-placed
	// marker, and reuses it for the whole run.
	MatchKeyframe PatternMatch = iota
	// MatchPreviousFrame re-samples the reference from the previous frame
	// on every step.
	MatchPreviousFrame
)

// AlgorithmFlag toggles region tracker features.
type AlgorithmFlag uint8

const (
	UseBrute AlgorithmFlag = 1 << iota
	UseNormalization
	UseMask
)

// Track is a named feature followed across frames. Markers are kept sorted by
// strictly increasing frame number with at most one marker per frame.
type Track struct {
	// ID is assigned by the registry at creation and never reused. It
	// survives Clone so snapshots can be matched back to live tracks.
	ID   int
	Name string

	Markers []Marker

	// Offset is added to marker positions when the track is used as a
	// parent for other data.
	Offset geom.Vec2

	MotionModel    MotionModel
	PatternMatch   PatternMatch
	Margin         int
	MinCorrelation float64
	FramesLimit    int
	AlgorithmFlag  AlgorithmFlag
	Weight         float64

	Flag       Flag
	PatFlag    Flag
	SearchFlag Flag

	// Error is the average reprojection error of the bundle.
	Error  float64
	Bundle geom.Vec3

	// Mask is an optional annotation layer restricting which pattern pixels
	// take part in matching.
	Mask *Layer

	lastMarker int
	// edits counts marker store changes; see Edits.
	edits uint64
}

// Edits returns a counter that grows with every change made through the
// marker store. Writes through Markers bypass it, so callers editing markers
// in place must tell the registry with Tracking.Touch.
func (t *Track) Edits() uint64 { return t.edits }

// Clone returns a deep copy of t, markers and mask included.
func (t *Track) Clone() *Track {
	c := *t
	c.Markers = append([]Marker(nil), t.Markers...)
	if t.Mask != nil {
		c.Mask = t.Mask.Clone()
	}
	return &c
}

// SetFlag sets flag on every area selected by area.
func (t *Track) SetFlag(area Area, flag Flag) {
	if area&AreaPoint != 0 {
		t.Flag |= flag
	}
	if area&AreaPattern != 0 {
		t.PatFlag |= flag
	}
	if area&AreaSearch != 0 {
		t.SearchFlag |= flag
	}
}

// ClearFlag clears flag on every area selected by area.
func (t *Track) ClearFlag(area Area, flag Flag) {
	if area&AreaPoint != 0 {
		t.Flag &^= flag
	}
	if area&AreaPattern != 0 {
		t.PatFlag &^= flag
	}
	if area&AreaSearch != 0 {
		t.SearchFlag &^= flag
	}
}

// Selected reports whether any area of the track is selected.
func (t *Track) Selected() bool {
	return (t.Flag|t.PatFlag|t.SearchFlag)&Selected != 0
}

// Hidden reports whether the track is hidden.
func (t *Track) Hidden() bool { return t.Flag&Hidden != 0 }

// Locked reports whether the track is locked against edits.
func (t *Track) Locked() bool { return t.Flag&Locked != 0 }

// HasBundle reports whether the track has a reconstructed 3D position.
func (t *Track) HasBundle() bool { return t.Flag&HasBundle != 0 }

// HasMarkerAt reports whether a marker exists exactly at frame.
func (t *Track) HasMarkerAt(frame int) bool { return t.GetExact(frame) != nil }

// HasEnabledMarkerAt reports whether an enabled marker exists exactly at
// frame.
func (t *Track) HasEnabledMarkerAt(frame int) bool {
	m := t.GetExact(frame)
	return m != nil && m.Enabled()
}
