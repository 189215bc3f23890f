package registry

import (
	"errors"

	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

var (
	// ErrCameraObject is returned when an operation would remove the camera
	// object.
	ErrCameraObject = errors.New("camera object cannot be deleted")
	// ErrNotFound is returned for objects or tracks that are not part of
	// the tracking set.
	ErrNotFound = errors.New("not found")
)

// CameraObjectName is the name given to the camera object of a new set.
const CameraObjectName = "Camera"

// Tracking is one tracking session. The first object is always the camera
// object and owns the set's top-level track list.
type Tracking struct {
	Settings      Settings
	Camera        camera.Intrinsics
	Stabilization Stabilization

	Objects      []*Object
	ActiveObject int

	// references by track ID, resolved on every access
	activeTrack int
	rotTrack    int

	nextTrackID int
	clipboard   []*track.Track
	revision    uint64
}

// New returns a tracking set containing only the camera object.
func New(settings Settings, cam camera.Intrinsics) *Tracking {
	tr := &Tracking{
		Settings:      settings,
		Camera:        cam,
		Stabilization: DefaultStabilization(),
		nextTrackID:   1,
	}
	cam0 := tr.newObject(CameraObjectName)
	cam0.Flag |= ObjectCamera
	tr.Objects = append(tr.Objects, cam0)
	return tr
}

// Revision returns a counter that changes whenever the set is mutated
// through the registry or Touch is called.
func (tr *Tracking) Revision() uint64 { return tr.revision }

// Touch marks the set as modified. Engines that edit tracks directly call
// it after committing their results.
func (tr *Tracking) Touch() { tr.revision++ }

// CameraObject returns the camera object.
func (tr *Tracking) CameraObject() *Object {
	for _, o := range tr.Objects {
		if o.IsCamera() {
			return o
		}
	}
	// New always creates one and DeleteObject refuses to remove it.
	panic("registry: tracking set has no camera object")
}

// Tracks returns the top-level track list, which is the camera object's.
func (tr *Tracking) Tracks() []*track.Track { return tr.CameraObject().Tracks }

// ActiveObj returns the active object, falling back to the camera object
// when the stored index is out of range.
func (tr *Tracking) ActiveObj() *Object {
	if tr.ActiveObject >= 0 && tr.ActiveObject < len(tr.Objects) {
		return tr.Objects[tr.ActiveObject]
	}
	return tr.CameraObject()
}

// NextTrackID reserves a new track ID.
func (tr *Tracking) NextTrackID() int {
	id := tr.nextTrackID
	tr.nextTrackID++
	return id
}

// ActiveTrack returns the active track of the active object, or nil when no
// track is active or the referenced track no longer exists.
func (tr *Tracking) ActiveTrack() *track.Track {
	if tr.activeTrack == 0 {
		return nil
	}
	return tr.ActiveObj().TrackByID(tr.activeTrack)
}

// SetActiveTrack makes t the active track. A nil track clears it.
func (tr *Tracking) SetActiveTrack(t *track.Track) {
	if t == nil {
		tr.activeTrack = 0
	} else {
		tr.activeTrack = t.ID
	}
	tr.Touch()
}

// RotationTrack returns the track used as rotation reference for 2D
// stabilization, or nil when unset or deleted.
func (tr *Tracking) RotationTrack() *track.Track {
	if tr.rotTrack == 0 {
		return nil
	}
	return tr.CameraObject().TrackByID(tr.rotTrack)
}

// SetRotationTrack sets the stabilization rotation reference.
func (tr *Tracking) SetRotationTrack(t *track.Track) {
	if t == nil {
		tr.rotTrack = 0
	} else {
		tr.rotTrack = t.ID
	}
	tr.Stabilization.Invalidate()
	tr.Touch()
}

// ActiveTrackID and RotationTrackID expose the raw references so snapshot
// merging can re-link them.
func (tr *Tracking) ActiveTrackID() int   { return tr.activeTrack }
func (tr *Tracking) RotationTrackID() int { return tr.rotTrack }

// TrackByID searches every object for the track with the given ID.
func (tr *Tracking) TrackByID(id int) (*Object, *track.Track) {
	for _, o := range tr.Objects {
		if t := o.TrackByID(id); t != nil {
			return o, t
		}
	}
	return nil, nil
}

// TrackByBundleIndex returns the n-th track (1-based) that has a bundle,
// counting across objects in order.
func (tr *Tracking) TrackByBundleIndex(n int) (*Object, *track.Track) {
	cur := 1
	for _, o := range tr.Objects {
		for _, t := range o.Tracks {
			if !t.HasBundle() {
				continue
			}
			if cur == n {
				return o, t
			}
			cur++
		}
	}
	return nil, nil
}
