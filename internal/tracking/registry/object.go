package registry

import (
	"fmt"

	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// ObjectFlag holds object state bits.
type ObjectFlag uint8

const (
	ObjectCamera ObjectFlag = 1 << iota
	ObjectHidden
)

// Object groups tracks that share one rigid motion.
type Object struct {
	Name string
	Flag ObjectFlag

	// Scale is applied to reconstructed motion of non-camera objects.
	Scale float64

	Keyframe1, Keyframe2 int

	Tracks         []*track.Track
	Reconstruction Reconstruction
}

// IsCamera reports whether o is the camera object.
func (o *Object) IsCamera() bool { return o.Flag&ObjectCamera != 0 }

// TrackByID returns the track with the given ID or nil.
func (o *Object) TrackByID(id int) *track.Track {
	for _, t := range o.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TrackByName returns the track with the given name or nil.
func (o *Object) TrackByName(name string) *track.Track {
	for _, t := range o.Tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (o *Object) indexOf(t *track.Track) int {
	for i, cur := range o.Tracks {
		if cur == t {
			return i
		}
	}
	return -1
}

func (tr *Tracking) newObject(name string) *Object {
	return &Object{
		Name:      name,
		Scale:     1,
		Keyframe1: tr.Settings.Keyframe1,
		Keyframe2: tr.Settings.Keyframe2,
	}
}

// AddObject creates a new object, makes it active and returns it. The name
// is made unique among objects.
func (tr *Tracking) AddObject(name string) *Object {
	o := tr.newObject(name)
	tr.Objects = append(tr.Objects, o)
	tr.uniqueObjectName(o)
	tr.ActiveObject = len(tr.Objects) - 1
	tr.Touch()
	return o
}

// DeleteObject removes o together with its tracks and reconstruction.
func (tr *Tracking) DeleteObject(o *Object) error {
	if o.IsCamera() {
		return ErrCameraObject
	}
	idx := -1
	for i, cur := range tr.Objects {
		if cur == o {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("object %q: %w", o.Name, ErrNotFound)
	}

	tr.Objects = append(tr.Objects[:idx], tr.Objects[idx+1:]...)
	if tr.ActiveObject >= idx && tr.ActiveObject > 0 {
		tr.ActiveObject--
	}
	tr.Touch()
	return nil
}

// RenameObject renames o, adding a numeric suffix if the name is taken.
func (tr *Tracking) RenameObject(o *Object, name string) {
	o.Name = name
	tr.uniqueObjectName(o)
	tr.Touch()
}

// ObjectByName returns the object with the given name or nil.
func (tr *Tracking) ObjectByName(name string) *Object {
	for _, o := range tr.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// ObjectOf returns the object owning t or nil.
func (tr *Tracking) ObjectOf(t *track.Track) *Object {
	for _, o := range tr.Objects {
		if o.indexOf(t) >= 0 {
			return o
		}
	}
	return nil
}

func (tr *Tracking) uniqueObjectName(o *Object) {
	o.Name = UniqueName(o.Name, func(name string) bool {
		for _, cur := range tr.Objects {
			if cur != o && cur.Name == name {
				return true
			}
		}
		return false
	})
}
