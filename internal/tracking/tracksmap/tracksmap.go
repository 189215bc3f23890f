package tracksmap

import (
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Map is a snapshot of tracks from one object plus a payload of type T per
// track. Only one Map per object should be in flight at a time.
type Map[T any] struct {
	ObjectName string
	IsCamera   bool

	tracks   []*track.Track
	payloads []T
}

// New returns an empty map for the named object with room for n tracks.
func New[T any](objectName string, isCamera bool, n int) *Map[T] {
	return &Map[T]{
		ObjectName: objectName,
		IsCamera:   isCamera,
		tracks:     make([]*track.Track, 0, n),
		payloads:   make([]T, 0, n),
	}
}

// Insert adds a deep copy of t with its payload and returns the entry
// index. The copy keeps t's ID, which is how Merge finds the live track.
func (m *Map[T]) Insert(t *track.Track, payload T) int {
	m.tracks = append(m.tracks, t.Clone())
	m.payloads = append(m.payloads, payload)
	return len(m.tracks) - 1
}

// Len returns the number of entries.
func (m *Map[T]) Len() int { return len(m.tracks) }

// Entry returns the working track and payload of entry i. Both may be
// modified by the caller.
func (m *Map[T]) Entry(i int) (*track.Track, *T) {
	return m.tracks[i], &m.payloads[i]
}

// Merge writes the working tracks back into tr and returns the object they
// landed in.
//
// A live track with the same ID is replaced by a copy of the working track,
// keeping the live selection, lock and visibility flags, which are also
// copied into the working track. Working tracks whose live counterpart was
// deleted are added again. If the object itself was deleted it is created
// again by name. Untouched live tracks keep their order and come first;
// merged tracks follow in map order and are renamed if their name clashes.
//
// Merging again without live changes in between yields the same list.
func (m *Map[T]) Merge(tr *registry.Tracking) *registry.Object {
	var obj *registry.Object
	if m.IsCamera {
		obj = tr.CameraObject()
	} else if obj = tr.ObjectByName(m.ObjectName); obj == nil {
		obj = tr.AddObject(m.ObjectName)
	}

	live := make(map[int]*track.Track, len(obj.Tracks))
	for _, t := range obj.Tracks {
		live[t.ID] = t
	}

	merged := make([]*track.Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		if old, ok := live[t.ID]; ok {
			t.Flag = old.Flag
			t.PatFlag = old.PatFlag
			t.SearchFlag = old.SearchFlag
			delete(live, t.ID)
		}
		merged = append(merged, t.Clone())
	}

	tracks := make([]*track.Track, 0, len(obj.Tracks)+len(merged))
	for _, t := range obj.Tracks {
		if _, untouched := live[t.ID]; untouched {
			tracks = append(tracks, t)
		}
	}
	obj.Tracks = tracks
	for _, t := range merged {
		obj.Tracks = append(obj.Tracks, t)
		tr.UniqueTrackName(obj, t)
	}

	tr.Touch()
	return obj
}
