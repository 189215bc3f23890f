package track

import "github.com/banshee-data/motiontrack/internal/tracking/geom"

// Insert stores m in the track. A marker already present at m.Frame is
// overwritten in place; otherwise m is inserted keeping frame order. The
// returned pointer stays valid until the next structural change of the
// marker array.
func (t *Track) Insert(m Marker) *Marker {
	t.edits++
	if len(t.Markers) > 0 {
		if old := t.GetExact(m.Frame); old != nil {
			*old = m
			return old
		}
	}

	a := len(t.Markers) - 1
	for ; a >= 0; a-- {
		if t.Markers[a].Frame < m.Frame {
			break
		}
	}

	t.Markers = append(t.Markers, Marker{})
	copy(t.Markers[a+2:], t.Markers[a+1:])
	t.Markers[a+1] = m
	t.lastMarker = a + 1

	return &t.Markers[a+1]
}

// Get returns the marker at frame or, when there is none, the nearest marker
// before it. A frame before the first marker yields the first marker. It
// returns nil only for a track without markers.
func (t *Track) Get(frame int) *Marker {
	i := t.index(frame)
	if i < 0 {
		return nil
	}
	return &t.Markers[i]
}

func (t *Track) index(frame int) int {
	n := len(t.Markers)
	if n == 0 {
		return -1
	}

	// approximate a frame before the first marker with the first marker
	if frame < t.Markers[0].Frame {
		return 0
	}

	a := n - 1
	if t.lastMarker < n {
		a = t.lastMarker
	}

	if t.Markers[a].Frame <= frame {
		for a < n && t.Markers[a].Frame <= frame {
			if t.Markers[a].Frame == frame {
				t.lastMarker = a
				return a
			}
			a++
		}
		return a - 1
	}

	for a >= 0 && t.Markers[a].Frame >= frame {
		if t.Markers[a].Frame == frame {
			t.lastMarker = a
			return a
		}
		a--
	}
	return a
}

// GetExact returns the marker at exactly frame, or nil.
func (t *Track) GetExact(frame int) *Marker {
	m := t.Get(frame)
	if m == nil || m.Frame != frame {
		return nil
	}
	return m
}

// Ensure returns the marker at frame, materializing it as a copy of the
// nearest marker when none exists yet.
func (t *Track) Ensure(frame int) *Marker {
	m := t.Get(frame)
	if m == nil {
		return nil
	}
	if m.Frame != frame {
		n := *m
		n.Frame = frame
		return t.Insert(n)
	}
	return m
}

// Delete removes the marker at exactly frame, if present.
func (t *Track) Delete(frame int) {
	for a := range t.Markers {
		if t.Markers[a].Frame == frame {
			t.edits++
			if len(t.Markers) > 1 {
				t.Markers = append(t.Markers[:a], t.Markers[a+1:]...)
			} else {
				t.Markers = nil
			}
			if t.lastMarker >= len(t.Markers) {
				t.lastMarker = 0
			}
			return
		}
	}
}

// InsertDisabled inserts a disabled copy of ref one frame before or after it.
// When overwrite is false an existing marker at that frame is left alone.
func (t *Track) InsertDisabled(ref Marker, before, overwrite bool) {
	m := ref
	m.Flag &^= MarkerTracked
	m.Flag |= MarkerDisabled
	if before {
		m.Frame--
	} else {
		m.Frame++
	}
	if overwrite || !t.HasMarkerAt(m.Frame) {
		t.Insert(m)
	}
}

// ClearAction selects which part of a path PathClear removes.
type ClearAction int

const (
	// ClearRemained drops every marker after the reference frame.
	ClearRemained ClearAction = iota
	// ClearUpTo drops every marker before the reference frame.
	ClearUpTo
	// ClearAll keeps only the marker at the reference frame.
	ClearAll
)

// PathClear truncates the track around refFrame and closes the remaining
// path with disabled markers.
func (t *Track) PathClear(refFrame int, action ClearAction) {
	t.edits++
	switch action {
	case ClearRemained:
		for a := 1; a < len(t.Markers); a++ {
			if t.Markers[a].Frame > refFrame {
				t.Markers = t.Markers[:a:a]
				break
			}
		}
		if n := len(t.Markers); n > 0 {
			t.InsertDisabled(t.Markers[n-1], false, true)
		}

	case ClearUpTo:
		for a := len(t.Markers) - 1; a >= 0; a-- {
			if t.Markers[a].Frame <= refFrame {
				t.Markers = append([]Marker(nil), t.Markers[a:]...)
				break
			}
		}
		if len(t.Markers) > 0 {
			t.InsertDisabled(t.Markers[0], true, true)
		}

	case ClearAll:
		ref := t.Get(refFrame)
		if ref == nil {
			return
		}
		keep := *ref
		t.Markers = nil
		t.lastMarker = 0
		t.Insert(keep)
		t.InsertDisabled(keep, true, true)
		t.InsertDisabled(keep, false, true)
	}

	if t.lastMarker >= len(t.Markers) {
		t.lastMarker = 0
	}
}

// Join merges the markers of src into t. Frames enabled in both tracks are
// cross-faded over the whole overlapping run so the joined path does not
// jump; elsewhere the enabled side wins, with src preferred.
func (t *Track) Join(src *Track) {
	dst := t.Markers
	out := make([]Marker, 0, len(dst)+len(src.Markers))

	a, b := 0, 0
	for a < len(src.Markers) || b < len(dst) {
		switch {
		case b >= len(dst):
			out = append(out, src.Markers[a])
			a++
		case a >= len(src.Markers):
			out = append(out, dst[b])
			b++
		case src.Markers[a].Frame < dst[b].Frame:
			out = append(out, src.Markers[a])
			a++
		case src.Markers[a].Frame > dst[b].Frame:
			out = append(out, dst[b])
			b++
		default:
			sm, dm := &src.Markers[a], &dst[b]
			switch {
			case sm.Enabled() && dm.Enabled():
				n := overlapLen(src.Markers[a:], dst[b:])
				inverse := b == 0 || dst[b-1].Disabled() || dst[b-1].Frame != sm.Frame-1
				for j := 0; j < n; j++ {
					fac := 0.5
					if n > 1 {
						fac = float64(j) / float64(n-1)
					}
					if inverse {
						fac = 1 - fac
					}
					m := dst[b+j]
					m.Pos = geom.Lerp(dst[b+j].Pos, src.Markers[a+j].Pos, fac)
					out = append(out, m)
				}
				a += n
				b += n
			case sm.Enabled():
				out = append(out, *sm)
				a++
				b++
			default:
				out = append(out, *dm)
				a++
				b++
			}
		}
	}

	t.Markers = out
	t.lastMarker = 0
	t.edits++
}

// overlapLen counts how many consecutive frames starting at the heads of a
// and b are enabled in both.
func overlapLen(a, b []Marker) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	frame := a[0].Frame
	n := 0
	for n < len(a) && n < len(b) {
		if a[n].Disabled() || b[n].Disabled() {
			break
		}
		if a[n].Frame != frame || b[n].Frame != frame {
			break
		}
		frame++
		n++
	}
	return n
}

// SubframePosition returns the track position at a fractional frame. It
// interpolates only inside a tracked run of adjacent frames and never
// extrapolates over gaps. The track offset is always applied.
func (t *Track) SubframePosition(frame float64) geom.Vec2 {
	i := t.index(int(frame))
	if i < 0 {
		return t.Offset
	}
	m := t.Markers[i]
	pos := m.Pos
	if i < len(t.Markers)-1 {
		next := t.Markers[i+1]
		if next.Frame == m.Frame+1 {
			fac := (frame - float64(int(frame))) / float64(next.Frame-m.Frame)
			pos = geom.Lerp(m.Pos, next.Pos, fac)
		}
	}
	return pos.Add(t.Offset)
}

// FirstLastEnabled returns the first and last non-disabled markers' frames.
func (t *Track) FirstLastEnabled() (first, last int, ok bool) {
	f, l := -1, -1
	for i := range t.Markers {
		if t.Markers[i].Enabled() {
			f = i
			break
		}
	}
	for i := len(t.Markers) - 1; i >= 0; i-- {
		if t.Markers[i].Enabled() {
			l = i
			break
		}
	}
	if f < 0 {
		return 0, 0, false
	}
	return t.Markers[f].Frame, t.Markers[l].Frame, true
}
