package dopesheet

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// SortMethod orders channels.
type SortMethod int

const (
	SortName SortMethod = iota
	SortLongest
	SortTotal
	SortAverageError
)

var sortNames = map[string]SortMethod{
	"name":          SortName,
	"longest":       SortLongest,
	"total":         SortTotal,
	"average_error": SortAverageError,
}

// ParseSortMethod converts a config name into a SortMethod.
func ParseSortMethod(s string) (SortMethod, bool) {
	m, ok := sortNames[s]
	return m, ok
}

func (m SortMethod) String() string {
	for name, v := range sortNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// Options control which tracks get a channel and in what order.
type Options struct {
	Sort         SortMethod
	Inverse      bool
	ShowHidden   bool
	SelectedOnly bool
}

// OptionsFromConfig reads the dopesheet options of cfg.
func OptionsFromConfig(cfg *config.TrackingConfig) (Options, error) {
	m, ok := ParseSortMethod(cfg.GetDopesheetSort())
	if !ok {
		return Options{}, fmt.Errorf("unknown dopesheet sort %q", cfg.GetDopesheetSort())
	}
	return Options{
		Sort:         m,
		Inverse:      cfg.GetDopesheetInverse(),
		ShowHidden:   cfg.GetDopesheetShowHidden(),
		SelectedOnly: cfg.GetDopesheetSelectedOnly(),
	}, nil
}

// Segment is an inclusive frame range.
type Segment struct {
	Start, End int
}

// Len returns the number of frames in s.
func (s Segment) Len() int { return s.End - s.Start + 1 }

// Channel is the dopesheet row of one track.
type Channel struct {
	TrackID int
	Name    string
	// Label is the name with the reprojection error appended once the
	// object is reconstructed.
	Label    string
	Error    float64
	Segments []Segment
	// MaxSegment and TotalFrames count frames.
	MaxSegment  int
	TotalFrames int
}

// Dopesheet holds the channels and coverage of the active object.
type Dopesheet struct {
	Options Options

	Channels []Channel
	Coverage []CoverageSegment

	built     bool
	revision  uint64
	edits     uint64
	object    string
	buildOpts Options
}

// New returns an empty dopesheet with the given options.
func New(opts Options) *Dopesheet {
	return &Dopesheet{Options: opts}
}

// TagUpdate forces the next Update to rebuild.
func (d *Dopesheet) TagUpdate() { d.built = false }

// Update rebuilds the dopesheet when tr, the markers of the active object's
// tracks or the options changed since the last build. It reports whether a
// rebuild happened.
func (d *Dopesheet) Update(tr *registry.Tracking) bool {
	obj := tr.ActiveObj()
	edits := markerEdits(obj)
	if d.built && d.revision == tr.Revision() && d.edits == edits && d.buildOpts == d.Options && d.object == obj.Name {
		return false
	}

	d.Channels = buildChannels(obj, d.Options)
	sortChannels(d.Channels, d.Options.Sort, d.Options.Inverse)
	d.Coverage = coverage(obj.Tracks)

	d.built = true
	d.revision = tr.Revision()
	d.edits = edits
	d.buildOpts = d.Options
	d.object = obj.Name
	return true
}

// markerEdits sums the marker store counters of obj's tracks. Counters only
// grow, and removing a track bumps the registry revision, so any marker edit
// changes the sum.
func markerEdits(obj *registry.Object) uint64 {
	var n uint64
	for _, t := range obj.Tracks {
		n += t.Edits()
	}
	return n
}

func buildChannels(obj *registry.Object, opts Options) []Channel {
	var out []Channel
	for _, t := range obj.Tracks {
		if !opts.ShowHidden && t.Hidden() {
			continue
		}
		if opts.SelectedOnly && !t.Selected() {
			continue
		}

		ch := Channel{
			TrackID: t.ID,
			Name:    t.Name,
			Label:   t.Name,
			Error:   t.Error,
		}
		if obj.Reconstruction.Reconstructed {
			ch.Label = fmt.Sprintf("%s (%.4f)", t.Name, t.Error)
		}
		ch.Segments = segments(t)
		for _, s := range ch.Segments {
			ch.TotalFrames += s.Len()
			ch.MaxSegment = max(ch.MaxSegment, s.Len())
		}
		out = append(out, ch)
	}
	return out
}

// segments returns the runs of enabled markers on consecutive frames. A run
// ends at a disabled marker or a frame gap.
func segments(t *track.Track) []Segment {
	var out []Segment
	for i := 0; i < len(t.Markers); i++ {
		m := &t.Markers[i]
		if m.Disabled() {
			continue
		}
		seg := Segment{Start: m.Frame, End: m.Frame}
		for i+1 < len(t.Markers) {
			next := &t.Markers[i+1]
			if next.Frame != seg.End+1 || next.Disabled() {
				break
			}
			seg.End = next.Frame
			i++
		}
		out = append(out, seg)
	}
	return out
}

func sortChannels(chs []Channel, method SortMethod, inverse bool) {
	var less func(a, b *Channel) bool
	switch method {
	case SortLongest:
		less = func(a, b *Channel) bool { return a.MaxSegment < b.MaxSegment }
	case SortTotal:
		less = func(a, b *Channel) bool { return a.TotalFrames < b.TotalFrames }
	case SortAverageError:
		less = func(a, b *Channel) bool { return a.Error < b.Error }
	default:
		less = func(a, b *Channel) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
	sort.SliceStable(chs, func(i, j int) bool {
		if inverse {
			return less(&chs[j], &chs[i])
		}
		return less(&chs[i], &chs[j])
	})
}

// Summary describes the channels as a whole.
type Summary struct {
	Channels    int
	MeanFrames  float64
	MeanError   float64
	LongestSpan int
}

// Summary returns aggregate figures over the current channels.
func (d *Dopesheet) Summary() Summary {
	s := Summary{Channels: len(d.Channels)}
	if s.Channels == 0 {
		return s
	}
	frames := make([]float64, len(d.Channels))
	errs := make([]float64, len(d.Channels))
	for i, ch := range d.Channels {
		frames[i] = float64(ch.TotalFrames)
		errs[i] = ch.Error
		s.LongestSpan = max(s.LongestSpan, ch.MaxSegment)
	}
	s.MeanFrames = stat.Mean(frames, nil)
	s.MeanError = stat.Mean(errs, nil)
	return s
}
