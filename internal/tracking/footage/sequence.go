package footage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/banshee-data/motiontrack/internal/fsutil"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// ErrEmptySequence is returned when a directory holds no numbered frames.
var ErrEmptySequence = errors.New("no frames found")

// frameNumber matches the trailing digits of a file stem.
var frameNumber = regexp.MustCompile(`(\d+)$`)

// Sequence is a directory of PNG frames named with a trailing frame
// number, for example shot_0001.png. It implements imbuf.Provider and is
// safe for concurrent use.
type Sequence struct {
	fs     fsutil.FileSystem
	frames map[int]string
	first  int
	last   int
	w, h   int
}

var _ imbuf.Provider = (*Sequence)(nil)

// Open scans dir for numbered PNG frames. The frame size is taken from the
// first frame.
func Open(fs fsutil.FileSystem, dir string) (*Sequence, error) {
	names, err := fs.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	s := &Sequence{fs: fs, frames: make(map[int]string)}
	for _, name := range names {
		stem := filepath.Base(name)
		stem = stem[:len(stem)-len(filepath.Ext(stem))]
		m := frameNumber.FindString(stem)
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if prev, ok := s.frames[n]; ok {
			return nil, fmt.Errorf("frame %d is both %s and %s", n, prev, name)
		}
		s.frames[n] = name
	}
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptySequence)
	}

	nums := s.Frames()
	s.first, s.last = nums[0], nums[len(nums)-1]

	f, err := fs.Open(s.frames[s.first])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.frames[s.first], err)
	}
	s.w, s.h = cfg.Width, cfg.Height
	return s, nil
}

// Frames returns the available frame numbers in ascending order.
func (s *Sequence) Frames() []int {
	out := make([]int, 0, len(s.frames))
	for n := range s.frames {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Range returns the first and last frame numbers. Frames in between may
// be missing.
func (s *Sequence) Range() (first, last int) { return s.first, s.last }

// FrameSize implements imbuf.Provider.
func (s *Sequence) FrameSize() (int, int) { return s.w, s.h }

// Acquire implements imbuf.Provider. Missing, unreadable or differently
// sized frames are reported as imbuf.ErrFrameUnavailable.
func (s *Sequence) Acquire(ctx context.Context, frame int) (*imbuf.ImBuf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := s.frames[frame]
	if !ok {
		return nil, fmt.Errorf("frame %d: %w", frame, imbuf.ErrFrameUnavailable)
	}
	img, err := s.decode(name)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %v: %w", frame, err, imbuf.ErrFrameUnavailable)
	}
	if b := img.Bounds(); b.Dx() != s.w || b.Dy() != s.h {
		return nil, fmt.Errorf("frame %d is %dx%d, want %dx%d: %w", frame, b.Dx(), b.Dy(), s.w, s.h, imbuf.ErrFrameUnavailable)
	}
	return imbuf.FromImage(img), nil
}

func (s *Sequence) decode(name string) (image.Image, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// WritePNG encodes b as a PNG file at name.
func WritePNG(fs fsutil.FileSystem, name string, b *imbuf.ImBuf) error {
	w, err := fs.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(w, b.ToImage()); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return w.Close()
}
