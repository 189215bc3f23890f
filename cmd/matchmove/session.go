package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/fsutil"
	"github.com/banshee-data/motiontrack/internal/tracking/detect"
	"github.com/banshee-data/motiontrack/internal/tracking/footage"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track2d"
)

// commonFlags are shared by every command that tracks footage.
type commonFlags struct {
	frames   *string
	config   *string
	tracker  *string
	detector *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		frames:   fs.String("frames", "", "Directory of numbered PNG frames (required)"),
		config:   fs.String("config", "", "Tracking config JSON (defaults to "+config.DefaultConfigPath+")"),
		tracker:  fs.String("tracker", "ncc", fmt.Sprintf("Region tracker %v", trackerNames)),
		detector: fs.String("detector", "fast", "Feature detector used to seed tracks"),
	}
}

// session is a tracking set over one frame sequence.
type session struct {
	cfg      *config.TrackingConfig
	seq      *footage.Sequence
	tracking *registry.Tracking
	files    fsutil.FileSystem
	out      io.Writer
}

func loadConfig(path string) (*config.TrackingConfig, error) {
	if path == "" {
		path = config.DefaultConfigPath
	}
	return config.LoadTrackingConfig(path)
}

func openSession(files fsutil.FileSystem, flags *commonFlags, out io.Writer) (*session, error) {
	if *flags.frames == "" {
		return nil, errors.New("-frames is required")
	}
	cfg, err := loadConfig(*flags.config)
	if err != nil {
		return nil, err
	}
	seq, err := footage.Open(files, *flags.frames)
	if err != nil {
		return nil, err
	}
	w, h := seq.FrameSize()
	tr, err := registry.NewFromConfig(cfg, w, h)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, seq: seq, tracking: tr, files: files, out: out}, nil
}

// seed detects features on the first frame and adds a selected track at
// each of them.
func (s *session) seed(ctx context.Context, detectorName string) (int, error) {
	opts := detect.OptionsFromConfig(s.cfg)
	d, err := newDetector(detectorName, opts)
	if err != nil {
		return 0, err
	}
	first, _ := s.seq.Range()
	b, err := s.seq.Acquire(ctx, first)
	if err != nil {
		return 0, err
	}
	features, err := d.Detect(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("detect: %w", err)
	}
	w, h := s.seq.FrameSize()
	added := detect.AddFeatures(s.tracking, s.tracking.ActiveObj(), features, first, w, h, nil, opts.PlaceOutside)
	return len(added), nil
}

// trackForward tracks every selected track from the first frame to the end
// of the sequence, syncing into the registry after each step.
func (s *session) trackForward(ctx context.Context, trackerName string) (track2d.Stats, error) {
	tracker, err := newTracker(trackerName)
	if err != nil {
		return track2d.Stats{}, err
	}
	first, last := s.seq.Range()
	c := track2d.Start(s.tracking, s.seq, tracker, false, true, first)
	if c.Len() == 0 {
		return c.Finish(), nil
	}
	for c.Frame() < last && c.Step(ctx) {
		c.Sync()
	}
	stats := c.Finish()
	return stats, ctx.Err()
}

// prepare seeds and tracks the whole sequence.
func prepare(ctx context.Context, files fsutil.FileSystem, flags *commonFlags, out io.Writer) (*session, error) {
	s, err := openSession(files, flags, out)
	if err != nil {
		return nil, err
	}
	n, err := s.seed(ctx, *flags.detector)
	if err != nil {
		return nil, err
	}
	stats, err := s.trackForward(ctx, *flags.tracker)
	if err != nil {
		return nil, err
	}
	log.Printf("seeded %d tracks; tracked %d markers over %d frames, %d lost", n, stats.Tracked, stats.Frames, stats.Lost)
	return s, nil
}
