package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/banshee-data/motiontrack/internal/fsutil"
	"github.com/banshee-data/motiontrack/internal/timeutil"
	"github.com/banshee-data/motiontrack/internal/tracking/dopesheet"
	"github.com/banshee-data/motiontrack/internal/tracking/footage"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/plot"
	"github.com/banshee-data/motiontrack/internal/tracking/reconstruct"
	"github.com/banshee-data/motiontrack/internal/tracking/stabilize"
	"github.com/banshee-data/motiontrack/internal/tracking/storage/sqlite"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
	"github.com/banshee-data/motiontrack/internal/version"
)

const defaultArchive = "matchmove.db"

func handleTrack(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	common := addCommonFlags(fs)
	patterns := fs.String("patterns", "", "Write each track's pattern on its last tracked frame to this directory")
	patternSize := fs.Int("pattern-size", 32, "Side of the written pattern previews in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := prepare(ctx, files, common, out)
	if err != nil {
		return err
	}
	if *patterns != "" {
		if err := writePatterns(ctx, s, *patterns, *patternSize); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%-16s %6s %6s %8s\n", "TRACK", "FIRST", "LAST", "MARKERS")
	for _, t := range s.tracking.Tracks() {
		first, last, ok := t.FirstLastEnabled()
		if !ok {
			fmt.Fprintf(out, "%-16s %6s %6s %8d\n", t.Name, "-", "-", len(t.Markers))
			continue
		}
		fmt.Fprintf(out, "%-16s %6d %6d %8d\n", t.Name, first, last, len(t.Markers))
	}
	return nil
}

// writePatterns resamples every track's pattern quad on its last enabled
// frame into a size x size preview.
func writePatterns(ctx context.Context, s *session, dir string, size int) error {
	if size <= 0 {
		return fmt.Errorf("invalid pattern size %d", size)
	}
	if err := s.files.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w, h := s.seq.FrameSize()
	for _, t := range s.tracking.Tracks() {
		_, last, ok := t.FirstLastEnabled()
		if !ok {
			continue
		}
		m := t.GetExact(last)
		b, err := s.seq.Acquire(ctx, last)
		if err != nil {
			return err
		}
		search := imbuf.SearchArea(b, t, m, false, false)
		pattern, _ := imbuf.SamplePattern(w, h, search, t, m, false, size, size)
		if pattern == nil {
			log.Printf("track %q has an empty search area on frame %d", t.Name, last)
			continue
		}
		if err := footage.WritePNG(s.files, filepath.Join(dir, t.Name+".png"), pattern); err != nil {
			return err
		}
	}
	return nil
}

func handleSolve(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	common := addCommonFlags(fs)
	dbPath := fs.String("db", defaultArchive, "Run archive database")
	replay := fs.String("replay", "", "Archived run ID to replay instead of estimating")
	keyframe1 := fs.Int("keyframe1", 0, "First keyframe (0 uses the config)")
	keyframe2 := fs.Int("keyframe2", 0, "Second keyframe (0 uses the config)")
	save := fs.Bool("save", true, "Archive the solved run")
	cameraPlot := fs.String("camera-plot", "", "Write the solved camera path as PNG to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sqlite.Open(*dbPath, timeutil.RealClock{})
	if err != nil {
		return err
	}
	defer store.Close()

	var solver reconstruct.Solver
	if *replay != "" {
		rs, err := store.Replay(ctx, *replay)
		if err != nil {
			return err
		}
		solver = rs
	}

	s, err := prepare(ctx, files, common, out)
	if err != nil {
		return err
	}
	tr := s.tracking
	obj := tr.ActiveObj()
	if *keyframe1 > 0 {
		obj.Keyframe1 = *keyframe1
	}
	if *keyframe2 > 0 {
		obj.Keyframe2 = *keyframe2
	}

	if err := reconstruct.Check(tr, obj, solver); err != nil {
		return err
	}
	w, h := s.seq.FrameSize()
	c := reconstruct.NewContext(tr, obj, obj.Keyframe1, obj.Keyframe2, w, h)
	progress := func(p float64, msg string) {
		log.Printf("%3.0f%% %s", p*100, msg)
	}
	if err := c.Solve(ctx, solver, progress); err != nil {
		return err
	}
	if err := c.Finish(tr); err != nil {
		if !errors.Is(err, reconstruct.ErrIncomplete) {
			return err
		}
		log.Printf("solve incomplete: %v", err)
	}
	fmt.Fprintf(out, "solved %s: error %.4f, %d cameras\n", obj.Name, c.Error(), len(obj.Reconstruction.Cameras))

	if *cameraPlot != "" {
		p, err := plot.CameraPath(obj)
		if err != nil {
			return err
		}
		if err := writeFile(files, *cameraPlot, out, func(f io.Writer) error {
			return plot.WritePNG(f, p)
		}); err != nil {
			return err
		}
	}

	if !*save {
		return nil
	}
	run, err := store.SaveRun(ctx, tr, obj)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "archived run %s\n", run.RunID)
	return nil
}

func handleStabilize(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	fs := flag.NewFlagSet("stabilize", flag.ContinueOnError)
	common := addCommonFlags(fs)
	outDir := fs.String("out", "stabilized", "Output directory for stabilized frames")
	rotation := fs.Bool("rotation", false, "Stabilize rotation using the longest track")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := prepare(ctx, files, common, out)
	if err != nil {
		return err
	}
	tr := s.tracking
	tr.Stabilization.Enabled = true
	tr.Stabilization.Invalidate()
	var longest *track.Track
	span := -1
	for _, t := range tr.Tracks() {
		t.SetFlag(track.AreaPoint, track.UseStab2D)
		if first, last, ok := t.FirstLastEnabled(); ok && last-first > span {
			longest, span = t, last-first
		}
	}
	if *rotation && longest != nil {
		tr.Stabilization.Rotation = true
		tr.SetRotationTrack(longest)
	}

	if err := files.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for _, frame := range s.seq.Frames() {
		src, err := s.seq.Acquire(ctx, frame)
		if err != nil {
			return err
		}
		dst, t, err := stabilize.StabilizeFrame(ctx, tr, frame, src)
		if err != nil {
			return err
		}
		name := filepath.Join(*outDir, fmt.Sprintf("stabilized_%04d.png", frame))
		if err := footage.WritePNG(files, name, dst); err != nil {
			return err
		}
		fmt.Fprintf(out, "%4d  dx=%8.3f dy=%8.3f scale=%6.4f angle=%7.4f\n", frame, t.Translation.X, t.Translation.Y, t.Scale, t.Angle)
	}
	return nil
}

func handleDopesheet(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	fs := flag.NewFlagSet("dopesheet", flag.ContinueOnError)
	common := addCommonFlags(fs)
	sortBy := fs.String("sort", "", "Sort channels by name, longest, total or average_error (default from config)")
	inverse := fs.Bool("inverse", false, "Reverse the sort order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := prepare(ctx, files, common, out)
	if err != nil {
		return err
	}
	opts, err := dopesheet.OptionsFromConfig(s.cfg)
	if err != nil {
		return err
	}
	if *sortBy != "" {
		m, ok := dopesheet.ParseSortMethod(*sortBy)
		if !ok {
			return fmt.Errorf("unknown sort method %q", *sortBy)
		}
		opts.Sort = m
	}
	opts.Inverse = opts.Inverse || *inverse

	ds := dopesheet.New(opts)
	ds.Update(s.tracking)

	fmt.Fprintf(out, "%-24s %8s %8s  %s\n", "CHANNEL", "FRAMES", "LONGEST", "SEGMENTS")
	for _, ch := range ds.Channels {
		fmt.Fprintf(out, "%-24s %8d %8d ", ch.Label, ch.TotalFrames, ch.MaxSegment)
		for _, seg := range ch.Segments {
			fmt.Fprintf(out, " %d-%d", seg.Start, seg.End)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "COVERAGE")
	for _, seg := range ds.Coverage {
		fmt.Fprintf(out, "%5d-%-5d %s\n", seg.Start, seg.End, seg.Coverage)
	}
	sum := ds.Summary()
	fmt.Fprintf(out, "\n%d channels, mean %.1f frames, longest span %d\n", sum.Channels, sum.MeanFrames, sum.LongestSpan)
	return nil
}

func handlePlot(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	common := addCommonFlags(fs)
	outDir := fs.String("out", "plots", "Output directory for charts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := prepare(ctx, files, common, out)
	if err != nil {
		return err
	}
	if err := files.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	tr := s.tracking
	w, h := s.seq.FrameSize()

	paths, err := plot.TrackPaths(tr.ActiveObj(), w, h)
	if err != nil {
		return err
	}
	if err := writeFile(files, filepath.Join(*outDir, "track_paths.png"), out, func(f io.Writer) error {
		return plot.WritePNG(f, paths)
	}); err != nil {
		return err
	}

	tr.Stabilization.Enabled = true
	tr.Stabilization.Invalidate()
	for _, t := range tr.Tracks() {
		t.SetFlag(track.AreaPoint, track.UseStab2D)
	}
	first, last := s.seq.Range()
	trans, scaleAngle, err := plot.StabilizationCurves(tr, first, last, w, h)
	if err != nil {
		return err
	}
	if err := writeFile(files, filepath.Join(*outDir, "stabilization_translation.png"), out, func(f io.Writer) error {
		return plot.WritePNG(f, trans)
	}); err != nil {
		return err
	}
	if err := writeFile(files, filepath.Join(*outDir, "stabilization_scale_angle.png"), out, func(f io.Writer) error {
		return plot.WritePNG(f, scaleAngle)
	}); err != nil {
		return err
	}

	opts, err := dopesheet.OptionsFromConfig(s.cfg)
	if err != nil {
		return err
	}
	ds := dopesheet.New(opts)
	ds.Update(tr)
	return writeFile(files, filepath.Join(*outDir, "coverage.html"), out, func(f io.Writer) error {
		return plot.CoverageHTML(f, ds)
	})
}

// writeFile creates name, fills it with write and reports it on out.
func writeFile(files fsutil.FileSystem, name string, out io.Writer, write func(io.Writer) error) error {
	f, err := files.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", name)
	return nil
}

func handleRuns(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	dbPath := fs.String("db", defaultArchive, "Run archive database")
	object := fs.String("object", "", "Only list runs of this object")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := sqlite.Open(*dbPath, timeutil.RealClock{})
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, *object)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%-36s %-12s %-20s %9s %6s %7s\n", "RUN", "OBJECT", "CREATED", "ERROR", "POSES", "BUNDLES")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s %-12s %-20s %9.4f %6d %7d\n",
			r.RunID, r.Object, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Error, r.Poses, r.Bundles)
	}
	return nil
}

func handleVersion(out io.Writer) error {
	fmt.Fprintln(out, version.String("matchmove"))
	return nil
}
