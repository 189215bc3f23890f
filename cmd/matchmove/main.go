package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/motiontrack/internal/fsutil"
)

var errUsage = errors.New("usage")

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Args(), os.Stdout, fsutil.OSFileSystem{}); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatalf("matchmove: %v", err)
	}
}

// run dispatches one command. Output meant for the user goes to out;
// diagnostics go to the log.
func run(ctx context.Context, args []string, out io.Writer, files fsutil.FileSystem) error {
	if len(args) < 1 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	switch command {
	case "track":
		return handleTrack(ctx, rest, out, files)
	case "solve":
		return handleSolve(ctx, rest, out, files)
	case "stabilize":
		return handleStabilize(ctx, rest, out, files)
	case "dopesheet":
		return handleDopesheet(ctx, rest, out, files)
	case "plot":
		return handlePlot(ctx, rest, out, files)
	case "runs":
		return handleRuns(ctx, rest, out)
	case "version":
		return handleVersion(out)
	case "help":
		printUsage(out)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
	return errUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `matchmove - 2D feature tracking and camera solving for image sequences

Usage: matchmove <command> [options]

Commands:
  track      Seed tracks by feature detection and track them through the sequence
  solve      Track, then reconstruct the camera and archive the run
  stabilize  Track, then write a stabilized copy of the sequence
  dopesheet  Track, then print the dopesheet channels and coverage
  plot       Track, then write track path, stabilization and coverage charts
  runs       List archived reconstruction runs
  version    Show version information
  help       Show this help message

Common Flags:
  -frames <dir>      Directory of numbered PNG frames, e.g. shot_0001.png
  -config <file>     Tracking config JSON (default config/tracking.defaults.json)
  -tracker <name>    Region tracker (ncc; lk when built with -tags gocv)
  -detector <name>   Feature detector (fast; gftt when built with -tags gocv)

Examples:
  matchmove track -frames ./shot
  matchmove solve -frames ./shot -db runs.db -replay 3f1c...
  matchmove stabilize -frames ./shot -out ./stabilized
  matchmove runs -db runs.db`)
}
