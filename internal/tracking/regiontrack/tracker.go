package regiontrack

import (
	"context"
	"errors"

	"github.com/banshee-data/motiontrack/internal/tracking/coords"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// ErrInvalidRequest is returned for requests that cannot be tracked at all,
// such as missing patches or a mask of the wrong size.
var ErrInvalidRequest = errors.New("invalid region tracking request")

// Options configures a single tracking call.
type Options struct {
	MotionModel      track.MotionModel
	MinCorrelation   float64
	NumIterations    int
	Sigma            float64
	UseBrute         bool
	UseNormalization bool
}

// Request describes one pattern to follow from Reference into Destination.
// Src holds the pattern corners and center in Reference pixels, Dst the
// initial guess in Destination pixels. Integer coordinates address pixel
// centers. Mask, when set, has one weight per Reference pixel.
type Request struct {
	Reference   *imbuf.Gray
	Destination *imbuf.Gray
	Src         coords.Coords
	Dst         coords.Coords
	Mask        []float32
	Options     Options
}

// Result is the outcome of a tracking call. Dst is only meaningful when OK
// is set.
type Result struct {
	OK          bool
	Dst         coords.Coords
	Correlation float64
}

// Tracker tracks a single region. Implementations must be safe for
// concurrent use; the engine calls Track from several goroutines.
type Tracker interface {
	Track(ctx context.Context, req Request) (Result, error)
}

func (r *Request) validate() error {
	if r.Reference == nil || r.Destination == nil {
		return ErrInvalidRequest
	}
	if r.Mask != nil && len(r.Mask) != r.Reference.W*r.Reference.H {
		return ErrInvalidRequest
	}
	return nil
}

// shifted returns c translated by (dx, dy).
func shifted(c coords.Coords, dx, dy float64) coords.Coords {
	for i := range c.X {
		c.X[i] += dx
		c.Y[i] += dy
	}
	return c
}
