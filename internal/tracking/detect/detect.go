package detect

import (
	"context"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/monitoring"
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

var logf = monitoring.Component("detect")

// Feature is a detected corner in frame pixels, y up.
type Feature struct {
	X, Y  float64
	Score float64
	Size  float64
}

// Detector finds features in a frame. Results are ordered by decreasing
// score.
type Detector interface {
	Detect(ctx context.Context, b *imbuf.ImBuf) ([]Feature, error)
}

// Options control detection and track placement.
type Options struct {
	// Margin is the border in pixels where no feature is reported.
	Margin int
	// Threshold is the minimum intensity difference on the 0..255 scale.
	Threshold int
	// MinDistance is the minimum pixel distance between two features.
	MinDistance int
	// PlaceOutside inverts the annotation layer filter.
	PlaceOutside bool
}

// OptionsFromConfig reads the detection options of cfg.
func OptionsFromConfig(cfg *config.TrackingConfig) Options {
	return Options{
		Margin:       cfg.GetDetectMargin(),
		Threshold:    cfg.GetDetectThreshold(),
		MinDistance:  cfg.GetDetectMinDistance(),
		PlaceOutside: cfg.GetDetectPlaceOutside(),
	}
}

// AddFeatures adds a track at every feature and selects it. With a
// non-empty layer only features inside it are used, or only those outside
// when placeOutside is set. The new tracks are returned in feature order.
func AddFeatures(tr *registry.Tracking, obj *registry.Object, features []Feature, frame, w, h int, layer *track.Layer, placeOutside bool) []*track.Track {
	filter := !layer.Empty()

	var added []*track.Track
	for _, f := range features {
		xu := f.X / float64(w)
		yu := f.Y / float64(h)

		if filter {
			inside := layer.Contains(geom.Vec2{X: xu, Y: yu})
			if inside == placeOutside {
				continue
			}
		}

		t := tr.AddTrack(obj, xu, yu, frame, w, h)
		t.SetFlag(track.AreaAll, track.Selected)
		added = append(added, t)
	}
	logf("Added %d of %d features at frame %d", len(added), len(features), frame)
	return added
}
