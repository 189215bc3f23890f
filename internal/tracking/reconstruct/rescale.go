package reconstruct

import (
	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
)

// Rescale scales the cameras and bundles of every object by scale. Each
// object keeps its first camera where it was.
func Rescale(tr *registry.Tracking, scale geom.Vec3) {
	for _, obj := range tr.Objects {
		rescaleObject(obj, scale)
	}
	tr.Touch()
}

func rescaleObject(obj *registry.Object, scale geom.Vec3) {
	cams := obj.Reconstruction.Cameras

	var delta geom.Vec3
	if len(cams) > 0 {
		delta = cams[0].Mat.Translation().Mul(scale)
	}

	for i := range cams {
		cams[i].Mat.SetTranslation(cams[i].Mat.Translation().Mul(scale).Sub(delta))
	}
	for _, t := range obj.Tracks {
		if t.HasBundle() {
			t.Bundle = t.Bundle.Mul(scale).Sub(delta)
		}
	}
}
