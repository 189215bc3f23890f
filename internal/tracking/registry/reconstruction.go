package registry

import (
	"math"
	"sort"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

// CameraPose is the reconstructed camera transform for one frame.
type CameraPose struct {
	Frame int
	Mat   geom.Mat4
	Error float64
}

// Reconstruction is an object's solved camera path. Cameras are sorted by
// strictly increasing frame and replaced as a whole on every solve.
type Reconstruction struct {
	Reconstructed bool
	Error         float64
	Cameras       []CameraPose
}

// Reset clears the reconstruction.
func (r *Reconstruction) Reset() {
	*r = Reconstruction{}
}

// index returns the last camera at or before frame, clamped to the first
// camera. It returns -1 when there are no cameras.
func (r *Reconstruction) index(frame int) int {
	if len(r.Cameras) == 0 {
		return -1
	}
	i := sort.Search(len(r.Cameras), func(i int) bool { return r.Cameras[i].Frame > frame }) - 1
	if i < 0 {
		return 0
	}
	return i
}

// CameraAt returns the pose solved for exactly frame, or nil.
func (r *Reconstruction) CameraAt(frame int) *CameraPose {
	i := r.index(frame)
	if i < 0 || r.Cameras[i].Frame != frame {
		return nil
	}
	return &r.Cameras[i]
}

// CameraNearest returns the pose at frame or the nearest one before it,
// clamped to the first pose. It returns nil for an empty reconstruction.
func (r *Reconstruction) CameraNearest(frame int) *CameraPose {
	i := r.index(frame)
	if i < 0 {
		return nil
	}
	return &r.Cameras[i]
}

// CameraMatrix returns the camera transform of o at a possibly fractional
// frame. Poses of directly adjacent frames are interpolated. Non-camera
// objects get their scale applied. The identity is returned when o has no
// reconstruction.
func CameraMatrix(o *Object, frame float64) geom.Mat4 {
	r := &o.Reconstruction
	base := int(math.Floor(frame))
	i := r.index(base)
	if i < 0 {
		return geom.Identity()
	}

	a := r.Cameras[i]
	mat := a.Mat
	if i < len(r.Cameras)-1 && float64(a.Frame) != frame && r.Cameras[i+1].Frame == a.Frame+1 {
		t := frame - float64(a.Frame)
		if t > 0 && t < 1 {
			mat = geom.Interpolate(a.Mat, r.Cameras[i+1].Mat, t)
		}
	}

	if !o.IsCamera() && o.Scale != 0 {
		mat = mat.Mul(geom.ScaleMat(geom.Uniform(1 / o.Scale)))
	}
	return mat
}
