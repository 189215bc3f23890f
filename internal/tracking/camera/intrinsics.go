package camera

import (
	"image"
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

// Intrinsics describes the camera that shot the footage. Focal and the
// principal point are in pixels of the calibration frame; PrincipalY is
// stored before pixel aspect correction.
type Intrinsics struct {
	Focal      float64
	PrincipalX float64
	PrincipalY float64
	K1, K2, K3 float64

	PixelAspect float64
	SensorWidth float64 // mm

	ImageWidth  int
	ImageHeight int
}

// Default returns intrinsics for a w x h frame with the principal point at
// the frame center and no distortion.
func Default(w, h int, focalMM, sensorWidth, pixelAspect float64) Intrinsics {
	in := Intrinsics{
		PrincipalX:  float64(w) / 2,
		PrincipalY:  float64(h) / 2,
		PixelAspect: pixelAspect,
		SensorWidth: sensorWidth,
		ImageWidth:  w,
		ImageHeight: h,
	}
	in.SetFocalMM(focalMM)
	return in
}

func (in Intrinsics) aspy() float64 {
	if in.PixelAspect == 0 {
		return 1
	}
	return 1 / in.PixelAspect
}

// FocalMM returns the focal length in millimeters.
func (in Intrinsics) FocalMM() float64 {
	if in.ImageWidth == 0 {
		return 0
	}
	return in.Focal * in.SensorWidth / float64(in.ImageWidth)
}

// SetFocalMM sets the focal length from millimeters.
func (in *Intrinsics) SetFocalMM(mm float64) {
	if in.SensorWidth == 0 {
		return
	}
	in.Focal = mm * float64(in.ImageWidth) / in.SensorWidth
}

// ProjectionShift returns the lens shift implied by an off-center principal
// point, as fractions of the frame width.
func (in Intrinsics) ProjectionShift(w, h int) (shiftX, shiftY float64) {
	shiftX = (0.5*float64(w) - in.PrincipalX) / float64(w)
	shiftY = (0.5*float64(h) - in.PrincipalY) / float64(w)
	return shiftX, shiftY
}

// radial returns the distortion factor for a normalized radius squared.
func (in Intrinsics) radial(r2 float64) float64 {
	return 1 + in.K1*r2 + in.K2*r2*r2 + in.K3*r2*r2*r2
}

// DistortPoint maps an undistorted pixel position to its distorted position.
func (in Intrinsics) DistortPoint(p geom.Vec2) geom.Vec2 {
	py := in.PrincipalY * in.aspy()
	x := (p.X - in.PrincipalX) / in.Focal
	y := (p.Y - py) / in.Focal

	f := in.radial(x*x + y*y)
	return geom.Vec2{X: in.Focal*x*f + in.PrincipalX, Y: in.Focal*y*f + py}
}

// UndistortPoint maps a distorted pixel position back to its undistorted
// position by Newton-Raphson inversion of the radial model.
func (in Intrinsics) UndistortPoint(p geom.Vec2) geom.Vec2 {
	py := in.PrincipalY * in.aspy()
	xd := (p.X - in.PrincipalX) / in.Focal
	yd := (p.Y - py) / in.Focal

	xu, yu := invertRadial(in, xd, yd)
	return geom.Vec2{X: xu*in.Focal + in.PrincipalX, Y: yu*in.Focal + py}
}

func invertRadial(in Intrinsics, xd, yd float64) (float64, float64) {
	const (
		maxIterations = 20
		tolerance     = 1e-10
	)

	xu, yu := xd, yd
	for i := 0; i < maxIterations; i++ {
		r2 := xu*xu + yu*yu
		f := in.radial(r2)

		errX := xu*f - xd
		errY := yu*f - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}

		df := 2 * (in.K1 + 2*in.K2*r2 + 3*in.K3*r2*r2)
		j00 := f + xu*xu*df
		j01 := xu * yu * df
		j10 := j01
		j11 := f + yu*yu*df

		det := j00*j11 - j01*j10
		if det == 0 {
			break
		}
		xu -= (j11*errX - j01*errY) / det
		yu -= (-j10*errX + j00*errY) / det
	}
	return xu, yu
}

// MaxUndistortionDelta returns the largest per-axis displacement that
// undistortion applies to points on the border of r, sampled every 5
// pixels and always including the corners.
func (in Intrinsics) MaxUndistortionDelta(r image.Rectangle) geom.Vec2 {
	const step = 5

	delta := geom.Vec2{X: -math.MaxFloat64, Y: -math.MaxFloat64}
	probe := func(x, y int) {
		p := geom.Vec2{X: float64(x), Y: float64(y)}
		w := in.UndistortPoint(p)
		delta.X = math.Max(delta.X, math.Abs(p.X-w.X))
		delta.Y = math.Max(delta.Y, math.Abs(p.Y-w.Y))
	}

	xmax, ymax := r.Max.X, r.Max.Y
	for a := r.Min.X; ; a += step {
		if a > xmax {
			a = xmax
		}
		probe(a, r.Min.Y)
		probe(a, ymax)
		if a >= xmax {
			break
		}
	}
	for a := r.Min.Y; ; a += step {
		if a > ymax {
			a = ymax
		}
		probe(r.Min.X, a)
		probe(xmax, a)
		if a >= ymax {
			break
		}
	}
	return delta
}
