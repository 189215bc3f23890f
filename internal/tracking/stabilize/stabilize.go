package stabilize

import (
	"math"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Transform is the stabilization correction of one frame. Translation is
// in pixels and Angle in radians, counter-clockwise about the frame
// center.
type Transform struct {
	Translation geom.Vec2
	Scale       float64
	Angle       float64
}

// Identity is the transform of an unstabilized frame.
var Identity = Transform{Scale: 1}

// referenceFrame is where the stabilization tracks are assumed to start.
// Tracks beginning later are extrapolated back by the marker lookup.
const referenceFrame = 1

// Median returns the center of the bounding box of the positions at frame
// of every camera track flagged for 2D stabilization. ok is false when no
// track is flagged.
func Median(tr *registry.Tracking, frame int) (median geom.Vec2, ok bool) {
	lo := geom.Vec2{X: math.Inf(1), Y: math.Inf(1)}
	hi := geom.Vec2{X: math.Inf(-1), Y: math.Inf(-1)}

	for _, t := range tr.Tracks() {
		if t.Flag&track.UseStab2D == 0 {
			continue
		}
		m := t.Get(frame)
		if m == nil {
			continue
		}
		lo = geom.MinV(lo, m.Pos)
		hi = geom.MaxV(hi, m.Pos)
		ok = true
	}
	if !ok {
		return geom.Vec2{}, false
	}
	return lo.Add(hi).Scale(0.5), true
}

// Compute returns the correction at frame given the median of the first
// frame and of frame. The working scale is taken from the stabilization
// settings; rotation needs a rotation track.
func Compute(tr *registry.Tracking, frame, w, h int, first, median geom.Vec2) Transform {
	stab := &tr.Stabilization
	width, height := float64(w), float64(h)

	scale := (stab.Scale-1)*stab.ScaleInfluence + 1
	out := Transform{Scale: scale}
	out.Translation = geom.Vec2{
		X: (first.X - median.X) * width * scale,
		Y: (first.Y - median.Y) * height * scale,
	}.Scale(stab.LocInfluence)

	rot := tr.RotationTrack()
	if !stab.Rotation || rot == nil || stab.RotInfluence == 0 {
		return out
	}
	m0 := rot.Get(referenceFrame)
	m1 := rot.Get(frame)
	if m0 == nil || m1 == nil {
		return out
	}

	a := m0.Pos.Sub(first).Mul(geom.Vec2{X: width, Y: height})
	b := m1.Pos.Sub(median).Mul(geom.Vec2{X: width, Y: height})
	angle := -math.Atan2(a.Cross(b), a.Dot(b)) * stab.RotInfluence
	out.Angle = angle

	// rotate about the median instead of the frame center
	x0, y0 := width/2, height/2
	x, y := median.X*width, median.Y*height
	sin, cos := math.Sincos(angle)
	out.Translation.X -= (x0 + (x-x0)*cos - (y-y0)*sin - x) * scale
	out.Translation.Y -= (y0 + (x-x0)*sin + (y-y0)*cos - y) * scale
	return out
}

// Autoscale returns the smallest uniform scale that keeps the frame
// covered on every frame spanned by the stabilization tracks, clamped to
// the maximum scale. The result is cached in the stabilization settings
// until invalidated.
func Autoscale(tr *registry.Tracking, w, h int) float64 {
	stab := &tr.Stabilization
	if stab.Valid {
		return stab.Scale
	}

	first, ok := Median(tr, referenceFrame)
	if !ok {
		stab.Scale = 1
		stab.Valid = true
		return stab.Scale
	}

	stab.Scale = 1
	sfra, efra := frameRange(tr)

	width, height := float64(w), float64(h)
	corners := [4]geom.Vec2{{X: 0, Y: 0}, {X: 0, Y: height}, {X: width, Y: height}, {X: width, Y: 0}}
	rotDx := [4]geom.Vec2{{X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 1}}
	rotDy := [4]geom.Vec2{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}

	scale := 1.0
	for f := sfra; f <= efra; f++ {
		median, _ := Median(tr, f)
		d := Compute(tr, f, w, h, first, median)
		mat := ToMat4(w, h, tr.Camera.PixelAspect, Transform{Translation: d.Translation, Scale: 1, Angle: d.Angle})
		sin, cos := math.Sincos(d.Angle)

		for i := 0; i < 4; i++ {
			a := transform2(mat, corners[i])
			b := transform2(mat, corners[(i+1)%4])

			for j := 0; j < 4; j++ {
				// corner j outside the edge a-b needs scaling up
				if b.Sub(a).Cross(corners[j].Sub(a)) < 0 {
					continue
				}
				dx := d.Translation.Dot(rotDx[j])
				dy := d.Translation.Dot(rotDy[j])

				hw, hh := width/2, height/2
				if j%2 == 1 {
					hw, hh = hh, hw
				}

				e := -hw*cos + hh*sin
				fv := -hh*cos - hw*sin
				var g, hv float64
				if i%2 == j%2 {
					g = -hw*cos - hh*sin
					hv = hh*cos - hw*sin
				} else {
					g = hw*cos + hh*sin
					hv = -hh*cos + hw*sin
				}

				ii := fv - hv
				jj := g - e
				kk := g*fv - e*hv

				s := (-hw*ii - hh*jj) / (dx*ii + dy*jj + kk)
				scale = math.Max(scale, s)
			}
		}
	}

	stab.Scale = scale
	if stab.MaxScale > 0 {
		stab.Scale = math.Min(stab.Scale, stab.MaxScale)
	}
	stab.Valid = true
	return stab.Scale
}

// frameRange spans the markers of every stabilization track and of the
// rotation track when rotation is stabilized.
func frameRange(tr *registry.Tracking) (sfra, efra int) {
	sfra, efra = math.MaxInt, math.MinInt
	rot := tr.RotationTrack()
	for _, t := range tr.Tracks() {
		use := t.Flag&track.UseStab2D != 0 || (tr.Stabilization.Rotation && rot != nil && t.ID == rot.ID)
		if !use || len(t.Markers) == 0 {
			continue
		}
		sfra = min(sfra, t.Markers[0].Frame)
		efra = max(efra, t.Markers[len(t.Markers)-1].Frame)
	}
	return sfra, efra
}

func transform2(m geom.Mat4, p geom.Vec2) geom.Vec2 {
	q := m.TransformPoint(geom.Vec3{X: p.X, Y: p.Y})
	return geom.Vec2{X: q.X, Y: q.Y}
}

// Data returns the correction for frame. Disabled stabilization and a set
// without stabilization tracks give Identity. The autoscale factor is
// computed on first use and cached.
func Data(tr *registry.Tracking, frame, w, h int) Transform {
	stab := &tr.Stabilization
	if !stab.Enabled {
		return Identity
	}

	first, ok := Median(tr, referenceFrame)
	if !ok {
		return Identity
	}
	median, _ := Median(tr, frame)

	if !stab.Autoscale {
		stab.Scale = 1
	}
	if !stab.Valid {
		if stab.Autoscale {
			Autoscale(tr, w, h)
		}
		stab.Valid = true
	}
	return Compute(tr, frame, w, h, first, median)
}

// ToMat4 composes t into a transform of frame pixels: scale and rotation
// about the frame center with pixel aspect correction, then translation.
func ToMat4(w, h int, aspect float64, t Transform) geom.Mat4 {
	if aspect == 0 {
		aspect = 1
	}
	center := geom.Translate(geom.Vec3{X: float64(w) / 2, Y: float64(h) / 2})
	invCenter := geom.Translate(geom.Vec3{X: -float64(w) / 2, Y: -float64(h) / 2})
	asp := geom.ScaleMat(geom.Vec3{X: 1 / aspect, Y: 1, Z: 1})
	invAsp := geom.ScaleMat(geom.Vec3{X: aspect, Y: 1, Z: 1})

	return geom.Translate(geom.Vec3{X: t.Translation.X, Y: t.Translation.Y}).
		Mul(center).
		Mul(asp).
		Mul(geom.RotateZ(t.Angle)).
		Mul(invAsp).
		Mul(geom.ScaleMat(geom.Uniform(t.Scale))).
		Mul(invCenter)
}
