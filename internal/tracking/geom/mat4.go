package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mat4 is a 4x4 affine transform in row-major layout acting on column
// vectors: m00,m01,m02,m03, m10,... with the translation in T[3], T[7], T[11].
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 { return m[r*4+c] }

// Mul returns the product m*o (o is applied first).
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}

// Inverse returns the inverse of m. ok is false when m is singular, in which
// case the identity is returned.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	a := mat.NewDense(4, 4, append([]float64(nil), m[:]...))
	var d mat.Dense
	if err := d.Inverse(a); err != nil {
		var cond mat.Condition
		if errors.Is(err, mat.ErrSingular) || !errors.As(err, &cond) {
			return Identity(), false
		}
		// Ill-conditioned but invertible: keep the result.
	}
	copy(inv[:], d.RawMatrix().Data)
	return inv, true
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 { return Vec3{m[3], m[7], m[11]} }

// SetTranslation replaces the translation column.
func (m *Mat4) SetTranslation(t Vec3) {
	m[3], m[7], m[11] = t.X, t.Y, t.Z
}

// TransformPoint applies m to the point p.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Translate returns a pure translation transform.
func Translate(t Vec3) Mat4 {
	m := Identity()
	m.SetTranslation(t)
	return m
}

// ScaleMat returns a scale transform.
func ScaleMat(s Vec3) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = s.X, s.Y, s.Z
	return m
}

// RotateZ returns a counter-clockwise rotation about the Z axis.
func RotateZ(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	m := Identity()
	m[0], m[1] = c, -s
	m[4], m[5] = s, c
	return m
}

// Interpolate blends a and b by t, interpolating translation and scale
// linearly and rotation spherically.
func Interpolate(a, b Mat4, t float64) Mat4 {
	ta, qa, sa := decompose(a)
	tb, qb, sb := decompose(b)

	tr := Vec3{ta.X + (tb.X-ta.X)*t, ta.Y + (tb.Y-ta.Y)*t, ta.Z + (tb.Z-ta.Z)*t}
	sc := Vec3{sa.X + (sb.X-sa.X)*t, sa.Y + (sb.Y-sa.Y)*t, sa.Z + (sb.Z-sa.Z)*t}
	q := slerp(qa, qb, t)

	return compose(tr, q, sc)
}

type quat [4]float64 // w, x, y, z

func decompose(m Mat4) (Vec3, quat, Vec3) {
	sc := Vec3{
		math.Sqrt(m[0]*m[0] + m[4]*m[4] + m[8]*m[8]),
		math.Sqrt(m[1]*m[1] + m[5]*m[5] + m[9]*m[9]),
		math.Sqrt(m[2]*m[2] + m[6]*m[6] + m[10]*m[10]),
	}
	var r [9]float64
	for row := 0; row < 3; row++ {
		r[row*3+0] = safeDiv(m[row*4+0], sc.X)
		r[row*3+1] = safeDiv(m[row*4+1], sc.Y)
		r[row*3+2] = safeDiv(m[row*4+2], sc.Z)
	}
	return m.Translation(), quatFromRot(r), sc
}

func compose(t Vec3, q quat, sc Vec3) Mat4 {
	w, x, y, z := q[0], q[1], q[2], q[3]
	r := [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w),
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w),
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y),
	}
	m := Identity()
	for row := 0; row < 3; row++ {
		m[row*4+0] = r[row*3+0] * sc.X
		m[row*4+1] = r[row*3+1] * sc.Y
		m[row*4+2] = r[row*3+2] * sc.Z
	}
	m.SetTranslation(t)
	return m
}

func quatFromRot(r [9]float64) quat {
	tr := r[0] + r[4] + r[8]
	var q quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat{0.25 * s, (r[7] - r[5]) / s, (r[2] - r[6]) / s, (r[3] - r[1]) / s}
	case r[0] > r[4] && r[0] > r[8]:
		s := math.Sqrt(1+r[0]-r[4]-r[8]) * 2
		q = quat{(r[7] - r[5]) / s, 0.25 * s, (r[1] + r[3]) / s, (r[2] + r[6]) / s}
	case r[4] > r[8]:
		s := math.Sqrt(1+r[4]-r[0]-r[8]) * 2
		q = quat{(r[2] - r[6]) / s, (r[1] + r[3]) / s, 0.25 * s, (r[5] + r[7]) / s}
	default:
		s := math.Sqrt(1+r[8]-r[0]-r[4]) * 2
		q = quat{(r[3] - r[1]) / s, (r[2] + r[6]) / s, (r[5] + r[7]) / s, 0.25 * s}
	}
	return q
}

func slerp(a, b quat, t float64) quat {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		b = quat{-b[0], -b[1], -b[2], -b[3]}
		dot = -dot
	}
	var wa, wb float64
	if dot > 0.9995 {
		wa, wb = 1-t, t
	} else {
		theta := math.Acos(dot)
		sin := math.Sin(theta)
		wa = math.Sin((1-t)*theta) / sin
		wb = math.Sin(t*theta) / sin
	}
	q := quat{
		wa*a[0] + wb*b[0],
		wa*a[1] + wb*b[1],
		wa*a[2] + wb*b[2],
		wa*a[3] + wb*b[3],
	}
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return quat{1, 0, 0, 0}
	}
	return quat{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
