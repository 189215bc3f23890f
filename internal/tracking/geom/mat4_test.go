package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatNear(t *testing.T, want, got Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "element %d", i)
	}
}

func TestMat4_Inverse(t *testing.T) {
	t.Parallel()

	m := Translate(Vec3{1, 2, 3}).Mul(RotateZ(0.3)).Mul(ScaleMat(Vec3{2, 2, 2}))
	inv, ok := m.Inverse()
	require.True(t, ok)
	assertMatNear(t, Identity(), m.Mul(inv))

	t.Run("singular", func(t *testing.T) {
		t.Parallel()
		_, ok := ScaleMat(Vec3{0, 1, 1}).Inverse()
		assert.False(t, ok)
	})
}

func TestMat4_TransformPoint(t *testing.T) {
	t.Parallel()

	m := Translate(Vec3{1, 0, 0}).Mul(RotateZ(math.Pi / 2))
	p := m.TransformPoint(Vec3{1, 0, 0})
	assert.InDelta(t, 1.0, p.X, 1e-12)
	assert.InDelta(t, 1.0, p.Y, 1e-12)
	assert.InDelta(t, 0.0, p.Z, 1e-12)
}

func TestInterpolate(t *testing.T) {
	t.Parallel()

	a := Translate(Vec3{0, 0, 0})
	b := Translate(Vec3{2, 4, 6}).Mul(RotateZ(math.Pi / 2))

	assertMatNear(t, a, Interpolate(a, b, 0))
	assertMatNear(t, b, Interpolate(a, b, 1))

	mid := Interpolate(a, b, 0.5)
	assertMatNear(t, Translate(Vec3{1, 2, 3}).Mul(RotateZ(math.Pi/4)), mid)
}

func TestVec2(t *testing.T) {
	t.Parallel()

	a := Vec2{1, 2}
	b := Vec2{3, 5}
	assert.Equal(t, Vec2{4, 7}, a.Add(b))
	assert.Equal(t, Vec2{-2, -3}, a.Sub(b))
	assert.Equal(t, Vec2{2, 3.5}, Lerp(a, b, 0.5))
	assert.Equal(t, 13.0, a.Dot(b))
	assert.Equal(t, -1.0, a.Cross(b))
	assert.Equal(t, Vec2{1, 2}, MinV(a, b))
	assert.Equal(t, Vec2{3, 5}, MaxV(a, b))
}
