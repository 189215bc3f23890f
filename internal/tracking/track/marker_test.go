package track

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/motiontrack/internal/tracking/geom"
)

func TestMarker_Clamp(t *testing.T) {
	t.Parallel()

	t.Run("search resized below pattern", func(t *testing.T) {
		m := marker(1, 0.5, 0.5)
		m.SearchMin = geom.Vec2{X: -0.05, Y: -0.3}
		m.SearchMax = geom.Vec2{X: 0.3, Y: 0.05}
		m.Clamp(ClampSearchDim)
		assert.Equal(t, geom.Vec2{X: -0.1, Y: -0.3}, m.SearchMin)
		assert.Equal(t, geom.Vec2{X: 0.3, Y: 0.1}, m.SearchMax)
	})

	t.Run("pattern moved outside search", func(t *testing.T) {
		m := marker(1, 0.5, 0.5)
		for i := range m.PatternCorners {
			m.PatternCorners[i].X += 0.25
		}
		m.Clamp(ClampPatternPos)
		pmin, pmax := m.PatternMinMax()
		assert.InDelta(t, 0.3, pmax.X, 1e-12)
		assert.InDelta(t, 0.1, pmin.X, 1e-12)
	})

	t.Run("search moved off pattern keeps size", func(t *testing.T) {
		m := marker(1, 0.5, 0.5)
		m.SearchMin = geom.Vec2{X: 0.0, Y: -0.3}
		m.SearchMax = geom.Vec2{X: 0.6, Y: 0.3}
		m.Clamp(ClampSearchPos)
		assert.InDelta(t, -0.1, m.SearchMin.X, 1e-12)
		assert.InDelta(t, 0.5, m.SearchMax.X, 1e-12)
	})
}

func TestLayer_Contains(t *testing.T) {
	t.Parallel()

	l := &Layer{Strokes: []Stroke{{Points: []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}}}}
	assert.True(t, l.Contains(geom.Vec2{X: 0.5, Y: 0.5}))
	assert.False(t, l.Contains(geom.Vec2{X: 1.5, Y: 0.5}))
	assert.True(t, (*Layer)(nil).Empty())
	assert.False(t, l.Empty())
}

func TestTrack_Flags(t *testing.T) {
	t.Parallel()

	tr := &Track{}
	tr.SetFlag(AreaPattern|AreaSearch, Selected)
	assert.True(t, tr.Selected())
	assert.Zero(t, tr.Flag&Selected)

	tr.ClearFlag(AreaAll, Selected)
	assert.False(t, tr.Selected())

	c := tr.Clone()
	c.Insert(marker(1, 0, 0))
	assert.Empty(t, tr.Markers)
}
