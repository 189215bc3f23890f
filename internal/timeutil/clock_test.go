package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	t.Parallel()
	clock := RealClock{}
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestRealClock_Since(t *testing.T) {
	t.Parallel()
	d := RealClock{}.Since(time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, d, time.Second)
}

func TestMockClock_NowAndSet(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(fixed)
	assert.True(t, clock.Now().Equal(fixed))

	later := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock.Set(later)
	assert.True(t, clock.Now().Equal(later))
}

func TestMockClock_Advance(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)
	clock.Advance(90 * time.Second)

	assert.Equal(t, 90*time.Second, clock.Since(start))
}

func TestMockClock_SleepAdvancesAndRecords(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	clock.Sleep(10 * time.Millisecond)
	clock.Sleep(20 * time.Millisecond)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, clock.Sleeps())
	assert.Equal(t, 30*time.Millisecond, clock.Since(start))
}

func TestClockInterface(t *testing.T) {
	t.Parallel()
	var _ Clock = RealClock{}
	var _ Clock = (*MockClock)(nil)
}
