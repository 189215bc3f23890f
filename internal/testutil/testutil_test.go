package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

func TestAssertHelpers(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	assert.False(t, fakeT.Failed())
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	assert.False(t, fakeT.Failed())
}

func TestTexture_Deterministic(t *testing.T) {
	t.Parallel()

	a := Texture(8, 8, 3)
	b := Texture(8, 8, 3)
	c := Texture(8, 8, 4)
	assert.Equal(t, a.Float, b.Float)
	assert.NotEqual(t, a.Float, c.Float)
}

func TestMovingSequence_Translates(t *testing.T) {
	t.Parallel()

	p := MovingSequence(32, 24, 1, 5, 2, -1, 9)
	ctx := context.Background()

	f1, err := p.Acquire(ctx, 1)
	require.NoError(t, err)
	f3, err := p.Acquire(ctx, 3)
	require.NoError(t, err)

	// content at (10, 10) on frame 1 sits at (14, 8) two frames later
	assert.Equal(t, f1.RGBA(10, 10), f3.RGBA(14, 8))
	assert.Equal(t, 1, p.Requests(1))

	_, err = p.Acquire(ctx, 6)
	assert.ErrorIs(t, err, imbuf.ErrFrameUnavailable)
}

func TestProvider_ConcurrentAcquire(t *testing.T) {
	t.Parallel()

	p := NewProvider(4, 4)
	p.Set(1, imbuf.NewFloat(4, 4))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := p.Acquire(context.Background(), 1)
			if assert.NoError(t, err) {
				b.Float[0] = 1
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, p.Requests(1))

	p.Remove(1)
	_, err := p.Acquire(context.Background(), 1)
	assert.ErrorIs(t, err, imbuf.ErrFrameUnavailable)
}
