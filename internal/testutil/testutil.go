// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic footage used by the tracking engine
// tests: deterministic textures, translating frame sequences and an
// in-memory frame provider.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/banshee-data/motiontrack/internal/tracking/imbuf"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Texture returns a w x h float frame of seeded gray noise.
func Texture(w, h int, seed int64) *imbuf.ImBuf {
	r := rand.New(rand.NewSource(seed))
	b := imbuf.NewFloat(w, h)
	for i := 0; i < w*h; i++ {
		v := r.Float32()
		copy(b.Float[i*4:], []float32{v, v, v, 1})
	}
	return b
}

// Window copies the w x h window of src with its lower-left corner at
// (x, y). Pixels outside src are transparent black.
func Window(src *imbuf.ImBuf, x, y, w, h int) *imbuf.ImBuf {
	out := imbuf.NewFloat(w, h)
	imbuf.RectCopy(out, src, x, y, w, h)
	return out
}

// Provider serves frames from memory. It is safe for concurrent use and
// records how often each frame was requested.
type Provider struct {
	W, H int

	mu       sync.Mutex
	frames   map[int]*imbuf.ImBuf
	requests map[int]int
}

// NewProvider returns an empty provider for w x h frames.
func NewProvider(w, h int) *Provider {
	return &Provider{W: w, H: h, frames: make(map[int]*imbuf.ImBuf), requests: make(map[int]int)}
}

// Set stores the buffer for frame.
func (p *Provider) Set(frame int, b *imbuf.ImBuf) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames[frame] = b
}

// Remove drops frame so later requests fail.
func (p *Provider) Remove(frame int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.frames, frame)
}

// Requests returns how many times frame was acquired.
func (p *Provider) Requests(frame int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[frame]
}

// Acquire implements imbuf.Provider. Callers receive their own copy.
func (p *Provider) Acquire(ctx context.Context, frame int) (*imbuf.ImBuf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests[frame]++
	b, ok := p.frames[frame]
	if !ok {
		return nil, fmt.Errorf("frame %d: %w", frame, imbuf.ErrFrameUnavailable)
	}
	return b.Clone(), nil
}

// FrameSize implements imbuf.Provider.
func (p *Provider) FrameSize() (int, int) { return p.W, p.H }

// MovingSequence returns frames first..last of w x h footage in which the
// whole picture translates by (vx, vy) pixels per frame.
func MovingSequence(w, h, first, last, vx, vy int, seed int64) *Provider {
	n := last - first
	padX := abs(vx) * n
	padY := abs(vy) * n
	base := Texture(w+2*padX, h+2*padY, seed)

	p := NewProvider(w, h)
	for f := first; f <= last; f++ {
		k := f - first
		p.Set(f, Window(base, padX-vx*k, padY-vy*k, w, h))
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
