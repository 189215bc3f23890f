package imbuf

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
)

// ErrFrameUnavailable is returned by a Provider when the requested frame
// cannot be loaded.
var ErrFrameUnavailable = errors.New("frame unavailable")

// Provider supplies frame buffers by frame number. Buffers are owned by the
// caller and are not cached by the engine. Acquire may be called from
// several goroutines at once.
type Provider interface {
	Acquire(ctx context.Context, frame int) (*ImBuf, error)
	FrameSize() (w, h int)
}

// ImBuf is an RGBA image buffer. Exactly one of Float and Byte is set.
// Row 0 is the bottom row of the image so that pixel y grows with unified y.
type ImBuf struct {
	W, H  int
	Float []float32 // 4 floats per pixel, 0..1
	Byte  []uint8   // 4 bytes per pixel
}

// NewFloat allocates a zeroed float buffer.
func NewFloat(w, h int) *ImBuf {
	return &ImBuf{W: w, H: h, Float: make([]float32, w*h*4)}
}

// NewByte allocates a zeroed byte buffer.
func NewByte(w, h int) *ImBuf {
	return &ImBuf{W: w, H: h, Byte: make([]uint8, w*h*4)}
}

// IsFloat reports whether the buffer stores float pixels.
func (b *ImBuf) IsFloat() bool { return b.Float != nil }

// Clone returns a deep copy of b.
func (b *ImBuf) Clone() *ImBuf {
	c := &ImBuf{W: b.W, H: b.H}
	if b.Float != nil {
		c.Float = append([]float32(nil), b.Float...)
	}
	if b.Byte != nil {
		c.Byte = append([]uint8(nil), b.Byte...)
	}
	return c
}

// NewLike allocates a zeroed buffer of the same size and storage as b.
func (b *ImBuf) NewLike() *ImBuf {
	if b.IsFloat() {
		return NewFloat(b.W, b.H)
	}
	return NewByte(b.W, b.H)
}

// RGBA returns pixel (x, y) as floats in 0..1. Out of range pixels are
// transparent black.
func (b *ImBuf) RGBA(x, y int) [4]float32 {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return [4]float32{}
	}
	i := (y*b.W + x) * 4
	if b.Float != nil {
		return [4]float32{b.Float[i], b.Float[i+1], b.Float[i+2], b.Float[i+3]}
	}
	return [4]float32{
		float32(b.Byte[i]) / 255,
		float32(b.Byte[i+1]) / 255,
		float32(b.Byte[i+2]) / 255,
		float32(b.Byte[i+3]) / 255,
	}
}

// SetRGBA stores pixel (x, y). Out of range writes are ignored.
func (b *ImBuf) SetRGBA(x, y int, p [4]float32) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	i := (y*b.W + x) * 4
	if b.Float != nil {
		copy(b.Float[i:i+4], p[:])
		return
	}
	for c := 0; c < 4; c++ {
		b.Byte[i+c] = toByte(p[c])
	}
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// RectCopy copies a w*h block whose bottom-left corner is (x, y) in src into
// dst at its origin. Pixels outside src are left zero.
func RectCopy(dst, src *ImBuf, x, y, w, h int) {
	for j := 0; j < h; j++ {
		sy := y + j
		if sy < 0 || sy >= src.H || j >= dst.H {
			continue
		}
		for i := 0; i < w; i++ {
			sx := x + i
			if sx < 0 || sx >= src.W || i >= dst.W {
				continue
			}
			si := (sy*src.W + sx) * 4
			di := (j*dst.W + i) * 4
			switch {
			case src.Float != nil && dst.Float != nil:
				copy(dst.Float[di:di+4], src.Float[si:si+4])
			case src.Byte != nil && dst.Byte != nil:
				copy(dst.Byte[di:di+4], src.Byte[si:si+4])
			default:
				dst.SetRGBA(i, j, src.RGBA(sx, sy))
			}
		}
	}
}

// FromImage converts img into a byte buffer, flipping rows so that row 0 is
// the bottom of the image.
func FromImage(img image.Image) *ImBuf {
	r := img.Bounds()
	b := NewByte(r.Dx(), r.Dy())
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Max.Y-1-y)).(color.NRGBA)
			i := (y*b.W + x) * 4
			b.Byte[i], b.Byte[i+1], b.Byte[i+2], b.Byte[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return b
}

// ToImage converts b into a top-down NRGBA image.
func (b *ImBuf) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.W, b.H))
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			p := b.RGBA(x, y)
			o := img.PixOffset(x, b.H-1-y)
			img.Pix[o] = toByte(p[0])
			img.Pix[o+1] = toByte(p[1])
			img.Pix[o+2] = toByte(p[2])
			img.Pix[o+3] = toByte(p[3])
		}
	}
	return img
}

// Bilinear samples b at the continuous pixel position (u, v) where integer
// coordinates address pixel centers.
func (b *ImBuf) Bilinear(u, v float64) [4]float32 {
	x0 := int(math.Floor(u))
	y0 := int(math.Floor(v))
	fx := float32(u - float64(x0))
	fy := float32(v - float64(y0))

	p00 := b.RGBA(x0, y0)
	p10 := b.RGBA(x0+1, y0)
	p01 := b.RGBA(x0, y0+1)
	p11 := b.RGBA(x0+1, y0+1)

	var out [4]float32
	for c := 0; c < 4; c++ {
		top := p00[c]*(1-fx) + p10[c]*fx
		bot := p01[c]*(1-fx) + p11[c]*fx
		out[c] = top*(1-fy) + bot*fy
	}
	return out
}
