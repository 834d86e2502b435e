// Package raster implements the pixel-buffer model shared by the whole
// pipeline: interleaved 8-bit RGBA rasters, bilinear sampling, blurs, and
// the blend passes (multiply, screen, overlay, destination-in) the pattern
// renderer and compositor are built from.
//
// Masks are ordinary buffers by convention: RGB is held white and the alpha
// channel encodes "show tile" strength, 0 fully hidden through 255 fully
// shown. A mask always has the same dimensions as the buffer it clips.
package raster

import (
	"image"
	"image/color"
)

// Buffer is a width x height raster with 4 interleaved channels (R,G,B,A),
// 8 bits per channel. Pix holds rows top to bottom with no padding.
type Buffer struct {
	W, H int
	Pix  []uint8
}

// New returns a zeroed (fully transparent) buffer. Non-positive dimensions
// yield an empty buffer that every operation treats as "nothing to do".
func New(w, h int) *Buffer {
	if w <= 0 || h <= 0 {
		return &Buffer{}
	}
	return &Buffer{W: w, H: h, Pix: make([]uint8, w*h*4)}
}

// NewMask returns a buffer with RGB white and the given uniform alpha.
func NewMask(w, h int, alpha uint8) *Buffer {
	b := New(w, h)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = 255
		b.Pix[i+1] = 255
		b.Pix[i+2] = 255
		b.Pix[i+3] = alpha
	}
	return b
}

// Empty reports whether the buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b == nil || b.W <= 0 || b.H <= 0
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	if b.Empty() {
		return &Buffer{}
	}
	out := &Buffer{W: b.W, H: b.H, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// SameSize reports whether both buffers share dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b != nil && o != nil && b.W == o.W && b.H == o.H
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.W + x) * 4
}

// RGBA returns the pixel at (x, y). Out-of-bounds reads return zero.
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	i := b.offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// SetRGBA writes the pixel at (x, y). Out-of-bounds writes are dropped.
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	i := b.offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// Alpha returns the alpha channel at (x, y), zero out of bounds.
func (b *Buffer) Alpha(x, y int) uint8 {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return 0
	}
	return b.Pix[b.offset(x, y)+3]
}

// SetAlpha writes only the alpha channel at (x, y).
func (b *Buffer) SetAlpha(x, y int, a uint8) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.Pix[b.offset(x, y)+3] = a
}

// FromImage converts any image.Image into a Buffer.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	out := New(bounds.Dx(), bounds.Dy())
	if out.Empty() {
		return out
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == bounds.Dx()*4 {
		copy(out.Pix, rgba.Pix)
		return out
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
			i += 4
		}
	}
	return out
}

// ToImage converts the buffer into an *image.RGBA sharing no storage.
func (b *Buffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.W, b.H))
	if !b.Empty() {
		copy(img.Pix, b.Pix)
	}
	return img
}

// Crop returns the sub-rectangle [x, x+w) x [y, y+h) as a new buffer.
// The region is clipped to the source; an empty intersection returns an
// empty buffer.
func (b *Buffer) Crop(x, y, w, h int) *Buffer {
	if b.Empty() {
		return &Buffer{}
	}
	x0 := max(x, 0)
	y0 := max(y, 0)
	x1 := min(x+w, b.W)
	y1 := min(y+h, b.H)
	if x0 >= x1 || y0 >= y1 {
		return &Buffer{}
	}
	out := New(x1-x0, y1-y0)
	for row := y0; row < y1; row++ {
		src := b.offset(x0, row)
		dst := out.offset(0, row-y0)
		copy(out.Pix[dst:dst+out.W*4], b.Pix[src:src+out.W*4])
	}
	return out
}

// BilinearRGBA samples the buffer at fractional coordinates with bilinear
// weights, clamping to the edge.
func (b *Buffer) BilinearRGBA(x, y float64) (r, g, bl, a uint8) {
	if b.Empty() {
		return
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > float64(b.W-1) {
		x = float64(b.W - 1)
	}
	if y > float64(b.H-1) {
		y = float64(b.H - 1)
	}
	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, b.W-1)
	y1 := min(y0+1, b.H-1)
	fx := x - float64(x0)
	fy := y - float64(y0)
	i00 := b.offset(x0, y0)
	i10 := b.offset(x1, y0)
	i01 := b.offset(x0, y1)
	i11 := b.offset(x1, y1)
	lerp := func(c int) uint8 {
		top := float64(b.Pix[i00+c])*(1-fx) + float64(b.Pix[i10+c])*fx
		bot := float64(b.Pix[i01+c])*(1-fx) + float64(b.Pix[i11+c])*fx
		v := top*(1-fy) + bot*fy
		return uint8(v + 0.5)
	}
	return lerp(0), lerp(1), lerp(2), lerp(3)
}

// Luminance returns the Rec.601 luma of the pixel at (x, y).
func (b *Buffer) Luminance(x, y int) uint8 {
	r, g, bl, _ := b.RGBA(x, y)
	return Luma(r, g, bl)
}

// Luma computes 0.299R + 0.587G + 0.114B rounded to the nearest byte.
func Luma(r, g, b uint8) uint8 {
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
}

// Grayscale returns an opaque buffer whose channels all hold the source
// luminance.
func (b *Buffer) Grayscale() *Buffer {
	out := New(b.W, b.H)
	for i := 0; i < len(b.Pix); i += 4 {
		l := Luma(b.Pix[i], b.Pix[i+1], b.Pix[i+2])
		out.Pix[i] = l
		out.Pix[i+1] = l
		out.Pix[i+2] = l
		out.Pix[i+3] = 255
	}
	return out
}

// Draw copies src onto b at (dx, dy) with source-over semantics on straight
// alpha. Fully opaque source pixels overwrite; transparent ones blend.
func (b *Buffer) Draw(src *Buffer, dx, dy int) {
	if b.Empty() || src.Empty() {
		return
	}
	for y := 0; y < src.H; y++ {
		ty := y + dy
		if ty < 0 || ty >= b.H {
			continue
		}
		for x := 0; x < src.W; x++ {
			tx := x + dx
			if tx < 0 || tx >= b.W {
				continue
			}
			si := src.offset(x, y)
			sa := src.Pix[si+3]
			if sa == 0 {
				continue
			}
			di := b.offset(tx, ty)
			if sa == 255 {
				copy(b.Pix[di:di+4], src.Pix[si:si+4])
				continue
			}
			a := float64(sa) / 255
			for c := 0; c < 3; c++ {
				b.Pix[di+c] = uint8(float64(src.Pix[si+c])*a + float64(b.Pix[di+c])*(1-a) + 0.5)
			}
			da := float64(b.Pix[di+3]) / 255
			b.Pix[di+3] = uint8((a + da*(1-a)) * 255)
		}
	}
}
