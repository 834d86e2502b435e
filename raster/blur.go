package raster

import "math"

// BoxBlurAlpha box-blurs only the alpha channel with the given radius,
// returning a new buffer. RGB channels are copied through untouched, which
// preserves the white-RGB mask convention. Radius <= 0 returns a clone.
func (b *Buffer) BoxBlurAlpha(radius int) *Buffer {
	if b.Empty() || radius <= 0 {
		return b.Clone()
	}
	tmp := make([]float64, b.W*b.H)
	out := b.Clone()
	window := float64(2*radius + 1)

	// Horizontal pass with a running sum, clamped at the edges.
	for y := 0; y < b.H; y++ {
		var sum float64
		for x := -radius; x <= radius; x++ {
			sum += float64(b.Alpha(clampInt(x, 0, b.W-1), y))
		}
		for x := 0; x < b.W; x++ {
			tmp[y*b.W+x] = sum / window
			lead := clampInt(x+radius+1, 0, b.W-1)
			trail := clampInt(x-radius, 0, b.W-1)
			sum += float64(b.Alpha(lead, y)) - float64(b.Alpha(trail, y))
		}
	}
	// Vertical pass over the horizontal result.
	at := func(x, y int) float64 { return tmp[clampInt(y, 0, b.H-1)*b.W+x] }
	for x := 0; x < b.W; x++ {
		var sum float64
		for y := -radius; y <= radius; y++ {
			sum += at(x, y)
		}
		for y := 0; y < b.H; y++ {
			out.Pix[out.offset(x, y)+3] = uint8(sum/window + 0.5)
			sum += at(x, y+radius+1) - at(x, y-radius)
		}
	}
	return out
}

// BoxBlur box-blurs all four channels with the given radius.
func (b *Buffer) BoxBlur(radius int) *Buffer {
	if b.Empty() || radius <= 0 {
		return b.Clone()
	}
	out := b.Clone()
	tmp := make([]float64, b.W*b.H*4)
	window := float64(2*radius + 1)
	for y := 0; y < b.H; y++ {
		var sum [4]float64
		for x := -radius; x <= radius; x++ {
			i := b.offset(clampInt(x, 0, b.W-1), y)
			for c := 0; c < 4; c++ {
				sum[c] += float64(b.Pix[i+c])
			}
		}
		for x := 0; x < b.W; x++ {
			o := (y*b.W + x) * 4
			for c := 0; c < 4; c++ {
				tmp[o+c] = sum[c] / window
			}
			li := b.offset(clampInt(x+radius+1, 0, b.W-1), y)
			ti := b.offset(clampInt(x-radius, 0, b.W-1), y)
			for c := 0; c < 4; c++ {
				sum[c] += float64(b.Pix[li+c]) - float64(b.Pix[ti+c])
			}
		}
	}
	at := func(x, y, c int) float64 { return tmp[(clampInt(y, 0, b.H-1)*b.W+x)*4+c] }
	for x := 0; x < b.W; x++ {
		var sum [4]float64
		for y := -radius; y <= radius; y++ {
			for c := 0; c < 4; c++ {
				sum[c] += at(x, y, c)
			}
		}
		for y := 0; y < b.H; y++ {
			o := out.offset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[o+c] = uint8(sum[c]/window + 0.5)
				sum[c] += at(x, y+radius+1, c) - at(x, y-radius, c)
			}
		}
	}
	return out
}

// GaussianKernel builds a normalized 1D Gaussian kernel for the given pixel
// radius, sigma = radius/2 (clamped to a minimum of 0.5).
func GaussianKernel(radius int) []float64 {
	if radius < 1 {
		radius = 1
	}
	sigma := math.Max(float64(radius)/2, 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur applies a separable Gaussian blur to all channels.
// Two passes: rows convolved into a scratch buffer, then columns into the
// result. Radius <= 0 returns a clone.
func (b *Buffer) GaussianBlur(radius int) *Buffer {
	if b.Empty() || radius <= 0 {
		return b.Clone()
	}
	kernel := GaussianKernel(radius)
	tmp := make([]float64, b.W*b.H*4)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			var acc [4]float64
			for k := -radius; k <= radius; k++ {
				i := b.offset(clampInt(x+k, 0, b.W-1), y)
				w := kernel[k+radius]
				for c := 0; c < 4; c++ {
					acc[c] += float64(b.Pix[i+c]) * w
				}
			}
			o := (y*b.W + x) * 4
			copy(tmp[o:o+4], acc[:])
		}
	}
	out := New(b.W, b.H)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			var acc [4]float64
			for k := -radius; k <= radius; k++ {
				i := (clampInt(y+k, 0, b.H-1)*b.W + x) * 4
				w := kernel[k+radius]
				for c := 0; c < 4; c++ {
					acc[c] += tmp[i+c] * w
				}
			}
			o := out.offset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[o+c] = uint8(acc[c] + 0.5)
			}
		}
	}
	return out
}

// Dilate applies a max filter of the given radius to the alpha channel,
// RGB copied through. Used as one half of a morphological close.
func (b *Buffer) Dilate(radius int) *Buffer {
	return b.rankFilterAlpha(radius, true)
}

// Erode applies a min filter of the given radius to the alpha channel.
func (b *Buffer) Erode(radius int) *Buffer {
	return b.rankFilterAlpha(radius, false)
}

func (b *Buffer) rankFilterAlpha(radius int, isMax bool) *Buffer {
	if b.Empty() || radius <= 0 {
		return b.Clone()
	}
	// Separable: a square structuring element factors into a horizontal then
	// vertical 1D pass.
	tmp := make([]uint8, b.W*b.H)
	out := b.Clone()
	pick := func(a, bv uint8) uint8 {
		if isMax == (a > bv) {
			return a
		}
		return bv
	}
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			v := b.Alpha(x, y)
			for k := 1; k <= radius; k++ {
				if x-k >= 0 {
					v = pick(v, b.Alpha(x-k, y))
				}
				if x+k < b.W {
					v = pick(v, b.Alpha(x+k, y))
				}
			}
			tmp[y*b.W+x] = v
		}
	}
	for x := 0; x < b.W; x++ {
		for y := 0; y < b.H; y++ {
			v := tmp[y*b.W+x]
			for k := 1; k <= radius; k++ {
				if y-k >= 0 {
					v = pick(v, tmp[(y-k)*b.W+x])
				}
				if y+k < b.H {
					v = pick(v, tmp[(y+k)*b.W+x])
				}
			}
			out.Pix[out.offset(x, y)+3] = v
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
