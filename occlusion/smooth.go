package occlusion

import "github.com/stevecastle/tileroom/raster"

// Smoothing defaults and bounds.
const (
	DefaultCloseRadius = 3
	MaxCloseRadius     = 5
	DefaultEdgeBlurPx  = 2
	MaxEdgeBlurPx      = 4
)

// SmoothOptions configures occlusion-mask cleanup.
type SmoothOptions struct {
	// CloseRadius is the morphological close radius in [1, 5], filling small
	// holes and noise. Zero selects DefaultCloseRadius; negative disables
	// the close.
	CloseRadius int

	// EdgeBlurPx is a box blur in [1, 4] applied after the close to soften
	// remaining hard edges. Zero selects DefaultEdgeBlurPx; negative
	// disables the blur.
	EdgeBlurPx int
}

// Smooth applies a morphological close (alpha max-filter dilate followed by
// a min-filter erode of the same radius) and an optional box blur to the
// mask. The input is not modified.
func Smooth(mask *raster.Buffer, opts SmoothOptions) *raster.Buffer {
	if mask.Empty() {
		return mask
	}
	radius := opts.CloseRadius
	if radius == 0 {
		radius = DefaultCloseRadius
	}
	if radius > MaxCloseRadius {
		radius = MaxCloseRadius
	}
	blur := opts.EdgeBlurPx
	if blur == 0 {
		blur = DefaultEdgeBlurPx
	}
	if blur > MaxEdgeBlurPx {
		blur = MaxEdgeBlurPx
	}
	out := mask
	if radius > 0 {
		out = out.Dilate(radius).Erode(radius)
	}
	if blur > 0 {
		out = out.BoxBlurAlpha(blur)
	}
	if out == mask {
		out = mask.Clone()
	}
	return out
}

// Combine intersects two equal-size masks: the tile shows only where both
// permit. Returns nil on size mismatch.
func Combine(a, b *raster.Buffer) *raster.Buffer {
	return raster.CombineMin(a, b)
}
