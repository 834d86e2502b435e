// Package lighting derives grayscale shading layers from the room photo so
// a rendered tile inherits the room's light falloff and shadows. The main
// extractor produces a multiply layer; the specular extractor isolates
// highlights for an optional low-opacity screen pass.
package lighting

import (
	"sort"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
)

// Defaults for the multiply-layer extraction.
const (
	// DefaultBlurPx is the smoothing radius in pixels applied to the
	// luminance field. It is halved internally and clamped to [1, 50].
	DefaultBlurPx = 40

	// DefaultFloor is the lower bound of the remapped output range so the
	// multiply pass never fully blackens the tile.
	DefaultFloor = 110

	// DefaultWallThreshold is the occlusion-mask alpha below which a pixel is
	// treated as foreground object rather than true surface.
	DefaultWallThreshold = 128
)

// Options configures the multiply-layer extractor.
type Options struct {
	// BlurPx is the Gaussian smoothing radius in pixels before halving and
	// clamping. Zero selects DefaultBlurPx.
	BlurPx int

	// Floor is the minimum output value after normalization, in [0, 255].
	// Zero selects DefaultFloor.
	Floor int

	// WallThreshold separates true-surface from foreground pixels in the
	// occlusion mask. Zero selects DefaultWallThreshold.
	WallThreshold int
}

// Extract crops the room photo to the quad's bounding box and converts it
// into a grayscale multiply layer.
//
// When an occlusion mask is supplied, pixels the mask classifies as
// foreground are replaced with the median luminance of the true-surface
// pixels before blurring. That keeps foreground-object silhouettes from
// baking into the lighting layer as false shadows; the cost is that genuine
// contact shadows under furniture are flattened too, which the smoothed
// occlusion mask already accounts for by hiding the tile there.
//
// The blurred field is normalized to its observed min/max and remapped into
// [floor, 255]. Returns nil when the bounding box contains no pixels.
func Extract(room *raster.Buffer, bbox geometry.Rect, occlusionMask *raster.Buffer, opts Options) *raster.Buffer {
	if room.Empty() || bbox.W <= 0 || bbox.H <= 0 {
		return nil
	}
	crop := room.Crop(bbox.X, bbox.Y, bbox.W, bbox.H)
	if crop.Empty() {
		return nil
	}
	blurPx := opts.BlurPx
	if blurPx <= 0 {
		blurPx = DefaultBlurPx
	}
	radius := blurPx / 2
	if radius < 1 {
		radius = 1
	}
	if radius > 50 {
		radius = 50
	}
	floor := opts.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}
	if floor > 255 {
		floor = 255
	}
	wallThreshold := opts.WallThreshold
	if wallThreshold <= 0 {
		wallThreshold = DefaultWallThreshold
	}

	lum := make([]uint8, crop.W*crop.H)
	for y := 0; y < crop.H; y++ {
		for x := 0; x < crop.W; x++ {
			lum[y*crop.W+x] = crop.Luminance(x, y)
		}
	}

	if occlusionMask != nil && !occlusionMask.Empty() {
		surface := make([]uint8, 0, len(lum))
		for y := 0; y < crop.H; y++ {
			for x := 0; x < crop.W; x++ {
				if int(occlusionMask.Alpha(bbox.X+x, bbox.Y+y)) >= wallThreshold {
					surface = append(surface, lum[y*crop.W+x])
				}
			}
		}
		if len(surface) > 0 {
			sort.Slice(surface, func(i, j int) bool { return surface[i] < surface[j] })
			median := surface[len(surface)/2]
			for y := 0; y < crop.H; y++ {
				for x := 0; x < crop.W; x++ {
					if int(occlusionMask.Alpha(bbox.X+x, bbox.Y+y)) < wallThreshold {
						lum[y*crop.W+x] = median
					}
				}
			}
		}
	}

	gray := raster.New(crop.W, crop.H)
	for i, l := range lum {
		gray.Pix[i*4] = l
		gray.Pix[i*4+1] = l
		gray.Pix[i*4+2] = l
		gray.Pix[i*4+3] = 255
	}
	blurred := gray.GaussianBlur(radius)

	// Normalize observed range, then remap into [floor, 255].
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(blurred.Pix); i += 4 {
		v := blurred.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := float64(hi) - float64(lo)
	scale := (255.0 - float64(floor)) / 255.0
	for i := 0; i < len(blurred.Pix); i += 4 {
		norm := 255.0
		if span > 0 {
			norm = (float64(blurred.Pix[i]) - float64(lo)) / span * 255
		}
		v := uint8(float64(floor) + norm*scale + 0.5)
		blurred.Pix[i] = v
		blurred.Pix[i+1] = v
		blurred.Pix[i+2] = v
		blurred.Pix[i+3] = 255
	}
	return blurred
}

// Specular defaults.
const (
	DefaultSpecularThreshold = 180
	DefaultSpecularBlurPx    = 8
	DefaultSpecularOpacity   = 0.3
)

// Specular isolates pixels brighter than threshold, scales their excess
// linearly to the full byte range, and blurs lightly. The result is meant
// for an additive or screen blend gloss pass at low opacity. Returns nil for
// an empty bounding box.
func Specular(room *raster.Buffer, bbox geometry.Rect, threshold int) *raster.Buffer {
	if room.Empty() || bbox.W <= 0 || bbox.H <= 0 {
		return nil
	}
	crop := room.Crop(bbox.X, bbox.Y, bbox.W, bbox.H)
	if crop.Empty() {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultSpecularThreshold
	}
	if threshold > 254 {
		threshold = 254
	}
	out := raster.New(crop.W, crop.H)
	scale := 255.0 / float64(255-threshold)
	for y := 0; y < crop.H; y++ {
		for x := 0; x < crop.W; x++ {
			l := int(crop.Luminance(x, y))
			var v uint8
			if l > threshold {
				v = uint8(float64(l-threshold)*scale + 0.5)
			}
			i := (y*out.W + x) * 4
			out.Pix[i] = v
			out.Pix[i+1] = v
			out.Pix[i+2] = v
			out.Pix[i+3] = 255
		}
	}
	return out.GaussianBlur(DefaultSpecularBlurPx)
}
