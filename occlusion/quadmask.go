// Package occlusion builds the single-channel masks that decide where a
// rendered tile is allowed to show: the feathered quad-boundary mask, and an
// occlusion mask derived from depth, semantic segmentation, or edge
// detection, in that priority order.
//
// Masks follow the raster convention: RGB white, alpha 0 = tile hidden,
// alpha 255 = tile fully shown, dimensions always equal to the output
// buffer.
package occlusion

import (
	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
)

// Default feather in pixels for wall and floor surfaces. Floors get a wider
// ramp because their quad edges sit closer to high-contrast skirting lines.
const (
	DefaultWallFeatherPx  = 5
	DefaultFloorFeatherPx = 8
)

// QuadMask rasterizes a hard inside/outside mask for the quad at the given
// output size. insetPx moves each corner toward the centroid first, so that
// warp anti-aliasing never bleeds alpha past the true boundary.
func QuadMask(w, h int, quad geometry.Quad, insetPx float64) *raster.Buffer {
	mask := raster.NewMask(w, h, 0)
	if mask.Empty() || quad.Degenerate() {
		return mask
	}
	q := quad.Inset(insetPx)
	bounds := q.Bounds()
	y0 := clampInt(bounds.Y, 0, h)
	y1 := clampInt(bounds.Y+bounds.H+1, 0, h)
	x0 := clampInt(bounds.X, 0, w)
	x1 := clampInt(bounds.X+bounds.W+1, 0, w)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if q.Contains(geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}) {
				mask.SetAlpha(x, y, 255)
			}
		}
	}
	return mask
}

// FeatheredQuadMask builds the hard quad mask and blurs its boundary into a
// smooth alpha ramp with a box blur of radius max(1, featherPx/2).
func FeatheredQuadMask(w, h int, quad geometry.Quad, featherPx int, insetPx float64) *raster.Buffer {
	mask := QuadMask(w, h, quad, insetPx)
	if mask.Empty() {
		return mask
	}
	radius := featherPx / 2
	if radius < 1 {
		radius = 1
	}
	return mask.BoxBlurAlpha(radius)
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
