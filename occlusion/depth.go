package occlusion

import (
	"math"
	"sort"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
)

// DefaultDepthTolerance is the fraction of the reference wall depth used as
// the classification band half-width.
const DefaultDepthTolerance = 0.15

// DepthMap holds per-pixel depth samples at the model's own resolution,
// generally lower than the output. The relationship to output pixels is a
// plain scale factor; samples are read bilinearly. A DepthMap is consumed by
// a single occlusion computation and not retained.
type DepthMap struct {
	W, H int
	Data []float32
}

// Valid reports whether the map has usable dimensions and storage.
func (d *DepthMap) Valid() bool {
	return d != nil && d.W > 0 && d.H > 0 && len(d.Data) >= d.W*d.H
}

// Bilinear samples the depth field at fractional map coordinates, clamped to
// the edge.
func (d *DepthMap) Bilinear(x, y float64) float64 {
	if !d.Valid() {
		return 0
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > float64(d.W-1) {
		x = float64(d.W - 1)
	}
	if y > float64(d.H-1) {
		y = float64(d.H - 1)
	}
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= d.W {
		x1 = d.W - 1
	}
	if y1 >= d.H {
		y1 = d.H - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	top := float64(d.Data[y0*d.W+x0])*(1-fx) + float64(d.Data[y0*d.W+x1])*fx
	bot := float64(d.Data[y1*d.W+x0])*(1-fx) + float64(d.Data[y1*d.W+x1])*fx
	return top*(1-fy) + bot*fy
}

// DepthOptions configures depth-based occlusion classification.
type DepthOptions struct {
	// TolerancePercent is the band half-width as a fraction of the reference
	// depth. Zero selects DefaultDepthTolerance.
	TolerancePercent float64

	// HigherIsCloser declares the depth model's convention. Model conventions
	// vary and cannot be inferred reliably, so this stays a caller-visible
	// flag (it maps to a user-facing toggle upstream).
	HigherIsCloser bool
}

// DepthMask classifies every output pixel as wall (alpha 255) or foreground
// (alpha 0) against a reference plane depth.
//
// The reference wallDepth is the median of five bilinear samples taken at
// the quad corners and centroid. A pixel is foreground only when it is
// closer to the camera than wallDepth by more than
// delta = max(1e-5, |wallDepth| * tolerance); the HigherIsCloser flag
// selects which comparison direction "closer" means. Pixels at or behind the
// reference plane cannot occlude it and stay classified as wall.
func DepthMask(depth *DepthMap, outW, outH int, quad geometry.Quad, opts DepthOptions) *raster.Buffer {
	if !depth.Valid() || outW <= 0 || outH <= 0 {
		return nil
	}
	tol := opts.TolerancePercent
	if tol <= 0 {
		tol = DefaultDepthTolerance
	}
	scaleX := float64(depth.W) / float64(outW)
	scaleY := float64(depth.H) / float64(outH)

	centroid := quad.Centroid()
	refPoints := []geometry.Point{quad[0], quad[1], quad[2], quad[3], centroid}
	samples := make([]float64, 0, len(refPoints))
	for _, p := range refPoints {
		samples = append(samples, depth.Bilinear(p.X*scaleX, p.Y*scaleY))
	}
	sort.Float64s(samples)
	wallDepth := samples[len(samples)/2]
	delta := math.Max(1e-5, math.Abs(wallDepth)*tol)

	mask := raster.NewMask(outW, outH, 0)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			d := depth.Bilinear((float64(x)+0.5)*scaleX, (float64(y)+0.5)*scaleY)
			wall := true
			if opts.HigherIsCloser {
				wall = d <= wallDepth+delta
			} else {
				wall = d >= wallDepth-delta
			}
			if wall {
				mask.SetAlpha(x, y, 255)
			}
		}
	}
	return mask
}

// ClassGrid is a per-pixel class-id raster produced by an external semantic
// segmentation collaborator, at its own resolution.
type ClassGrid struct {
	W, H    int
	Classes []uint8
}

// Valid reports whether the grid has usable dimensions and storage.
func (g *ClassGrid) Valid() bool {
	return g != nil && g.W > 0 && g.H > 0 && len(g.Classes) >= g.W*g.H
}

// SegmentationMask resamples the class grid to output resolution with
// nearest-neighbor lookup and sets alpha 255 where the class id equals
// target, else 0.
func SegmentationMask(grid *ClassGrid, outW, outH int, target uint8) *raster.Buffer {
	if !grid.Valid() || outW <= 0 || outH <= 0 {
		return nil
	}
	mask := raster.NewMask(outW, outH, 0)
	for y := 0; y < outH; y++ {
		gy := y * grid.H / outH
		for x := 0; x < outW; x++ {
			gx := x * grid.W / outW
			if grid.Classes[gy*grid.W+gx] == target {
				mask.SetAlpha(x, y, 255)
			}
		}
	}
	return mask
}
