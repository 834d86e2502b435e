// Package warp draws a rectangular source buffer onto an arbitrary
// destination quadrilateral with correct perspective foreshortening.
//
// A true projective warp cannot be expressed with affine primitives alone,
// so the source rectangle is subdivided into a grid; each cell's corners are
// mapped through the homography and the cell is rendered as two affine
// triangles. The approximation error shrinks as the grid resolution grows.
package warp

import (
	"math"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
)

// DefaultGridSize balances perspective smoothness against per-cell cost.
// Lower values are visibly faceted near vanishing points.
const DefaultGridSize = 32

// Engine performs grid-subdivided projective warps.
type Engine struct {
	// GridSize is the N in the N x N source subdivision. Zero or negative
	// selects DefaultGridSize.
	GridSize int
}

// Draw renders src so that its four corners land on the corners of quad,
// writing into dst. Degenerate inputs (empty source, zero-area or collinear
// quad, singular homography) draw nothing; the pass is skipped rather than
// failed.
func (e Engine) Draw(dst, src *raster.Buffer, quad geometry.Quad) {
	if dst.Empty() || src.Empty() || quad.Degenerate() {
		return
	}
	srcW := float64(src.W)
	srcH := float64(src.H)
	srcQuad := geometry.Quad{
		{X: 0, Y: 0},
		{X: srcW, Y: 0},
		{X: srcW, Y: srcH},
		{X: 0, Y: srcH},
	}
	h, ok := geometry.SolveHomography(srcQuad, quad)
	if !ok {
		return
	}
	n := e.GridSize
	if n <= 0 {
		n = DefaultGridSize
	}
	for gy := 0; gy < n; gy++ {
		for gx := 0; gx < n; gx++ {
			sx0 := srcW * float64(gx) / float64(n)
			sx1 := srcW * float64(gx+1) / float64(n)
			sy0 := srcH * float64(gy) / float64(n)
			sy1 := srcH * float64(gy+1) / float64(n)

			s := [4]geometry.Point{
				{X: sx0, Y: sy0},
				{X: sx1, Y: sy0},
				{X: sx1, Y: sy1},
				{X: sx0, Y: sy1},
			}
			var d [4]geometry.Point
			valid := true
			for i, p := range s {
				x, y, ok := h.Apply(p.X, p.Y)
				if !ok {
					valid = false
					break
				}
				d[i] = geometry.Point{X: x, Y: y}
			}
			if !valid {
				continue
			}
			drawTriangle(dst, src, s[0], s[1], s[2], d[0], d[1], d[2])
			drawTriangle(dst, src, s[0], s[2], s[3], d[0], d[2], d[3])
		}
	}
}

// drawTriangle rasterizes the destination triangle (d0,d1,d2), sampling the
// source through the inverse affine map so each cell clips exactly to its
// own boundary and adjacent cells never overdraw each other.
func drawTriangle(dst, src *raster.Buffer, s0, s1, s2, d0, d1, d2 geometry.Point) {
	// Inverse mapping: destination triangle back to source coordinates.
	inv, ok := geometry.SolveAffine(d0, d1, d2, s0, s1, s2)
	if !ok {
		return
	}
	minX := clamp(int(math.Floor(min3(d0.X, d1.X, d2.X))), 0, dst.W-1)
	maxX := clamp(int(math.Ceil(max3(d0.X, d1.X, d2.X))), 0, dst.W-1)
	minY := clamp(int(math.Floor(min3(d0.Y, d1.Y, d2.Y))), 0, dst.H-1)
	maxY := clamp(int(math.Ceil(max3(d0.Y, d1.Y, d2.Y))), 0, dst.H-1)
	if minX > maxX || minY > maxY {
		return
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			py := float64(y) + 0.5
			if !inTriangle(px, py, d0, d1, d2) {
				continue
			}
			sx, sy := inv.Apply(px, py)
			r, g, b, a := src.BilinearRGBA(sx-0.5, sy-0.5)
			dst.SetRGBA(x, y, r, g, b, a)
		}
	}
}

func inTriangle(px, py float64, a, b, c geometry.Point) bool {
	e0 := edge(a, b, px, py)
	e1 := edge(b, c, px, py)
	e2 := edge(c, a, px, py)
	// Accept either winding; a small epsilon keeps shared cell edges covered
	// so the warped quad has no pinhole seams between triangles.
	const eps = 1e-7
	return (e0 >= -eps && e1 >= -eps && e2 >= -eps) ||
		(e0 <= eps && e1 <= eps && e2 <= eps)
}

func edge(a, b geometry.Point, px, py float64) float64 {
	return (b.X-a.X)*(py-a.Y) - (b.Y-a.Y)*(px-a.X)
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
