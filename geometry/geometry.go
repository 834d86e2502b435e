// Package geometry provides the planar primitives used by the compositing
// pipeline: points, quadrilaterals, and the projective/affine transform
// solvers that map a rectangular tile buffer onto a marked surface region.
package geometry

import "math"

// Point is a position in image space, origin top-left, y-down.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is an ordered 4-point simple polygon marking a planar surface in a
// photo. The UI places corners top-left, top-right, bottom-right, bottom-left
// for walls (near-left first for floors), but every routine here accepts any
// simple quadrilateral of either winding.
type Quad [4]Point

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y, W, H int
}

func cross(ox, oy, ax, ay, bx, by float64) float64 {
	return (ax-ox)*(by-oy) - (ay-oy)*(bx-ox)
}

// Area returns the absolute polygon area via the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() Point {
	var cx, cy float64
	for _, p := range q {
		cx += p.X
		cy += p.Y
	}
	return Point{X: cx / 4, Y: cy / 4}
}

// Degenerate reports whether the quad cannot be rendered: zero area or three
// (or more) collinear corners.
func (q Quad) Degenerate() bool {
	if q.Area() < 1e-9 {
		return true
	}
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		c := q[(i+2)%4]
		if math.Abs(cross(a.X, a.Y, b.X, b.Y, c.X, c.Y)) < 1e-9 {
			return true
		}
	}
	return false
}

// Contains reports whether p lies inside the quad, using same-sign cross
// products against all four edges. Both all-non-negative and all-non-positive
// are accepted so either winding works.
func (q Quad) Contains(p Point) bool {
	pos, neg := false, false
	for i := 0; i < 4; i++ {
		a := q[i]
		b := q[(i+1)%4]
		c := cross(a.X, a.Y, b.X, b.Y, p.X, p.Y)
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
	}
	return !(pos && neg)
}

// Inset returns a copy of the quad with each corner moved dist pixels toward
// the centroid. Used to pull a mask slightly inside the true boundary so
// warp anti-aliasing never bleeds past it.
func (q Quad) Inset(dist float64) Quad {
	if dist <= 0 {
		return q
	}
	c := q.Centroid()
	var out Quad
	for i, p := range q {
		dx := c.X - p.X
		dy := c.Y - p.Y
		n := math.Hypot(dx, dy)
		if n < 1e-9 {
			out[i] = p
			continue
		}
		out[i] = Point{X: p.X + dx/n*dist, Y: p.Y + dy/n*dist}
	}
	return out
}

// Bounds returns the integer axis-aligned bounding box of the quad.
func (q Quad) Bounds() Rect {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	x := int(math.Floor(minX))
	y := int(math.Floor(minY))
	return Rect{
		X: x,
		Y: y,
		W: int(math.Ceil(maxX)) - x,
		H: int(math.Ceil(maxY)) - y,
	}
}

// SizeMM is a physical size in millimeters. Tile repeat counts derive from
// the ratio of surface size to tile size; pixel sizes never enter into it.
type SizeMM struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s SizeMM) Valid() bool {
	return s.Width > 0 && s.Height > 0
}
