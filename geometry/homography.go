package geometry

import "math"

// Homography is a 3x3 projective transform stored row-major with H[8]
// normalized to 1. It has 8 degrees of freedom, fixed by a four-point
// correspondence.
type Homography [9]float64

// SolveHomography computes the homography mapping src[i] -> dst[i] for the
// four correspondences, by solving the standard 8x8 linear system with
// Gaussian elimination and partial pivoting. ok is false when the system is
// singular (degenerate quad); callers skip the render pass in that case.
func SolveHomography(src, dst Quad) (Homography, bool) {
	var a [8][8]float64
	var b [8]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		r := 2 * i
		// x' = (h0 sx + h1 sy + h2) / (h6 sx + h7 sy + 1)
		a[r] = [8]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx}
		b[r] = dx
		// y' = (h3 sx + h4 sy + h5) / (h6 sx + h7 sy + 1)
		a[r+1] = [8]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy}
		b[r+1] = dy
	}
	h, ok := solve8x8(a, b)
	if !ok {
		return Homography{}, false
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, true
}

// Apply maps (x, y) through the homography with homogeneous divide. ok is
// false when the point maps near the plane at infinity (|w| < 1e-9); callers
// skip the affected grid cell.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-9 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}

func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	for col := 0; col < 8; col++ {
		// Partial pivot: pick the row with the largest magnitude in this column.
		pivot := col
		maxAbs := math.Abs(a[col][col])
		for r := col + 1; r < 8; r++ {
			if v := math.Abs(a[r][col]); v > maxAbs {
				maxAbs = v
				pivot = r
			}
		}
		if maxAbs < 1e-12 {
			return [8]float64{}, false
		}
		if pivot != col {
			a[pivot], a[col] = a[col], a[pivot]
			b[pivot], b[col] = b[col], b[pivot]
		}
		div := a[col][col]
		for c := col; c < 8; c++ {
			a[col][c] /= div
		}
		b[col] /= div
		for r := 0; r < 8; r++ {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := col; c < 8; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	return b, true
}

// Affine is a 2x3 transform: x' = A*x + B*y + C, y' = D*x + E*y + F.
type Affine struct {
	A, B, C, D, E, F float64
}

// SolveAffine computes the affine transform carrying the triangle
// (s0,s1,s2) onto (d0,d1,d2) in closed form from the 2x2 edge-vector
// determinant. ok is false for a degenerate source triangle.
func SolveAffine(s0, s1, s2, d0, d1, d2 Point) (Affine, bool) {
	ax, ay := s1.X-s0.X, s1.Y-s0.Y
	bx, by := s2.X-s0.X, s2.Y-s0.Y
	denom := ax*by - ay*bx
	if math.Abs(denom) < 1e-10 {
		return Affine{}, false
	}
	ux, uy := d1.X-d0.X, d1.Y-d0.Y
	vx, vy := d2.X-d0.X, d2.Y-d0.Y
	var t Affine
	t.A = (ux*by - vx*ay) / denom
	t.B = (vx*ax - ux*bx) / denom
	t.D = (uy*by - vy*ay) / denom
	t.E = (vy*ax - uy*bx) / denom
	t.C = d0.X - t.A*s0.X - t.B*s0.Y
	t.F = d0.Y - t.D*s0.X - t.E*s0.Y
	return t, true
}

// Apply maps (x, y) through the affine transform.
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// Invert returns the inverse affine transform. ok is false when the linear
// part is singular.
func (t Affine) Invert() (Affine, bool) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < 1e-12 {
		return Affine{}, false
	}
	var inv Affine
	inv.A = t.E / det
	inv.B = -t.B / det
	inv.D = -t.D / det
	inv.E = t.A / det
	inv.C = -(inv.A*t.C + inv.B*t.F)
	inv.F = -(inv.D*t.C + inv.E*t.F)
	return inv, true
}
