package geometry

import (
	"math"
	"testing"
)

func TestSolveHomographyMapsCorners(t *testing.T) {
	src := Quad{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	dst := Quad{{10, 20}, {200, 40}, {180, 300}, {5, 250}}

	h, ok := SolveHomography(src, dst)
	if !ok {
		t.Fatal("SolveHomography returned !ok for a valid quad")
	}
	for i := range src {
		x, y, ok := h.Apply(src[i].X, src[i].Y)
		if !ok {
			t.Fatalf("corner %d mapped to infinity", i)
		}
		if math.Abs(x-dst[i].X) > 1e-6 || math.Abs(y-dst[i].Y) > 1e-6 {
			t.Errorf("corner %d mapped to (%v, %v); want (%v, %v)", i, x, y, dst[i].X, dst[i].Y)
		}
	}
}

func TestSolveHomographyDegenerate(t *testing.T) {
	src := Quad{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	// Three collinear points: zero-area target.
	dst := Quad{{0, 0}, {50, 0}, {100, 0}, {0, 0}}
	if _, ok := SolveHomography(src, dst); ok {
		t.Error("SolveHomography ok = true for a collapsed quad; want false")
	}
}

func TestHomographyIdentity(t *testing.T) {
	q := Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	h, ok := SolveHomography(q, q)
	if !ok {
		t.Fatal("identity solve failed")
	}
	x, y, _ := h.Apply(3.5, 7.25)
	if math.Abs(x-3.5) > 1e-9 || math.Abs(y-7.25) > 1e-9 {
		t.Errorf("identity maps (3.5, 7.25) to (%v, %v)", x, y)
	}
}

func TestSolveAffineRoundTrip(t *testing.T) {
	s0, s1, s2 := Point{0, 0}, Point{10, 0}, Point{0, 10}
	d0, d1, d2 := Point{5, 5}, Point{25, 9}, Point{1, 31}
	a, ok := SolveAffine(s0, s1, s2, d0, d1, d2)
	if !ok {
		t.Fatal("SolveAffine returned !ok")
	}
	checks := []struct{ s, d Point }{{s0, d0}, {s1, d1}, {s2, d2}}
	for _, c := range checks {
		x, y := a.Apply(c.s.X, c.s.Y)
		if math.Abs(x-c.d.X) > 1e-9 || math.Abs(y-c.d.Y) > 1e-9 {
			t.Errorf("Apply(%v) = (%v, %v); want %v", c.s, x, y, c.d)
		}
	}
	inv, ok := a.Invert()
	if !ok {
		t.Fatal("Invert returned !ok")
	}
	x, y := inv.Apply(d1.X, d1.Y)
	if math.Abs(x-s1.X) > 1e-9 || math.Abs(y-s1.Y) > 1e-9 {
		t.Errorf("inverse maps %v to (%v, %v); want %v", d1, x, y, s1)
	}
}

func TestSolveAffineDegenerateTriangle(t *testing.T) {
	// Collinear source points.
	if _, ok := SolveAffine(Point{0, 0}, Point{5, 5}, Point{10, 10}, Point{0, 0}, Point{1, 0}, Point{0, 1}); ok {
		t.Error("SolveAffine ok = true for collinear source triangle; want false")
	}
}

func TestQuadContainsEitherWinding(t *testing.T) {
	cw := Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	ccw := Quad{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	inside := Point{5, 5}
	outside := Point{15, 5}
	for name, q := range map[string]Quad{"cw": cw, "ccw": ccw} {
		if !q.Contains(inside) {
			t.Errorf("%s quad does not contain center point", name)
		}
		if q.Contains(outside) {
			t.Errorf("%s quad contains outside point", name)
		}
	}
}

func TestQuadDegenerate(t *testing.T) {
	collinear := Quad{{0, 0}, {5, 0}, {10, 0}, {0, 10}}
	if !collinear.Degenerate() {
		t.Error("quad with three collinear corners not reported degenerate")
	}
	valid := Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if valid.Degenerate() {
		t.Error("valid square reported degenerate")
	}
}

func TestQuadInsetMovesTowardCentroid(t *testing.T) {
	q := Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	in := q.Inset(1)
	c := q.Centroid()
	for i := range q {
		before := math.Hypot(q[i].X-c.X, q[i].Y-c.Y)
		after := math.Hypot(in[i].X-c.X, in[i].Y-c.Y)
		if after >= before {
			t.Errorf("corner %d distance %v not reduced (was %v)", i, after, before)
		}
	}
}

func TestQuadBounds(t *testing.T) {
	q := Quad{{2.2, 3.9}, {10.1, 4}, {9, 12.5}, {1, 11}}
	b := q.Bounds()
	if b.X != 1 || b.Y != 3 {
		t.Errorf("bounds origin = (%d, %d); want (1, 3)", b.X, b.Y)
	}
	if b.W != 10 || b.H != 10 {
		t.Errorf("bounds size = %dx%d; want 10x10", b.W, b.H)
	}
}

func TestSizeMMValid(t *testing.T) {
	if (SizeMM{Width: 300, Height: 600}).Valid() == false {
		t.Error("300x600mm reported invalid")
	}
	if (SizeMM{Width: 0, Height: 600}).Valid() {
		t.Error("zero width reported valid")
	}
	if (SizeMM{Width: -1, Height: 600}).Valid() {
		t.Error("negative width reported valid")
	}
}
