package pattern

import (
	"math"
	"testing"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
)

func TestTileCounts(t *testing.T) {
	tests := []struct {
		name          string
		surface, tile geometry.SizeMM
		across, down  float64
		ok            bool
	}{
		{"exact fit", geometry.SizeMM{Width: 3000, Height: 2400}, geometry.SizeMM{Width: 300, Height: 300}, 10, 8, true},
		{"partial tile", geometry.SizeMM{Width: 3100, Height: 300}, geometry.SizeMM{Width: 300, Height: 300}, 3100.0 / 300.0, 1, true},
		{"zero tile width", geometry.SizeMM{Width: 3000, Height: 2400}, geometry.SizeMM{Width: 0, Height: 300}, 0, 0, false},
		{"negative surface", geometry.SizeMM{Width: -1, Height: 2400}, geometry.SizeMM{Width: 300, Height: 300}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			across, down, ok := TileCounts(tt.surface, tt.tile)
			if ok != tt.ok {
				t.Fatalf("ok = %v; want %v", ok, tt.ok)
			}
			if math.Abs(across-tt.across) > 1e-9 || math.Abs(down-tt.down) > 1e-9 {
				t.Errorf("counts = (%v, %v); want (%v, %v)", across, down, tt.across, tt.down)
			}
		})
	}
}

// halfTile is red on the left half, blue on the right.
func halfTile() *raster.Buffer {
	tile := raster.New(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				tile.SetRGBA(x, y, 255, 0, 0, 255)
			} else {
				tile.SetRGBA(x, y, 0, 0, 255, 255)
			}
		}
	}
	return tile
}

func uniformTile(v uint8) *raster.Buffer {
	tile := raster.New(8, 8)
	for i := 0; i < len(tile.Pix); i += 4 {
		tile.Pix[i], tile.Pix[i+1], tile.Pix[i+2], tile.Pix[i+3] = v, v, v, 255
	}
	return tile
}

// fourSquare covers 1000x1000mm with 250mm tiles in an 80px buffer, so one
// repetition spans exactly 20px.
var fourSquare = Options{
	TileSize:    geometry.SizeMM{Width: 250, Height: 250},
	SurfaceSize: geometry.SizeMM{Width: 1000, Height: 1000},
}

func TestRenderTiledPeriod(t *testing.T) {
	out := RenderTiled(halfTile(), 80, 80, fourSquare)
	if out == nil {
		t.Fatal("RenderTiled returned nil")
	}
	// First repetition: left half red, right half blue.
	if r, _, b, _ := out.RGBA(4, 10); r < 200 || b > 50 {
		t.Errorf("left of tile = (%d, %d); want red", r, b)
	}
	if r, _, b, _ := out.RGBA(16, 10); b < 200 || r > 50 {
		t.Errorf("right of tile = (%d, %d); want blue", r, b)
	}
	// The pattern repeats with period 20 in both axes.
	for _, p := range [][4]int{{4, 10, 24, 10}, {16, 3, 36, 3}, {7, 7, 7, 27}} {
		r0, g0, b0, _ := out.RGBA(p[0], p[1])
		r1, g1, b1, _ := out.RGBA(p[2], p[3])
		if r0 != r1 || g0 != g1 || b0 != b1 {
			t.Errorf("pattern not periodic: (%d,%d)=(%d,%d,%d) vs (%d,%d)=(%d,%d,%d)",
				p[0], p[1], r0, g0, b0, p[2], p[3], r1, g1, b1)
		}
	}
}

func TestRenderTiledPartialTileAtEdge(t *testing.T) {
	// 3100mm over 300mm tiles: 10.333 repetitions across 310px, period 30px.
	// The last 10px column band is the leading third of a tile, so it must
	// be red, not a rounded-up blue finish.
	opts := Options{
		TileSize:    geometry.SizeMM{Width: 300, Height: 300},
		SurfaceSize: geometry.SizeMM{Width: 3100, Height: 300},
	}
	out := RenderTiled(halfTile(), 310, 30, opts)
	if out == nil {
		t.Fatal("RenderTiled returned nil")
	}
	if r, _, b, _ := out.RGBA(305, 15); r < 200 || b > 50 {
		t.Errorf("partial edge tile = (%d, %d); want red start of a fresh tile", r, b)
	}
}

func TestRenderTiledInvalidSizes(t *testing.T) {
	if out := RenderTiled(halfTile(), 80, 80, Options{}); out != nil {
		t.Error("RenderTiled with zero physical sizes returned a buffer; want nil")
	}
	if out := RenderTiled(nil, 80, 80, fourSquare); out != nil {
		t.Error("RenderTiled with nil tile returned a buffer; want nil")
	}
	if out := RenderTiled(halfTile(), 0, 80, fourSquare); out != nil {
		t.Error("RenderTiled with zero width returned a buffer; want nil")
	}
}

func TestRenderTiledGrout(t *testing.T) {
	opts := fourSquare
	opts.GroutOpacity = 0.5
	out := RenderTiled(uniformTile(200), 80, 80, opts)
	// Boundary column at x=20 is darkened; its neighbor keeps tile color.
	r, _, _, _ := out.RGBA(20, 10)
	n, _, _, _ := out.RGBA(22, 10)
	if r != 100 {
		t.Errorf("grout line value = %d; want 100", r)
	}
	if n != 200 {
		t.Errorf("neighbor value = %d; want 200", n)
	}
	// Horizontal boundary too.
	if v, _, _, _ := out.RGBA(10, 40); v != 100 {
		t.Errorf("horizontal grout line value = %d; want 100", v)
	}
}

func TestRenderTiledLightingMultiply(t *testing.T) {
	light := raster.New(80, 80)
	for i := 0; i < len(light.Pix); i += 4 {
		light.Pix[i], light.Pix[i+1], light.Pix[i+2], light.Pix[i+3] = 128, 128, 128, 255
	}
	opts := fourSquare
	opts.Lighting = light
	out := RenderTiled(uniformTile(200), 80, 80, opts)
	if r, _, _, _ := out.RGBA(10, 10); r != 100 {
		t.Errorf("multiplied value = %d; want 100", r)
	}

	// Strength 2 applies a full second multiply pass.
	opts.LightingStrength = 2
	out = RenderTiled(uniformTile(200), 80, 80, opts)
	if r, _, _, _ := out.RGBA(10, 10); r != 50 {
		t.Errorf("deepened value = %d; want 50", r)
	}
}

func TestRenderTiledLightingSizeMismatchSkipped(t *testing.T) {
	opts := fourSquare
	opts.Lighting = raster.New(40, 40)
	out := RenderTiled(uniformTile(200), 80, 80, opts)
	if r, _, _, _ := out.RGBA(10, 10); r != 200 {
		t.Errorf("value with mismatched lighting = %d; want untouched 200", r)
	}
}

func TestRenderTiledNoiseReproducible(t *testing.T) {
	opts := fourSquare
	opts.NoiseOpacity = DefaultNoiseOpacity
	opts.Seed = 42
	a := RenderTiled(uniformTile(128), 80, 80, opts)
	b := RenderTiled(uniformTile(128), 80, 80, opts)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same seed produced different noise")
		}
	}
	opts.Seed = 43
	c := RenderTiled(uniformTile(128), 80, 80, opts)
	same := true
	for i := range a.Pix {
		if a.Pix[i] != c.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestRenderTiledFloorPasses(t *testing.T) {
	opts := fourSquare
	opts.FloorGradient = true
	out := RenderTiled(uniformTile(200), 80, 80, opts)
	near, _, _, _ := out.RGBA(40, 0)
	far, _, _, _ := out.RGBA(40, 79)
	if near != 200 {
		t.Errorf("near edge = %d; want untouched 200", near)
	}
	if far >= near {
		t.Errorf("far edge %d not darker than near edge %d", far, near)
	}

	opts = fourSquare
	opts.FloorVignette = true
	out = RenderTiled(uniformTile(200), 80, 80, opts)
	center, _, _, _ := out.RGBA(40, 40)
	corner, _, _, _ := out.RGBA(0, 0)
	if corner >= center {
		t.Errorf("vignette corner %d not darker than center %d", corner, center)
	}

	// Desaturation pulls a saturated color toward its luma in far rows only.
	red := raster.New(8, 8)
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	opts = fourSquare
	opts.FloorDesaturate = true
	out = RenderTiled(red, 80, 80, opts)
	if _, g, _, _ := out.RGBA(40, 0); g != 0 {
		t.Errorf("near-row green = %d; want 0", g)
	}
	if _, g, _, _ := out.RGBA(40, 79); g == 0 {
		t.Error("far-row green channel unchanged; desaturation had no effect")
	}
}

func TestRenderWarpsIntoQuadOnly(t *testing.T) {
	dst := raster.New(100, 100)
	quad := geometry.Quad{{X: 20, Y: 20}, {X: 80, Y: 20}, {X: 80, Y: 80}, {X: 20, Y: 80}}
	Render(dst, uniformTile(200), quad, fourSquare)
	if _, _, _, a := dst.RGBA(50, 50); a != 255 {
		t.Errorf("quad interior alpha = %d; want 255", a)
	}
	if _, _, _, a := dst.RGBA(5, 5); a != 0 {
		t.Errorf("outside-quad alpha = %d; want 0", a)
	}
}

func TestRenderDegenerateQuadNoop(t *testing.T) {
	dst := raster.New(50, 50)
	quad := geometry.Quad{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}}
	Render(dst, uniformTile(200), quad, fourSquare)
	for _, p := range dst.Pix {
		if p != 0 {
			t.Fatal("degenerate quad wrote pixels")
		}
	}
}
