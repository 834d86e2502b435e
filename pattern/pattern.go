// Package pattern renders a repeating tile pattern scaled to real-world
// measurements, applies lighting, grout, noise, and floor atmosphere passes,
// and warps the result onto the destination quad.
package pattern

import (
	"math"
	"math/rand"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/raster"
	"github.com/stevecastle/tileroom/warp"
)

// Pass defaults.
const (
	DefaultGroutOpacity = 0.3
	DefaultNoiseOpacity = 0.018

	floorGradientStrength   = 0.35
	floorDesaturateStrength = 0.5
	floorVignetteStrength   = 0.25
)

// Options configures one pattern render.
type Options struct {
	// TileSize and SurfaceSize are physical sizes in millimeters. Either
	// being non-positive makes the render a no-op; repeat counts come only
	// from their ratio and are never rounded, so partial tiles at the far
	// edges are expected.
	TileSize    geometry.SizeMM
	SurfaceSize geometry.SizeMM

	// GroutOpacity draws 1px semi-transparent dark strokes at tile
	// boundaries when positive.
	GroutOpacity float64

	// Lighting, when non-nil and exactly bbox-sized, is composited with a
	// multiply blend. LightingStrength above 1 applies a second partial
	// multiply pass to deepen falloff (floor recession).
	Lighting         *raster.Buffer
	LightingStrength float64

	// Specular, when non-nil and exactly bbox-sized, is screen-blended at
	// SpecularOpacity after lighting for a subtle gloss.
	Specular        *raster.Buffer
	SpecularOpacity float64

	// NoiseOpacity composites uniform gray micro-noise with overlay blending
	// to defeat visible repetition.
	NoiseOpacity float64

	// Seed drives the noise generator so renders are reproducible.
	Seed int64

	// Floor atmosphere passes, each independently toggleable. They run over
	// the tiled buffer before warping, so their effect is confined to the
	// quad interior by construction.
	FloorGradient   bool
	FloorDesaturate bool
	FloorVignette   bool

	// GridSize overrides the warp subdivision; zero uses the engine default.
	GridSize int
}

// TileCounts returns the fractional repeat counts across and down. Values
// are not rounded: 3100mm of wall over 300mm tiles is 10.333 tiles, with a
// visibly partial tile at the edge.
func TileCounts(surface, tile geometry.SizeMM) (across, down float64, ok bool) {
	if !surface.Valid() || !tile.Valid() {
		return 0, 0, false
	}
	return surface.Width / tile.Width, surface.Height / tile.Height, true
}

// RenderTiled produces the flat (pre-warp) pattern buffer sized to the
// quad's bounding box. One pattern repetition spans exactly
// bboxW/tilesAcross output pixels. Returns nil when physical sizes or
// dimensions are invalid.
func RenderTiled(tile *raster.Buffer, bboxW, bboxH int, opts Options) *raster.Buffer {
	if tile.Empty() || bboxW <= 0 || bboxH <= 0 {
		return nil
	}
	across, down, ok := TileCounts(opts.SurfaceSize, opts.TileSize)
	if !ok {
		return nil
	}
	periodX := float64(bboxW) / across
	periodY := float64(bboxH) / down

	out := raster.New(bboxW, bboxH)
	for y := 0; y < bboxH; y++ {
		ty := math.Mod(float64(y), periodY) / periodY * float64(tile.H)
		for x := 0; x < bboxW; x++ {
			tx := math.Mod(float64(x), periodX) / periodX * float64(tile.W)
			r, g, b, _ := tile.BilinearRGBA(tx, ty)
			out.SetRGBA(x, y, r, g, b, 255)
		}
	}

	if opts.GroutOpacity > 0 {
		drawGrout(out, periodX, periodY, opts.GroutOpacity)
	}
	if opts.Lighting != nil && out.SameSize(opts.Lighting) {
		raster.Multiply(out, opts.Lighting, 1)
		if opts.LightingStrength > 1 {
			raster.Multiply(out, opts.Lighting, math.Min(opts.LightingStrength-1, 1))
		}
	}
	if opts.Specular != nil && out.SameSize(opts.Specular) && opts.SpecularOpacity > 0 {
		raster.Screen(out, opts.Specular, opts.SpecularOpacity)
	}
	if opts.NoiseOpacity > 0 {
		raster.NoiseOverlay(out, opts.NoiseOpacity, rand.New(rand.NewSource(opts.Seed)))
	}
	if opts.FloorGradient {
		applyGradient(out)
	}
	if opts.FloorDesaturate {
		applyDesaturation(out)
	}
	if opts.FloorVignette {
		applyVignette(out)
	}
	return out
}

// Render builds the tiled buffer for the quad's bounding box and warps it
// onto the quad inside dst. Invalid inputs draw nothing.
func Render(dst, tile *raster.Buffer, quad geometry.Quad, opts Options) {
	if dst.Empty() || quad.Degenerate() {
		return
	}
	bbox := quad.Bounds()
	tiled := RenderTiled(tile, bbox.W, bbox.H, opts)
	if tiled == nil {
		return
	}
	engine := warp.Engine{GridSize: opts.GridSize}
	engine.Draw(dst, tiled, quad)
}

// drawGrout strokes 1px dark lines at every tile boundary for perceived
// depth between tiles.
func drawGrout(buf *raster.Buffer, periodX, periodY, opacity float64) {
	if opacity > 1 {
		opacity = 1
	}
	shade := func(x, y int) {
		r, g, b, a := buf.RGBA(x, y)
		f := 1 - opacity
		buf.SetRGBA(x, y,
			uint8(float64(r)*f+0.5),
			uint8(float64(g)*f+0.5),
			uint8(float64(b)*f+0.5),
			a)
	}
	for i := 1; float64(i)*periodX < float64(buf.W); i++ {
		x := int(float64(i) * periodX)
		for y := 0; y < buf.H; y++ {
			shade(x, y)
		}
	}
	for i := 1; float64(i)*periodY < float64(buf.H); i++ {
		y := int(float64(i) * periodY)
		for x := 0; x < buf.W; x++ {
			shade(x, y)
		}
	}
}

// applyGradient darkens linearly from the near edge (source row 0, which
// warps to the quad's near edge) toward the far edge, as a depth cue.
func applyGradient(buf *raster.Buffer) {
	span := float64(buf.H - 1)
	if span < 1 {
		span = 1
	}
	for y := 0; y < buf.H; y++ {
		f := 1 - floorGradientStrength*float64(y)/span
		for x := 0; x < buf.W; x++ {
			i := (y*buf.W + x) * 4
			for c := 0; c < 3; c++ {
				buf.Pix[i+c] = uint8(float64(buf.Pix[i+c])*f + 0.5)
			}
		}
	}
}

// applyDesaturation pulls colors toward their luma as rows recede, mimicking
// atmospheric desaturation.
func applyDesaturation(buf *raster.Buffer) {
	for y := 0; y < buf.H; y++ {
		t := floorDesaturateStrength * float64(y) / float64(buf.H)
		for x := 0; x < buf.W; x++ {
			i := (y*buf.W + x) * 4
			l := float64(raster.Luma(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2]))
			for c := 0; c < 3; c++ {
				v := float64(buf.Pix[i+c])
				buf.Pix[i+c] = uint8(v + (l-v)*t + 0.5)
			}
		}
	}
}

// applyVignette darkens radially toward the buffer edges.
func applyVignette(buf *raster.Buffer) {
	cx := float64(buf.W) / 2
	cy := float64(buf.H) / 2
	for y := 0; y < buf.H; y++ {
		ny := (float64(y) + 0.5 - cy) / cy
		for x := 0; x < buf.W; x++ {
			nx := (float64(x) + 0.5 - cx) / cx
			d := math.Min(1, math.Sqrt((nx*nx+ny*ny)/2))
			f := 1 - floorVignetteStrength*d*d
			i := (y*buf.W + x) * 4
			for c := 0; c < 3; c++ {
				buf.Pix[i+c] = uint8(float64(buf.Pix[i+c])*f + 0.5)
			}
		}
	}
}
