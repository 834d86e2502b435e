// Package compose orchestrates one surface overlay: it selects an occlusion
// source by priority, combines masks, gates the lighting extraction, renders
// the tiled pattern, and clips the warped result with destination-in
// semantics. Multiple compositor passes (wall, floor) layer independently
// onto the same base photo.
package compose

import (
	"log"

	"github.com/google/uuid"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/lighting"
	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/pattern"
	"github.com/stevecastle/tileroom/raster"
)

// Surface identifies which kind of planar region a pass overlays.
type Surface int

const (
	SurfaceWall Surface = iota
	SurfaceFloor
)

func (s Surface) String() string {
	if s == SurfaceFloor {
		return "floor"
	}
	return "wall"
}

// Params carries every input of a single compositor pass. All buffers are
// read-only to the pass; a fresh output is allocated every render.
type Params struct {
	Quad geometry.Quad
	Tile *raster.Buffer

	TileSize    geometry.SizeMM
	SurfaceSize geometry.SizeMM
	Surface     Surface

	// FeatherPx widens the quad-mask boundary ramp; zero picks the
	// per-surface default. InsetPx pulls mask corners toward the centroid.
	FeatherPx int
	InsetPx   float64

	Smooth occlusion.SmoothOptions

	// Occlusion inputs. Depth outranks segmentation outranks the edge
	// fallback; nil entries fall through. Priority is evaluated over this
	// final state, never over model completion order.
	Depth             *occlusion.DepthMap
	DepthOpts         occlusion.DepthOptions
	Segmentation      *occlusion.ClassGrid
	SegmentationClass uint8

	// DisableEdgeFallback turns off the edge-detection tier, leaving
	// quad-mask-only clipping when depth and segmentation are both absent.
	DisableEdgeFallback bool

	Lighting         lighting.Options
	LightingStrength float64
	EnableSpecular   bool

	GroutOpacity float64
	NoiseOpacity float64
	Seed         int64

	FloorGradient   bool
	FloorDesaturate bool
	FloorVignette   bool

	GridSize int
}

// Result is the finished overlay for one surface: a room-sized buffer whose
// alpha is already cut out by the combined mask. Drawing it over the room
// photo yields the composite.
type Result struct {
	PassID          string
	Overlay         *raster.Buffer
	OcclusionSource string
	LightingApplied bool
}

// Render runs one full compositor pass. Invalid inputs (degenerate quad,
// missing tile, non-positive sizes) return a fully transparent overlay
// rather than an error: partially specified state never crashes the render
// loop.
func Render(room *raster.Buffer, p Params) *Result {
	res := &Result{PassID: uuid.NewString()}
	if room.Empty() {
		res.Overlay = &raster.Buffer{}
		return res
	}
	res.Overlay = raster.New(room.W, room.H)
	if p.Tile.Empty() || p.Quad.Degenerate() || !p.TileSize.Valid() || !p.SurfaceSize.Valid() {
		return res
	}

	feather := p.FeatherPx
	if feather <= 0 {
		if p.Surface == SurfaceFloor {
			feather = occlusion.DefaultFloorFeatherPx
		} else {
			feather = occlusion.DefaultWallFeatherPx
		}
	}
	quadMask := occlusion.FeatheredQuadMask(room.W, room.H, p.Quad, feather, p.InsetPx)

	sources := []occlusion.Source{
		{Name: "depth", Build: func() *raster.Buffer {
			return occlusion.DepthMask(p.Depth, room.W, room.H, p.Quad, p.DepthOpts)
		}},
		{Name: "segmentation", Build: func() *raster.Buffer {
			return occlusion.SegmentationMask(p.Segmentation, room.W, room.H, p.SegmentationClass)
		}},
	}
	if !p.DisableEdgeFallback {
		sources = append(sources, occlusion.Source{Name: "edges", Build: func() *raster.Buffer {
			return occlusion.EdgeMask(room, occlusion.EdgeOptions{FloodFill: true})
		}})
	}
	occlusionMask, sourceName := occlusion.Select(sources)
	res.OcclusionSource = sourceName

	combined := quadMask
	if occlusionMask != nil {
		smoothed := occlusion.Smooth(occlusionMask, p.Smooth)
		if c := occlusion.Combine(quadMask, smoothed); c != nil {
			combined = c
		}
		occlusionMask = smoothed
	}

	bbox := p.Quad.Bounds()
	var light, specular *raster.Buffer
	if occlusionMask != nil {
		light = lighting.Extract(room, bbox, occlusionMask, p.Lighting)
		if light != nil && (light.W != bbox.W || light.H != bbox.H) {
			// Dimension mismatch means the bbox was clipped at the image
			// border; render without lighting rather than misalign it.
			light = nil
		}
		res.LightingApplied = light != nil
		if p.EnableSpecular {
			specular = lighting.Specular(room, bbox, 0)
			if specular != nil && (specular.W != bbox.W || specular.H != bbox.H) {
				specular = nil
			}
		}
	}

	pattern.Render(res.Overlay, p.Tile, p.Quad, pattern.Options{
		TileSize:         p.TileSize,
		SurfaceSize:      p.SurfaceSize,
		GroutOpacity:     p.GroutOpacity,
		Lighting:         light,
		LightingStrength: p.LightingStrength,
		Specular:         specular,
		SpecularOpacity:  lighting.DefaultSpecularOpacity,
		NoiseOpacity:     p.NoiseOpacity,
		Seed:             p.Seed,
		FloorGradient:    p.FloorGradient,
		FloorDesaturate:  p.FloorDesaturate,
		FloorVignette:    p.FloorVignette,
		GridSize:         p.GridSize,
	})

	raster.DestinationIn(res.Overlay, combined)
	log.Printf("render pass %s: surface=%s occlusion=%q lighting=%v",
		res.PassID, p.Surface, sourceName, res.LightingApplied)
	return res
}

// Flatten draws the room photo and every overlay in order onto a fresh
// buffer, producing the final composite.
func Flatten(room *raster.Buffer, overlays ...*Result) *raster.Buffer {
	out := room.Clone()
	for _, o := range overlays {
		if o == nil || o.Overlay.Empty() {
			continue
		}
		out.Draw(o.Overlay, 0, 0)
	}
	return out
}
