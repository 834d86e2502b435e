package compose

import (
	"testing"

	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/raster"
)

func grayRoom(w, h int, v uint8) *raster.Buffer {
	room := raster.New(w, h)
	for i := 0; i < len(room.Pix); i += 4 {
		room.Pix[i], room.Pix[i+1], room.Pix[i+2], room.Pix[i+3] = v, v, v, 255
	}
	return room
}

func grayTile(v uint8) *raster.Buffer {
	tile := raster.New(8, 8)
	for i := 0; i < len(tile.Pix); i += 4 {
		tile.Pix[i], tile.Pix[i+1], tile.Pix[i+2], tile.Pix[i+3] = v, v, v, 255
	}
	return tile
}

func wallParams() Params {
	return Params{
		Quad:        geometry.Quad{{X: 20, Y: 20}, {X: 80, Y: 20}, {X: 80, Y: 80}, {X: 20, Y: 80}},
		Tile:        grayTile(200),
		TileSize:    geometry.SizeMM{Width: 250, Height: 250},
		SurfaceSize: geometry.SizeMM{Width: 1000, Height: 1000},
		Surface:     SurfaceWall,
	}
}

func TestRenderQuadOnlyClipping(t *testing.T) {
	room := grayRoom(100, 100, 180)
	p := wallParams()
	p.DisableEdgeFallback = true
	res := Render(room, p)
	if res.PassID == "" {
		t.Error("PassID is empty")
	}
	if res.OcclusionSource != "" {
		t.Errorf("occlusion source = %q; want none", res.OcclusionSource)
	}
	if res.LightingApplied {
		t.Error("lighting applied without an occlusion mask")
	}
	if _, _, _, a := res.Overlay.RGBA(50, 50); a != 255 {
		t.Errorf("interior alpha = %d; want 255", a)
	}
	if _, _, _, a := res.Overlay.RGBA(5, 50); a != 0 {
		t.Errorf("outside alpha = %d; want 0", a)
	}
	// The feathered boundary ramps rather than stepping.
	if _, _, _, a := res.Overlay.RGBA(20, 50); a == 0 || a == 255 {
		t.Errorf("boundary alpha = %d; want a partial value", a)
	}
}

func TestRenderDepthOcclusionCutsForeground(t *testing.T) {
	room := grayRoom(100, 100, 180)
	depth := &occlusion.DepthMap{W: 100, H: 100, Data: make([]float32, 100*100)}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 40 {
				depth.Data[y*100+x] = 30 // close object over the left of the quad
			} else {
				depth.Data[y*100+x] = 10
			}
		}
	}
	p := wallParams()
	p.Depth = depth
	p.DepthOpts = occlusion.DepthOptions{HigherIsCloser: true}
	res := Render(room, p)
	if res.OcclusionSource != "depth" {
		t.Fatalf("occlusion source = %q; want %q", res.OcclusionSource, "depth")
	}
	if !res.LightingApplied {
		t.Error("lighting not applied despite an available occlusion mask")
	}
	if _, _, _, a := res.Overlay.RGBA(30, 50); a != 0 {
		t.Errorf("occluded region alpha = %d; want 0", a)
	}
	if _, _, _, a := res.Overlay.RGBA(60, 50); a != 255 {
		t.Errorf("visible wall alpha = %d; want 255", a)
	}

	// Flattening shows room pixels through the hole and tile elsewhere.
	flat := Flatten(room, res)
	if r, _, _, _ := flat.RGBA(30, 50); r != 180 {
		t.Errorf("occluded composite value = %d; want room 180", r)
	}
	if r, _, _, _ := flat.RGBA(60, 50); r != 200 {
		t.Errorf("tiled composite value = %d; want tile 200", r)
	}
	if r, _, _, _ := flat.RGBA(5, 50); r != 180 {
		t.Errorf("outside-quad composite value = %d; want room 180", r)
	}
}

func TestRenderSourcePriority(t *testing.T) {
	room := grayRoom(64, 64, 180)
	depth := &occlusion.DepthMap{W: 64, H: 64, Data: make([]float32, 64*64)}
	for i := range depth.Data {
		depth.Data[i] = 5
	}
	seg := &occlusion.ClassGrid{W: 8, H: 8, Classes: make([]uint8, 64)}

	p := wallParams()
	p.Quad = geometry.Quad{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 50}, {X: 10, Y: 50}}
	p.Depth = depth
	p.Segmentation = seg
	p.SegmentationClass = 0
	if res := Render(room, p); res.OcclusionSource != "depth" {
		t.Errorf("with both inputs, source = %q; want %q", res.OcclusionSource, "depth")
	}

	p.Depth = nil
	if res := Render(room, p); res.OcclusionSource != "segmentation" {
		t.Errorf("without depth, source = %q; want %q", res.OcclusionSource, "segmentation")
	}

	p.Segmentation = nil
	if res := Render(room, p); res.OcclusionSource != "edges" {
		t.Errorf("without models, source = %q; want %q", res.OcclusionSource, "edges")
	}
}

func TestRenderInvalidInputsAreTransparent(t *testing.T) {
	room := grayRoom(40, 40, 128)
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"nil tile", func(p *Params) { p.Tile = nil }},
		{"degenerate quad", func(p *Params) { p.Quad = geometry.Quad{} }},
		{"zero tile size", func(p *Params) { p.TileSize = geometry.SizeMM{} }},
		{"zero surface size", func(p *Params) { p.SurfaceSize = geometry.SizeMM{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := wallParams()
			tt.mutate(&p)
			res := Render(room, p)
			if res.Overlay == nil {
				t.Fatal("Overlay is nil; want an allocated transparent buffer")
			}
			for i := 3; i < len(res.Overlay.Pix); i += 4 {
				if res.Overlay.Pix[i] != 0 {
					t.Fatal("invalid input produced visible pixels")
				}
			}
		})
	}
}

func TestRenderNilRoom(t *testing.T) {
	res := Render(nil, wallParams())
	if res.Overlay == nil || !res.Overlay.Empty() {
		t.Error("nil room did not produce an empty overlay")
	}
}

func TestFlattenLayersInOrder(t *testing.T) {
	room := grayRoom(60, 60, 100)

	first := &Result{Overlay: raster.New(60, 60)}
	first.Overlay.SetRGBA(10, 10, 255, 0, 0, 255)
	first.Overlay.SetRGBA(20, 20, 255, 0, 0, 255)

	second := &Result{Overlay: raster.New(60, 60)}
	second.Overlay.SetRGBA(20, 20, 0, 0, 255, 255)

	flat := Flatten(room, first, second)
	if r, _, _, _ := flat.RGBA(10, 10); r != 255 {
		t.Errorf("first overlay pixel = %d; want red 255", r)
	}
	if r, _, b, _ := flat.RGBA(20, 20); b != 255 || r != 0 {
		t.Errorf("overlap pixel = (%d, _, %d); want later overlay blue", r, b)
	}
	if r, _, _, _ := flat.RGBA(40, 40); r != 100 {
		t.Errorf("uncovered pixel = %d; want room 100", r)
	}
	// Flatten never mutates the base photo.
	if r, _, _, _ := room.RGBA(10, 10); r != 100 {
		t.Error("Flatten modified the room buffer")
	}
}

func TestSessionDropsStaleResults(t *testing.T) {
	var s Session
	gen1 := s.SetRoom(grayRoom(10, 10, 50))

	depth := &occlusion.DepthMap{W: 2, H: 2, Data: make([]float32, 4)}
	if !s.DeliverDepth(gen1, depth) {
		t.Fatal("current-generation depth delivery rejected")
	}

	gen2 := s.SetRoom(grayRoom(10, 10, 60))
	if gen2 == gen1 {
		t.Fatal("generation did not advance on new room")
	}
	if s.DeliverDepth(gen1, depth) {
		t.Error("stale depth delivery accepted")
	}
	if s.DeliverSegmentation(gen1, &occlusion.ClassGrid{W: 1, H: 1, Classes: []uint8{0}}) {
		t.Error("stale segmentation delivery accepted")
	}

	_, d, g, gen := s.Snapshot()
	if d != nil || g != nil {
		t.Error("new room carried over results from the previous generation")
	}
	if gen != gen2 {
		t.Errorf("snapshot generation = %d; want %d", gen, gen2)
	}

	seg := &occlusion.ClassGrid{W: 1, H: 1, Classes: []uint8{3}}
	if !s.DeliverSegmentation(gen2, seg) {
		t.Error("current-generation segmentation delivery rejected")
	}
	_, _, g, _ = s.Snapshot()
	if g != seg {
		t.Error("delivered segmentation not visible in snapshot")
	}
}
