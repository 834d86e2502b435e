// Package server exposes the local preview surface: a catalog listing and a
// render endpoint returning a flattened PNG composite. It is a single-user
// local tool; there is no persisted state beyond the catalog index.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/stevecastle/tileroom/appconfig"
	"github.com/stevecastle/tileroom/catalog"
	"github.com/stevecastle/tileroom/compose"
	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/imaging"
	"github.com/stevecastle/tileroom/lighting"
	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/raster"
)

// --------------------------------------------------------------------
// Middleware helpers
// --------------------------------------------------------------------

func Logger(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Println(time.Since(start), r.Method, r.URL.Path)
	}
}

func CORS(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enableCors(&w)
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	}
}

func enableCors(w *http.ResponseWriter) {
	h := (*w).Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
}

func applyMiddlewares(handler http.HandlerFunc) http.HandlerFunc {
	return Logger(CORS(handler))
}

// --------------------------------------------------------------------
// Server
// --------------------------------------------------------------------

// DepthProvider supplies depth maps for a room photo; nil or failing
// providers simply leave the depth occlusion tier empty.
type DepthProvider interface {
	EstimateDepth(img *raster.Buffer) (*occlusion.DepthMap, error)
}

// SegmentationProvider supplies per-pixel class grids; nil or failing
// providers leave the segmentation occlusion tier empty.
type SegmentationProvider interface {
	Segment(img *raster.Buffer) (*occlusion.ClassGrid, error)
}

// Server serves the preview endpoints.
type Server struct {
	Catalog      *catalog.Catalog
	Config       appconfig.Config
	Depth        DepthProvider
	Segmentation SegmentationProvider
}

// Routes registers the preview handlers on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", applyMiddlewares(s.handleCatalog))
	mux.HandleFunc("POST /render", applyMiddlewares(s.handleRender))
	return mux
}

type productJSON struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	WidthMM  float64                 `json:"widthMm"`
	HeightMM float64                 `json:"heightMm"`
	Affinity catalog.SurfaceAffinity `json:"affinity"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	affinity := catalog.SurfaceAffinity(r.URL.Query().Get("surface"))
	if affinity == "" {
		affinity = catalog.AffinityBoth
	}
	products := s.Catalog.ForSurface(affinity)
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON{
			ID:       p.ID,
			Name:     p.Name,
			WidthMM:  p.Size.Width,
			HeightMM: p.Size.Height,
			Affinity: p.Affinity,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("warning: failed to encode catalog response: %v", err)
	}
}

// renderRequest is the JSON body of POST /render. RoomPath points at a local
// photo; the quad is in photo pixel coordinates.
type renderRequest struct {
	RoomPath        string            `json:"roomPath"`
	Quad            [4]geometry.Point `json:"quad"`
	TileID          string            `json:"tileId"`
	Surface         string            `json:"surface"`
	SurfaceWidthMM  float64           `json:"surfaceWidthMm"`
	SurfaceHeightMM float64           `json:"surfaceHeightMm"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return
	}
	product, ok := s.Catalog.ByID(req.TileID)
	if !ok {
		http.Error(w, "unknown tile id", http.StatusNotFound)
		return
	}
	room, err := imaging.DecodeFile(req.RoomPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("room photo: %v", err), http.StatusBadRequest)
		return
	}
	tile, err := imaging.DecodeFile(product.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("tile image: %v", err), http.StatusInternalServerError)
		return
	}

	surface := compose.SurfaceWall
	if req.Surface == "floor" {
		surface = compose.SurfaceFloor
	}
	var depth *occlusion.DepthMap
	if s.Depth != nil {
		if d, err := s.Depth.EstimateDepth(room); err != nil {
			log.Printf("warning: depth inference unavailable: %v", err)
		} else {
			depth = d
		}
	}
	var seg *occlusion.ClassGrid
	if s.Segmentation != nil {
		if g, err := s.Segmentation.Segment(room); err != nil {
			log.Printf("warning: segmentation inference unavailable: %v", err)
		} else {
			seg = g
		}
	}

	result := compose.Render(room, s.composeParams(req, tile, product.Size, surface, depth, seg))
	final := compose.Flatten(room, result)

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.EncodePNG(w, final); err != nil {
		log.Printf("warning: failed to write render response: %v", err)
	}
}

// composeParams assembles one compositor pass from a render request and the
// configured render knobs. Feathering and the segmentation class id switch
// on the surface kind.
func (s *Server) composeParams(req renderRequest, tile *raster.Buffer, tileSize geometry.SizeMM, surface compose.Surface, depth *occlusion.DepthMap, seg *occlusion.ClassGrid) compose.Params {
	cfg := s.Config
	feather := cfg.Render.WallFeatherPx
	segClass := cfg.Models.SegmentationWallClass
	if surface == compose.SurfaceFloor {
		feather = cfg.Render.FloorFeatherPx
		segClass = cfg.Models.SegmentationFloorClass
	}
	return compose.Params{
		Quad:        geometry.Quad(req.Quad),
		Tile:        tile,
		TileSize:    tileSize,
		SurfaceSize: geometry.SizeMM{Width: req.SurfaceWidthMM, Height: req.SurfaceHeightMM},
		Surface:     surface,
		FeatherPx:   feather,
		Smooth: occlusion.SmoothOptions{
			CloseRadius: cfg.Render.CloseRadius,
			EdgeBlurPx:  cfg.Render.EdgeBlurPx,
		},
		Depth: depth,
		DepthOpts: occlusion.DepthOptions{
			TolerancePercent: cfg.Render.DepthTolerancePercent,
			HigherIsCloser:   cfg.Models.DepthHigherIsCloser,
		},
		Segmentation:      seg,
		SegmentationClass: uint8(segClass),
		Lighting: lighting.Options{
			BlurPx: cfg.Render.LightingBlurPx,
			Floor:  cfg.Render.LightingFloor,
		},
		GroutOpacity: cfg.Render.GroutOpacity,
		NoiseOpacity: cfg.Render.NoiseOpacity,
	}
}
