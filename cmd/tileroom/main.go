// tileroom renders a perspective-correct tile overlay onto a marked
// quadrilateral region of a room photo, or serves the local preview API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/browser"
	"github.com/schollz/progressbar/v3"

	"github.com/stevecastle/tileroom/appconfig"
	"github.com/stevecastle/tileroom/batch"
	"github.com/stevecastle/tileroom/catalog"
	"github.com/stevecastle/tileroom/compose"
	"github.com/stevecastle/tileroom/geometry"
	"github.com/stevecastle/tileroom/imaging"
	"github.com/stevecastle/tileroom/inference"
	"github.com/stevecastle/tileroom/lighting"
	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/raster"
	"github.com/stevecastle/tileroom/server"
)

func main() {
	roomPath := flag.String("room", "", "room photo path (PNG/JPEG/WEBP/GIF)")
	quadSpec := flag.String("quad", "", "surface quad as x0,y0,x1,y1,x2,y2,x3,y3 in photo pixels")
	tileID := flag.String("tile", "", "catalog tile id, or a direct image path")
	surface := flag.String("surface", "wall", "surface kind: wall|floor")
	surfaceMM := flag.String("surface-mm", "", "physical surface size as WxH in millimeters, e.g. 3000x2400")
	tileMM := flag.String("tile-mm", "", "physical tile size as WxH in millimeters (overrides catalog size)")
	outPath := flag.String("out", "composite.png", "output PNG path")

	depthPath := flag.String("depth", "", "optional precomputed depth map image (luminance = depth)")
	higherCloser := flag.Bool("higher-closer", false, "depth convention: higher values are closer")
	noEdgeFallback := flag.Bool("no-edge-fallback", false, "disable edge-detection occlusion fallback")

	grout := flag.Float64("grout", 0.3, "grout line opacity (0 disables)")
	noise := flag.Float64("noise", 0.018, "micro-noise overlay opacity (0 disables)")
	seed := flag.Int64("seed", 1, "noise seed")
	specular := flag.Bool("specular", false, "add a low-opacity specular gloss pass")
	lightStrength := flag.Float64("light-strength", 1.0, "lighting multiply strength (>1 deepens falloff)")
	gradient := flag.Bool("floor-gradient", false, "darken toward the far edge (floors)")
	desaturate := flag.Bool("floor-desaturate", false, "desaturate toward the far edge (floors)")
	vignette := flag.Bool("floor-vignette", false, "radial vignette toward quad edges (floors)")

	renderAll := flag.Bool("all", false, "render every catalog tile for this surface into -out-dir")
	outDir := flag.String("out-dir", "previews", "output directory for -all")
	jobs := flag.Int("jobs", 0, "concurrent renders for -all (0 = all CPUs)")

	serveAddr := flag.String("serve", "", "serve the preview API on this address (e.g. :8090) instead of rendering")
	openBrowser := flag.Bool("open", true, "open the browser when serving")

	flag.Parse()

	cfg, cfgPath, err := appconfig.Load()
	if err != nil {
		log.Printf("warning: using default config: %v", err)
	} else {
		log.Printf("config loaded from %s", cfgPath)
	}

	cat := loadCatalog(cfg)

	svc := inference.New(inference.Options{
		ORTSharedLibraryPath:  cfg.Models.ORTSharedLibraryPath,
		DepthModelPath:        cfg.Models.DepthModelPath,
		SegmentationModelPath: cfg.Models.SegmentationModelPath,
		DepthInputSize:        cfg.Models.DepthInputSize,
		SegmentationClasses:   cfg.Models.SegmentationClasses,
	})
	if err := svc.Init(); err != nil {
		log.Printf("warning: model inference unavailable: %v", err)
		svc = nil
	} else {
		defer svc.Close()
	}

	if *serveAddr != "" {
		srv := &server.Server{Catalog: cat, Config: cfg}
		if svc != nil {
			srv.Depth = svc
			srv.Segmentation = svc
		}
		url := "http://localhost" + *serveAddr + "/catalog"
		log.Printf("serving preview API on %s", *serveAddr)
		if *openBrowser {
			_ = browser.OpenURL(url)
		}
		log.Fatal(http.ListenAndServe(*serveAddr, srv.Routes()))
	}

	if *roomPath == "" || *quadSpec == "" {
		fmt.Fprintln(os.Stderr, "usage: --room <photo> --quad x0,y0,...,x3,y3 --tile <id|path> [--surface-mm WxH] ...")
		os.Exit(2)
	}

	room, err := imaging.DecodeFile(*roomPath)
	if err != nil {
		log.Fatalf("room photo: %v", err)
	}
	quad, err := parseQuad(*quadSpec)
	if err != nil {
		log.Fatalf("bad --quad: %v", err)
	}
	surfaceSize, err := parseSizeMM(*surfaceMM)
	if err != nil {
		log.Fatalf("bad --surface-mm: %v", err)
	}

	kind := compose.SurfaceWall
	affinity := catalog.AffinityWall
	feather := cfg.Render.WallFeatherPx
	segClass := cfg.Models.SegmentationWallClass
	if *surface == "floor" {
		kind = compose.SurfaceFloor
		affinity = catalog.AffinityFloor
		feather = cfg.Render.FloorFeatherPx
		segClass = cfg.Models.SegmentationFloorClass
	}

	var depth *occlusion.DepthMap
	if *depthPath != "" {
		depth, err = loadDepthImage(*depthPath)
		if err != nil {
			log.Fatalf("depth map: %v", err)
		}
	} else if svc != nil {
		if d, derr := svc.EstimateDepth(room); derr != nil {
			log.Printf("warning: depth inference failed, falling back: %v", derr)
		} else {
			depth = d
		}
	}
	var seg *occlusion.ClassGrid
	if svc != nil {
		if g, serr := svc.Segment(room); serr != nil {
			log.Printf("warning: segmentation inference failed, falling back: %v", serr)
		} else {
			seg = g
		}
	}

	makeParams := func(tile *raster.Buffer, tileSize geometry.SizeMM) compose.Params {
		return compose.Params{
			Quad:        quad,
			Tile:        tile,
			TileSize:    tileSize,
			SurfaceSize: surfaceSize,
			Surface:     kind,
			FeatherPx:   feather,
			Depth:       depth,
			DepthOpts: occlusion.DepthOptions{
				TolerancePercent: cfg.Render.DepthTolerancePercent,
				HigherIsCloser:   *higherCloser || cfg.Models.DepthHigherIsCloser,
			},
			Segmentation:        seg,
			SegmentationClass:   uint8(segClass),
			DisableEdgeFallback: *noEdgeFallback,
			Smooth: occlusion.SmoothOptions{
				CloseRadius: cfg.Render.CloseRadius,
				EdgeBlurPx:  cfg.Render.EdgeBlurPx,
			},
			Lighting: lighting.Options{
				BlurPx: cfg.Render.LightingBlurPx,
				Floor:  cfg.Render.LightingFloor,
			},
			LightingStrength: *lightStrength,
			EnableSpecular:   *specular,
			GroutOpacity:     *grout,
			NoiseOpacity:     *noise,
			Seed:             *seed,
			FloorGradient:    *gradient,
			FloorDesaturate:  *desaturate,
			FloorVignette:    *vignette,
		}
	}

	if *renderAll {
		products := cat.ForSurface(affinity)
		if len(products) == 0 {
			log.Fatalf("no catalog tiles for surface %q", *surface)
		}
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			log.Fatalf("create %s: %v", *outDir, err)
		}
		bar := progressbar.Default(int64(len(products)), "rendering")
		work := make([]batch.Job, 0, len(products))
		for _, p := range products {
			work = append(work, batch.Job{ID: p.ID, Fn: func(context.Context) error {
				tile, terr := imaging.DecodeFile(p.Path)
				if terr != nil {
					return fmt.Errorf("decode tile %s: %w", p.ID, terr)
				}
				size := p.Size
				if ts, tserr := parseSizeMM(*tileMM); tserr == nil && ts.Valid() {
					size = ts
				}
				result := compose.Render(room, makeParams(tile, size))
				final := compose.Flatten(room, result)
				target := filepath.Join(*outDir, p.ID+".png")
				if werr := imaging.WritePNG(target, final); werr != nil {
					return fmt.Errorf("write %s: %w", target, werr)
				}
				return nil
			}})
		}
		pool := batch.Pool{Workers: *jobs}
		err := pool.Run(context.Background(), work, func(r batch.Result) {
			if r.Err != nil {
				log.Printf("warning: %s: %v", r.ID, r.Err)
			}
			bar.Add(1)
		})
		if err != nil {
			log.Printf("warning: batch finished with errors: %v", err)
		}
		return
	}

	if *tileID == "" {
		fmt.Fprintln(os.Stderr, "missing --tile")
		os.Exit(2)
	}
	tilePath := *tileID
	tileSize := geometry.SizeMM{}
	if p, ok := cat.ByID(*tileID); ok {
		tilePath = p.Path
		tileSize = p.Size
	}
	if ts, tserr := parseSizeMM(*tileMM); tserr == nil && ts.Valid() {
		tileSize = ts
	}
	tile, err := imaging.DecodeFile(tilePath)
	if err != nil {
		log.Fatalf("tile image: %v", err)
	}

	result := compose.Render(room, makeParams(tile, tileSize))
	final := compose.Flatten(room, result)
	if err := imaging.WritePNG(*outPath, final); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("wrote %s (occlusion source: %q)", *outPath, result.OcclusionSource)
}

func loadCatalog(cfg appconfig.Config) *catalog.Catalog {
	products, err := catalog.Discover(cfg.CatalogPath)
	if err != nil {
		log.Printf("warning: catalog discovery failed (%v), trying persisted index", err)
		if store, serr := catalog.OpenStore(cfg.IndexDBPath); serr == nil {
			defer store.Close()
			if loaded, lerr := store.Load(); lerr == nil {
				products = loaded
			}
		}
		return catalog.New(products)
	}
	if store, serr := catalog.OpenStore(cfg.IndexDBPath); serr == nil {
		defer store.Close()
		if rerr := store.Replace(products); rerr != nil {
			log.Printf("warning: failed to persist tile index: %v", rerr)
		}
	}
	return catalog.New(products)
}

func parseQuad(spec string) (geometry.Quad, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 8 {
		return geometry.Quad{}, fmt.Errorf("want 8 comma-separated values, got %d", len(parts))
	}
	var q geometry.Quad
	for i := 0; i < 4; i++ {
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[2*i]), 64)
		if err != nil {
			return geometry.Quad{}, err
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[2*i+1]), 64)
		if err != nil {
			return geometry.Quad{}, err
		}
		q[i] = geometry.Point{X: x, Y: y}
	}
	return q, nil
}

func parseSizeMM(spec string) (geometry.SizeMM, error) {
	if spec == "" {
		return geometry.SizeMM{}, fmt.Errorf("empty size")
	}
	parts := strings.SplitN(strings.ToLower(spec), "x", 2)
	if len(parts) != 2 {
		return geometry.SizeMM{}, fmt.Errorf("want WxH, got %q", spec)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.SizeMM{}, err
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.SizeMM{}, err
	}
	return geometry.SizeMM{Width: w, Height: h}, nil
}

// loadDepthImage reads a grayscale depth render (the common way depth maps
// are exported) and uses luminance as the depth value.
func loadDepthImage(path string) (*occlusion.DepthMap, error) {
	img, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	d := &occlusion.DepthMap{W: img.W, H: img.H, Data: make([]float32, img.W*img.H)}
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			d.Data[y*img.W+x] = float32(img.Luminance(x, y))
		}
	}
	return d, nil
}
