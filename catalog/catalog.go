// Package catalog discovers tile products from an asset directory and keeps
// an immutable, queryable index of them. Filenames are deterministically
// converted into stable ids and display names; an optional physical size
// suffix ("_300x600mm") carries the tile's real-world dimensions.
//
// Layout under the catalog root: wall/, floor/, and shared/ subdirectories
// hold images usable on walls, floors, or both. The index is built once at
// startup and read-only afterward.
package catalog

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stevecastle/tileroom/geometry"
)

// SurfaceAffinity restricts which surface kinds a tile may overlay.
type SurfaceAffinity string

const (
	AffinityWall  SurfaceAffinity = "wall"
	AffinityFloor SurfaceAffinity = "floor"
	AffinityBoth  SurfaceAffinity = "both"
)

// Product is one catalog entry. Built once during discovery, immutable
// afterward, and a read-only input to the renderer.
type Product struct {
	ID       string
	Name     string
	Path     string
	Size     geometry.SizeMM
	Affinity SurfaceAffinity
}

// supportedExtensions lists the raster formats the discovery accepts.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
	".gif":  true,
	".avif": true,
}

// SupportedFormat reports whether the filename carries a recognized image
// extension.
func SupportedFormat(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	sizeInMM  = regexp.MustCompile(`(?i)[_-](\d+)x(\d+)mm$`)
	separator = regexp.MustCompile(`[-_]+`)
)

// SlugID converts a filename into a stable id: lowercase, hyphenated,
// alphanumeric-only.
func SlugID(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	s := nonAlnum.ReplaceAllString(strings.ToLower(base), "-")
	return strings.Trim(s, "-")
}

// DisplayName converts a filename into a human-readable name: the size
// suffix stripped, hyphens and underscores become spaces, title case.
func DisplayName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = sizeInMM.ReplaceAllString(base, "")
	words := strings.Fields(separator.ReplaceAllString(base, " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// ParseSizeMM extracts a "_300x600mm" physical size suffix from a filename.
// ok is false when no suffix is present; such tiles need an explicit size
// before rendering.
func ParseSizeMM(filename string) (geometry.SizeMM, bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	m := sizeInMM.FindStringSubmatch(base)
	if m == nil {
		return geometry.SizeMM{}, false
	}
	w, err1 := strconv.ParseFloat(m[1], 64)
	h, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return geometry.SizeMM{}, false
	}
	return geometry.SizeMM{Width: w, Height: h}, true
}

// Discover scans the catalog root and builds products from the wall/,
// floor/, and shared/ subdirectories. Unsupported formats are skipped.
// Missing subdirectories are fine; an entirely missing root returns an
// error.
func Discover(root string) ([]Product, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	var products []Product
	dirs := []struct {
		name     string
		affinity SurfaceAffinity
	}{
		{"wall", AffinityWall},
		{"floor", AffinityFloor},
		{"shared", AffinityBoth},
	}
	for _, d := range dirs {
		entries, err := os.ReadDir(filepath.Join(root, d.name))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !SupportedFormat(e.Name()) {
				continue
			}
			size, _ := ParseSizeMM(e.Name())
			products = append(products, Product{
				ID:       SlugID(e.Name()),
				Name:     DisplayName(e.Name()),
				Path:     filepath.Join(root, d.name, e.Name()),
				Size:     size,
				Affinity: d.affinity,
			})
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// Catalog is the immutable product index.
type Catalog struct {
	products []Product
	byID     map[string]*Product
}

// New builds a catalog from discovered products.
func New(products []Product) *Catalog {
	c := &Catalog{products: products, byID: make(map[string]*Product, len(products))}
	for i := range c.products {
		c.byID[c.products[i].ID] = &c.products[i]
	}
	return c
}

// All returns every product.
func (c *Catalog) All() []Product {
	return c.products
}

// ByID looks up a product.
func (c *Catalog) ByID(id string) (Product, bool) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// ForSurface returns the products usable on the given surface kind.
func (c *Catalog) ForSurface(affinity SurfaceAffinity) []Product {
	var out []Product
	for _, p := range c.products {
		if p.Affinity == affinity || p.Affinity == AffinityBoth || affinity == AffinityBoth {
			out = append(out, p)
		}
	}
	return out
}
