// Package imaging decodes photos and tile images into raster buffers and
// provides the resampling helpers shared by the inference preprocessors.
// Decoding is a single blocking call with an explicit error; callers that
// want asynchrony run it in their own goroutine and treat the decoded buffer
// as an ordinary input value.
package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/stevecastle/tileroom/raster"
)

// Decode reads and decodes a raster image (PNG, JPEG, GIF, WebP) into a
// buffer.
func Decode(r io.Reader) (*raster.Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raster.FromImage(img), nil
}

// DecodeFile decodes the image at path.
func DecodeFile(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// EncodePNG writes the buffer as a PNG.
func EncodePNG(w io.Writer, buf *raster.Buffer) error {
	return png.Encode(w, buf.ToImage())
}

// WritePNG writes the buffer as a PNG file.
func WritePNG(path string, buf *raster.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodePNG(f, buf)
}

// Resize scales the buffer to exactly w x h using the named interpolation:
// "bicubic", "bilinear", "nearest", or "catmullrom" (the default).
func Resize(buf *raster.Buffer, w, h int, interpolation string) *raster.Buffer {
	if buf.Empty() || w <= 0 || h <= 0 {
		return &raster.Buffer{}
	}
	src := buf.ToImage()
	if strings.EqualFold(strings.TrimSpace(interpolation), "bicubic") {
		// True bicubic to match PIL-style model preprocessing.
		return raster.FromImage(resize.Resize(uint(w), uint(h), src, resize.Bicubic))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	chooseScaler(interpolation).Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.FromImage(dst)
}

func chooseScaler(name string) draw.Scaler {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bilinear":
		return draw.BiLinear
	case "nearest":
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}
