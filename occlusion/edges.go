package occlusion

import "github.com/stevecastle/tileroom/raster"

// DefaultDilateIterations is the fixed edge-map dilation count. Six rounds
// of 8-connected growth closes most object silhouette gaps at typical photo
// resolutions.
const DefaultDilateIterations = 6

// EdgeOptions configures the edge-detection occlusion fallback.
type EdgeOptions struct {
	// DilateIterations grows the binary edge map; zero selects
	// DefaultDilateIterations.
	DilateIterations int

	// FloodFill, when true, treats the dilated edge map as an impassable
	// barrier and flood-fills "wall" outward from the image border, so fully
	// enclosed foreground silhouettes are excluded rather than just their
	// outlines. This is the cleaner policy and is the default when edge
	// detection is the active occlusion source.
	FloodFill bool
}

// EdgeMask derives an occlusion mask from the room photo alone, used when
// neither depth nor segmentation is available. Pipeline: grayscale, Sobel
// gradient magnitude, adaptive threshold at max(8, mean*0.85), binary
// dilation, 3x3 box soften, then inversion into mask convention (edges
// hide the tile). With FloodFill set, border-connected smooth regions become
// wall and everything sealed off by edges is hidden.
func EdgeMask(room *raster.Buffer, opts EdgeOptions) *raster.Buffer {
	if room.Empty() {
		return nil
	}
	iters := opts.DilateIterations
	if iters <= 0 {
		iters = DefaultDilateIterations
	}
	w, h := room.W, room.H

	gray := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = room.Luminance(x, y)
		}
	}

	mag := sobelMagnitude(gray, w, h)
	var sum float64
	for _, m := range mag {
		sum += m
	}
	threshold := sum / float64(len(mag)) * 0.85
	if threshold < 8 {
		threshold = 8
	}

	edges := make([]bool, w*h)
	for i, m := range mag {
		edges[i] = m >= threshold
	}
	for i := 0; i < iters; i++ {
		edges = dilate8(edges, w, h)
	}

	if opts.FloodFill {
		return floodFillMask(edges, w, h)
	}

	// Edge-strength variant: soften the binary map, then invert so smooth
	// wall reads as alpha 255.
	strength := raster.NewMask(w, h, 0)
	for i, e := range edges {
		if e {
			strength.Pix[i*4+3] = 255
		}
	}
	return strength.BoxBlurAlpha(1).InvertAlpha()
}

// floodFillMask BFS-fills wall outward from the image border, 4-connected,
// with dilated edges acting as barriers. Enclosed foreground interiors are
// never reached and stay hidden.
func floodFillMask(edges []bool, w, h int) *raster.Buffer {
	mask := raster.NewMask(w, h, 0)
	visited := make([]bool, w*h)
	queue := make([]int, 0, w*2+h*2)
	push := func(x, y int) {
		i := y*w + x
		if !visited[i] && !edges[i] {
			visited[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		mask.Pix[i*4+3] = 255
		x := i % w
		y := i / w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	// Soften the fill boundary the same way as the strength variant.
	return mask.BoxBlurAlpha(1)
}

func sobelMagnitude(gray []uint8, w, h int) []float64 {
	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x >= w {
			x = w - 1
		}
		if y >= h {
			y = h - 1
		}
		return float64(gray[y*w+x])
	}
	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			// L1 magnitude is close enough for thresholding and cheaper
			// than the Euclidean norm at this pixel count.
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			mag[y*w+x] = gx + gy
		}
	}
	return mag
}

// dilate8 grows the set by one pixel with 8-connected neighbor OR.
func dilate8(src []bool, w, h int) []bool {
	out := make([]bool, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src[y*w+x] {
				out[y*w+x] = true
				continue
			}
		neighbors:
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					if src[ny*w+nx] {
						out[y*w+x] = true
						break neighbors
					}
				}
			}
		}
	}
	return out
}
