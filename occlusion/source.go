package occlusion

import "github.com/stevecastle/tileroom/raster"

// Source is one entry in the ordered occlusion-source strategy list. Build
// returns nil when the source cannot produce a mask (model failed, input
// absent); selection then falls through to the next entry.
type Source struct {
	Name  string
	Build func() *raster.Buffer
}

// Select iterates the strategy list in order and returns the first mask a
// source produces, along with that source's name. Returns (nil, "") when
// every source declines; the caller then clips by the quad mask alone,
// which is the safe degraded mode.
func Select(sources []Source) (*raster.Buffer, string) {
	for _, s := range sources {
		if s.Build == nil {
			continue
		}
		if mask := s.Build(); mask != nil && !mask.Empty() {
			return mask, s.Name
		}
	}
	return nil, ""
}
