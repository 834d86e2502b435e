//go:build !cgo
// +build !cgo

// Stub for non-CGO builds where ONNX Runtime is unavailable: every
// prediction fails with ErrCGORequired and the compositor falls through to
// the edge-detection occlusion tier.
package inference

import (
	"errors"

	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/raster"
)

// ErrCGORequired is returned when inference is attempted without CGO
// support.
var ErrCGORequired = errors.New("inference requires CGO support; rebuild with CGO_ENABLED=1")

// Service is a non-functional placeholder in non-CGO builds.
type Service struct {
	opts Options
}

// New returns a stub service.
func New(opts Options) *Service {
	return &Service{opts: opts.withDefaults()}
}

// Init reports that inference is unavailable.
func (s *Service) Init() error { return ErrCGORequired }

// Close is a no-op.
func (s *Service) Close() {}

// EstimateDepth always fails in non-CGO builds.
func (s *Service) EstimateDepth(img *raster.Buffer) (*occlusion.DepthMap, error) {
	return nil, ErrCGORequired
}

// Segment always fails in non-CGO builds.
func (s *Service) Segment(img *raster.Buffer) (*occlusion.ClassGrid, error) {
	return nil, ErrCGORequired
}
