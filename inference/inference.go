//go:build cgo
// +build cgo

// Package inference wraps the ONNX Runtime sessions that supply the
// pipeline's two model collaborators: monocular depth estimation and
// semantic segmentation. The Service is constructed once at application
// start and passed by reference to whoever needs predictions; there is no
// hidden global session.
//
// Both collaborators are best-effort: a failed prediction surfaces as an
// error at this boundary and the compositor falls through to the next
// occlusion-source priority tier.
package inference

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/stevecastle/tileroom/imaging"
	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/platform"
	"github.com/stevecastle/tileroom/raster"
)

// Service owns the ONNX Runtime environment and runs depth and segmentation
// predictions. Init must be called before the first prediction; Close
// releases the runtime.
type Service struct {
	opts Options

	mu          sync.Mutex
	initialized bool
}

// New returns an uninitialized service. Zero-valued options are filled with
// defaults at Init.
func New(opts Options) *Service {
	return &Service{opts: opts.withDefaults()}
}

// Init prepares the ONNX Runtime environment. Safe to call once; the
// caller owns the lifecycle (construct at startup, Close at shutdown).
func (s *Service) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if s.opts.ORTSharedLibraryPath != "" {
		ort.SetSharedLibraryPath(s.opts.ORTSharedLibraryPath)
	} else if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	} else if p := filepath.Join(platform.GetDataDir(), "onnxruntime"+platform.SharedLibExtension()); fileExists(p) {
		ort.SetSharedLibraryPath(p)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	s.initialized = true
	return nil
}

// Close tears down the ONNX Runtime environment.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		ort.DestroyEnvironment()
		s.initialized = false
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EstimateDepth runs the depth model over the image and returns its raw
// per-pixel depth field at model resolution. The caller is responsible for
// knowing the model's depth polarity (higher-is-closer or not); it cannot be
// inferred here.
func (s *Service) EstimateDepth(img *raster.Buffer) (*occlusion.DepthMap, error) {
	if s.opts.DepthModelPath == "" {
		return nil, errors.New("no depth model configured")
	}
	w := s.opts.DepthInputSize
	out, err := s.run(s.opts.DepthModelPath, img, w, w, 1)
	if err != nil {
		return nil, fmt.Errorf("depth inference: %w", err)
	}
	return &occlusion.DepthMap{W: w, H: w, Data: out}, nil
}

// Segment runs the segmentation model and argmax-reduces its class scores
// into a per-pixel class-id grid at model resolution.
func (s *Service) Segment(img *raster.Buffer) (*occlusion.ClassGrid, error) {
	if s.opts.SegmentationModelPath == "" {
		return nil, errors.New("no segmentation model configured")
	}
	w := s.opts.SegmentationInputSize
	classes := s.opts.SegmentationClasses
	scores, err := s.run(s.opts.SegmentationModelPath, img, w, w, classes)
	if err != nil {
		return nil, fmt.Errorf("segmentation inference: %w", err)
	}
	grid := &occlusion.ClassGrid{W: w, H: w, Classes: make([]uint8, w*w)}
	plane := w * w
	for i := 0; i < plane; i++ {
		best := 0
		bestScore := scores[i]
		for c := 1; c < classes; c++ {
			if v := scores[c*plane+i]; v > bestScore {
				bestScore = v
				best = c
			}
		}
		grid.Classes[i] = uint8(best)
	}
	return grid, nil
}

// run executes one model: preprocess to an NCHW float32 tensor, run the
// session, and return the raw output of shape [1, outChannels, H, W].
func (s *Service) run(modelPath string, img *raster.Buffer, inW, inH, outChannels int) ([]float32, error) {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		return nil, errors.New("inference service not initialized")
	}
	if img.Empty() {
		return nil, errors.New("empty input image")
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(inH), int64(inW)), s.preprocess(img, inW, inH))
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outChannels), int64(inH), int64(inW)))
	if err != nil {
		return nil, err
	}
	defer output.Destroy()

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{s.opts.InputName},
		[]string{s.opts.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, err
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, err
	}
	data := output.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// preprocess resizes to model input size and packs normalized RGB planes in
// NCHW order.
func (s *Service) preprocess(img *raster.Buffer, w, h int) []float32 {
	resized := imaging.Resize(img, w, h, s.opts.Interpolation)
	plane := w * h
	data := make([]float32, 3*plane)
	mean := s.opts.NormalizeMeanRGB
	std := s.opts.NormalizeStddevRGB
	for c := 0; c < 3; c++ {
		if std[c] == 0 {
			std[c] = 1
		}
	}
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.RGBA(x, y)
			data[i] = (float32(r)/255 - mean[0]) / std[0]
			data[plane+i] = (float32(g)/255 - mean[1]) / std[1]
			data[2*plane+i] = (float32(b)/255 - mean[2]) / std[2]
			i++
		}
	}
	return data
}
