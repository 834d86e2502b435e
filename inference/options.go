package inference

import (
	"encoding/json"
	"os"
)

// Options configures the model sessions. The zero value plus a model path is
// a working configuration for common 384x384 depth models.
type Options struct {
	// ORTSharedLibraryPath points at the onnxruntime shared library
	// (.so/.dylib/.dll). If empty, ONNXRUNTIME_SHARED_LIBRARY_PATH is
	// respected.
	ORTSharedLibraryPath string

	DepthModelPath        string
	SegmentationModelPath string

	// Input and output tensor names in the model graphs.
	InputName  string
	OutputName string

	// Model input sizes (square). Depth models commonly take 384.
	DepthInputSize        int
	SegmentationInputSize int

	// SegmentationClasses sizes the segmentation output tensor for argmax.
	SegmentationClasses int

	// Preprocessing settings.
	NormalizeMeanRGB   [3]float32
	NormalizeStddevRGB [3]float32
	Interpolation      string
}

func (o Options) withDefaults() Options {
	if o.InputName == "" {
		o.InputName = "input"
	}
	if o.OutputName == "" {
		o.OutputName = "output"
	}
	if o.DepthInputSize <= 0 {
		o.DepthInputSize = 384
	}
	if o.SegmentationInputSize <= 0 {
		o.SegmentationInputSize = 384
	}
	if o.SegmentationClasses <= 0 {
		o.SegmentationClasses = 150
	}
	if o.Interpolation == "" {
		o.Interpolation = "bicubic"
	}
	return o
}

// ModelConfig maps the preprocessing subset of a timm-style model config
// JSON, used to fill Options from a file shipped next to the model.
type ModelConfig struct {
	PretrainedCfg struct {
		InputSize     []int     `json:"input_size"`
		Interpolation string    `json:"interpolation"`
		Mean          []float32 `json:"mean"`
		Std           []float32 `json:"std"`
		NumClasses    int       `json:"num_classes"`
	} `json:"pretrained_cfg"`
}

// LoadModelConfig reads and parses a model config JSON file.
func LoadModelConfig(path string) (*ModelConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cfg ModelConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyToOptions maps the config's preprocessing settings into Options.
func (mc *ModelConfig) ApplyToOptions(opts *Options) {
	if mc == nil || opts == nil {
		return
	}
	if len(mc.PretrainedCfg.InputSize) == 3 {
		// [C, H, W]
		opts.DepthInputSize = mc.PretrainedCfg.InputSize[2]
		opts.SegmentationInputSize = mc.PretrainedCfg.InputSize[2]
	}
	if len(mc.PretrainedCfg.Mean) == 3 {
		copy(opts.NormalizeMeanRGB[:], mc.PretrainedCfg.Mean)
	}
	if len(mc.PretrainedCfg.Std) == 3 {
		copy(opts.NormalizeStddevRGB[:], mc.PretrainedCfg.Std)
	}
	if mc.PretrainedCfg.Interpolation != "" {
		opts.Interpolation = mc.PretrainedCfg.Interpolation
	}
	if mc.PretrainedCfg.NumClasses > 0 {
		opts.SegmentationClasses = mc.PretrainedCfg.NumClasses
	}
}
