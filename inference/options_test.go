package inference

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.InputName != "input" || o.OutputName != "output" {
		t.Errorf("tensor names = (%q, %q); want (input, output)", o.InputName, o.OutputName)
	}
	if o.DepthInputSize != 384 || o.SegmentationInputSize != 384 {
		t.Errorf("input sizes = (%d, %d); want (384, 384)", o.DepthInputSize, o.SegmentationInputSize)
	}
	if o.SegmentationClasses != 150 {
		t.Errorf("classes = %d; want 150", o.SegmentationClasses)
	}
	if o.Interpolation != "bicubic" {
		t.Errorf("interpolation = %q; want bicubic", o.Interpolation)
	}

	// Explicit values survive.
	o = Options{InputName: "pixel_values", DepthInputSize: 518}.withDefaults()
	if o.InputName != "pixel_values" || o.DepthInputSize != 518 {
		t.Errorf("explicit values overridden: %+v", o)
	}
}

func TestLoadModelConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"pretrained_cfg": {
			"input_size": [3, 518, 518],
			"interpolation": "bilinear",
			"mean": [0.5, 0.5, 0.5],
			"std": [0.25, 0.25, 0.25],
			"num_classes": 21
		}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadModelConfig(path)
	if err != nil {
		t.Fatalf("LoadModelConfig: %v", err)
	}

	opts := Options{}.withDefaults()
	cfg.ApplyToOptions(&opts)
	if opts.DepthInputSize != 518 {
		t.Errorf("depth input size = %d; want 518", opts.DepthInputSize)
	}
	if opts.Interpolation != "bilinear" {
		t.Errorf("interpolation = %q; want bilinear", opts.Interpolation)
	}
	if opts.NormalizeMeanRGB != [3]float32{0.5, 0.5, 0.5} {
		t.Errorf("mean = %v; want 0.5s", opts.NormalizeMeanRGB)
	}
	if opts.NormalizeStddevRGB != [3]float32{0.25, 0.25, 0.25} {
		t.Errorf("std = %v; want 0.25s", opts.NormalizeStddevRGB)
	}
	if opts.SegmentationClasses != 21 {
		t.Errorf("classes = %d; want 21", opts.SegmentationClasses)
	}
}

func TestLoadModelConfigMissing(t *testing.T) {
	if _, err := LoadModelConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadModelConfig on a missing file returned nil error")
	}
}

func TestApplyToOptionsPartialConfig(t *testing.T) {
	var cfg ModelConfig
	opts := Options{}.withDefaults()
	cfg.ApplyToOptions(&opts)
	if opts.DepthInputSize != 384 || opts.Interpolation != "bicubic" {
		t.Errorf("empty config changed defaults: %+v", opts)
	}
}
