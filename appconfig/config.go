// Package appconfig loads and persists the application configuration:
// catalog and model paths plus the numeric defaults of the compositing
// pipeline.
package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/stevecastle/tileroom/platform"
)

// Config holds application configuration.
type Config struct {
	// CatalogPath is the root of the tile asset tree (wall/, floor/,
	// shared/ subdirectories).
	CatalogPath string `json:"catalogPath"`

	// IndexDBPath is the SQLite file holding the persisted tile index.
	IndexDBPath string `json:"indexDbPath"`

	// Model settings for the depth and segmentation collaborators.
	Models struct {
		ORTSharedLibraryPath  string `json:"ortSharedLibraryPath"`
		DepthModelPath        string `json:"depthModelPath"`
		SegmentationModelPath string `json:"segmentationModelPath"`
		DepthInputSize        int    `json:"depthInputSize"`
		SegmentationClasses   int    `json:"segmentationClasses"`

		// DepthHigherIsCloser declares the depth model's polarity. Model
		// conventions vary; this cannot be inferred and stays user-facing.
		DepthHigherIsCloser bool `json:"depthHigherIsCloser"`

		// SegmentationWallClass and SegmentationFloorClass are the model's
		// class ids for the two paintable surfaces (ADE20K: wall 0, floor 3).
		SegmentationWallClass  int `json:"segmentationWallClass"`
		SegmentationFloorClass int `json:"segmentationFloorClass"`
	} `json:"models"`

	// Render settings; zero values select the pipeline defaults.
	Render struct {
		WallFeatherPx         int     `json:"wallFeatherPx"`
		FloorFeatherPx        int     `json:"floorFeatherPx"`
		DepthTolerancePercent float64 `json:"depthTolerancePercent"`
		CloseRadius           int     `json:"closeRadius"`
		EdgeBlurPx            int     `json:"edgeBlurPx"`
		LightingBlurPx        int     `json:"lightingBlurPx"`
		LightingFloor         int     `json:"lightingFloor"`
		GroutOpacity          float64 `json:"groutOpacity"`
		NoiseOpacity          float64 `json:"noiseOpacity"`
	} `json:"render"`
}

var (
	cfgMu sync.RWMutex
	cfg   Config
)

// DefaultIndexDBPath returns the default tile-index database path in the
// platform data directory.
func DefaultIndexDBPath() string {
	return filepath.Join(platform.GetDataDir(), "tiles.db")
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	return platform.GetDataDir()
}

func defaultCatalogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tiles"
	}
	return filepath.Join(home, "tiles")
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() Config {
	var c Config
	c.CatalogPath = defaultCatalogPath()
	c.IndexDBPath = DefaultIndexDBPath()
	c.Models.DepthInputSize = 384
	c.Models.SegmentationClasses = 150
	c.Models.SegmentationFloorClass = 3
	c.Render.WallFeatherPx = 5
	c.Render.FloorFeatherPx = 8
	c.Render.DepthTolerancePercent = 0.15
	c.Render.CloseRadius = 3
	c.Render.EdgeBlurPx = 2
	c.Render.LightingBlurPx = 40
	c.Render.LightingFloor = 110
	c.Render.GroutOpacity = 0.3
	c.Render.NoiseOpacity = 0.018
	return c
}

// Get returns a copy of the current in-memory config.
func Get() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

// Set replaces the in-memory config.
func Set(c Config) {
	cfgMu.Lock()
	cfg = c
	cfgMu.Unlock()
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func deepMergeJSON(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		if existing, ok := dst[k]; ok && isJSONObject(existing) && isJSONObject(v) {
			var dstObj map[string]json.RawMessage
			var srcObj map[string]json.RawMessage
			if err := json.Unmarshal(existing, &dstObj); err != nil {
				dst[k] = v
				continue
			}
			if err := json.Unmarshal(v, &srcObj); err != nil {
				dst[k] = v
				continue
			}
			deepMergeJSON(dstObj, srcObj)
			merged, err := json.Marshal(dstObj)
			if err != nil {
				dst[k] = v
				continue
			}
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// getConfigPath returns the full path to the config.json file.
func getConfigPath() (string, error) {
	return filepath.Join(DefaultConfigDir(), "config.json"), nil
}

// Load reads the config from disk and updates the in-memory config,
// returning the config and its path. A missing file is created with
// defaults; missing fields are filled from defaults.
func Load() (Config, string, error) {
	path, err := getConfigPath()
	if err != nil {
		return Config{}, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Config{}, "", fmt.Errorf("failed to create config directory %s: %v", filepath.Dir(path), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			def := defaultConfig()
			savedPath, saveErr := Save(def)
			if saveErr != nil {
				return Config{}, path, fmt.Errorf("failed to create default config file: %v", saveErr)
			}
			Set(def)
			return def, savedPath, nil
		}
		return Config{}, path, fmt.Errorf("failed to read config file at %s: %v", path, err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, path, fmt.Errorf("failed to parse config JSON: %v", err)
	}

	// Merge defaults for any missing fields.
	def := defaultConfig()
	if c.CatalogPath == "" {
		c.CatalogPath = def.CatalogPath
	}
	if c.IndexDBPath == "" {
		c.IndexDBPath = def.IndexDBPath
	}
	if c.Models.DepthInputSize == 0 {
		c.Models.DepthInputSize = def.Models.DepthInputSize
	}
	if c.Models.SegmentationClasses == 0 {
		c.Models.SegmentationClasses = def.Models.SegmentationClasses
	}
	if c.Models.SegmentationFloorClass == 0 {
		c.Models.SegmentationFloorClass = def.Models.SegmentationFloorClass
	}
	if c.Render.WallFeatherPx == 0 {
		c.Render.WallFeatherPx = def.Render.WallFeatherPx
	}
	if c.Render.FloorFeatherPx == 0 {
		c.Render.FloorFeatherPx = def.Render.FloorFeatherPx
	}
	if c.Render.DepthTolerancePercent == 0 {
		c.Render.DepthTolerancePercent = def.Render.DepthTolerancePercent
	}
	if c.Render.CloseRadius == 0 {
		c.Render.CloseRadius = def.Render.CloseRadius
	}
	if c.Render.EdgeBlurPx == 0 {
		c.Render.EdgeBlurPx = def.Render.EdgeBlurPx
	}
	if c.Render.LightingBlurPx == 0 {
		c.Render.LightingBlurPx = def.Render.LightingBlurPx
	}
	if c.Render.LightingFloor == 0 {
		c.Render.LightingFloor = def.Render.LightingFloor
	}
	if c.Render.GroutOpacity == 0 {
		c.Render.GroutOpacity = def.Render.GroutOpacity
	}
	if c.Render.NoiseOpacity == 0 {
		c.Render.NoiseOpacity = def.Render.NoiseOpacity
	}

	Set(c)
	return c, path, nil
}

// Save writes the config to disk with a deep merge over any existing file,
// creating the directory as needed. Returns the path.
func Save(c Config) (string, error) {
	path, err := getConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, fmt.Errorf("failed to create config directory: %v", err)
	}
	base := map[string]json.RawMessage{}
	if existing, readErr := os.ReadFile(path); readErr == nil {
		var tmp map[string]json.RawMessage
		if err := json.Unmarshal(existing, &tmp); err == nil {
			base = tmp
		}
	}

	marshaled, err := json.Marshal(c)
	if err != nil {
		return path, fmt.Errorf("failed to marshal config: %v", err)
	}
	incoming := map[string]json.RawMessage{}
	if err := json.Unmarshal(marshaled, &incoming); err != nil {
		return path, fmt.Errorf("failed to map config JSON: %v", err)
	}

	deepMergeJSON(base, incoming)

	mergedData, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to marshal merged config: %v", err)
	}
	if err := os.WriteFile(path, mergedData, 0644); err != nil {
		return path, fmt.Errorf("failed to write config file: %v", err)
	}
	Set(c)
	return path, nil
}
