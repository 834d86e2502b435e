package appconfig

import (
	"encoding/json"
	"testing"
)

func mustRawMap(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return m
}

func TestDeepMergeJSON(t *testing.T) {
	dst := mustRawMap(t, `{
		"catalogPath": "/old/tiles",
		"render": {"wallFeatherPx": 5, "groutOpacity": 0.3},
		"models": {"depthInputSize": 384}
	}`)
	src := mustRawMap(t, `{
		"catalogPath": "/new/tiles",
		"render": {"wallFeatherPx": 9}
	}`)
	deepMergeJSON(dst, src)

	var got struct {
		CatalogPath string `json:"catalogPath"`
		Render      struct {
			WallFeatherPx int     `json:"wallFeatherPx"`
			GroutOpacity  float64 `json:"groutOpacity"`
		} `json:"render"`
		Models struct {
			DepthInputSize int `json:"depthInputSize"`
		} `json:"models"`
	}
	merged, err := json.Marshal(dst)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(merged, &got); err != nil {
		t.Fatal(err)
	}
	if got.CatalogPath != "/new/tiles" {
		t.Errorf("catalogPath = %q; want overridden value", got.CatalogPath)
	}
	if got.Render.WallFeatherPx != 9 {
		t.Errorf("wallFeatherPx = %d; want 9", got.Render.WallFeatherPx)
	}
	if got.Render.GroutOpacity != 0.3 {
		t.Errorf("groutOpacity = %v; want sibling key preserved", got.Render.GroutOpacity)
	}
	if got.Models.DepthInputSize != 384 {
		t.Errorf("depthInputSize = %d; want untouched subtree preserved", got.Models.DepthInputSize)
	}
}

func TestDeepMergeJSONTypeMismatchReplaces(t *testing.T) {
	dst := mustRawMap(t, `{"render": {"wallFeatherPx": 5}}`)
	src := mustRawMap(t, `{"render": "disabled"}`)
	deepMergeJSON(dst, src)
	if string(dst["render"]) != `"disabled"` {
		t.Errorf("render = %s; want scalar replacement", dst["render"])
	}
}

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()
	if c.CatalogPath == "" {
		t.Error("default catalog path is empty")
	}
	if c.IndexDBPath == "" {
		t.Error("default index db path is empty")
	}
	if c.Models.DepthInputSize != 384 {
		t.Errorf("depth input size = %d; want 384", c.Models.DepthInputSize)
	}
	if c.Models.SegmentationClasses != 150 {
		t.Errorf("segmentation classes = %d; want 150", c.Models.SegmentationClasses)
	}
	if c.Models.SegmentationWallClass != 0 || c.Models.SegmentationFloorClass != 3 {
		t.Errorf("segmentation surface classes = (%d, %d); want (0, 3)",
			c.Models.SegmentationWallClass, c.Models.SegmentationFloorClass)
	}
	if c.Render.WallFeatherPx != 5 || c.Render.FloorFeatherPx != 8 {
		t.Errorf("feather defaults = (%d, %d); want (5, 8)", c.Render.WallFeatherPx, c.Render.FloorFeatherPx)
	}
	if c.Render.DepthTolerancePercent != 0.15 {
		t.Errorf("depth tolerance = %v; want 0.15", c.Render.DepthTolerancePercent)
	}
	if c.Render.LightingFloor != 110 {
		t.Errorf("lighting floor = %d; want 110", c.Render.LightingFloor)
	}
	if c.Render.NoiseOpacity != 0.018 {
		t.Errorf("noise opacity = %v; want 0.018", c.Render.NoiseOpacity)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	orig := Get()
	defer Set(orig)

	c := defaultConfig()
	c.CatalogPath = "/tmp/test-tiles"
	Set(c)
	if got := Get(); got.CatalogPath != "/tmp/test-tiles" {
		t.Errorf("Get().CatalogPath = %q; want %q", got.CatalogPath, "/tmp/test-tiles")
	}
	// Get returns a copy; mutating it does not touch the stored config.
	snap := Get()
	snap.CatalogPath = "/elsewhere"
	if got := Get(); got.CatalogPath != "/tmp/test-tiles" {
		t.Error("mutating a Get() copy changed the stored config")
	}
}
