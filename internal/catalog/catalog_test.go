package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const overlay = `{"type":"FeatureCollection","features":[]}`

func newFixture(t *testing.T) (*Catalog, string, string) {
	t.Helper()
	modelDir := t.TempDir()
	geoDir := t.TempDir()
	for _, v := range []string{"2p03", "2p07", "2p07_nelson_only", "2p07_alpha", "1p65", "custom"} {
		writeFile(t, modelDir, v+".yaml", "basins: []\n")
		writeFile(t, geoDir, v+"_basins.geojson", overlay)
	}
	// No overlay for this one.
	writeFile(t, modelDir, "3p00.yaml", "basins: []\n")
	writeFile(t, geoDir, "notes.txt", "x")
	return New(modelDir, geoDir), modelDir, geoDir
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name, display, base string
	}{
		{"2p03", "2.03", "2p03"},
		{"2p03_nelson_only", "2.03 Nelson Only", "2p03"},
		{"2p07_ALPHA_test", "2.07 Alpha Test", "2p07"},
		{"custom", "custom", "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Describe(tt.name)
			assert.Equal(t, tt.name, v.Version)
			assert.Equal(t, tt.display, v.DisplayVersion)
			assert.Equal(t, tt.base, v.BaseVersion)
		})
	}
}

func TestModelVersionsSorted(t *testing.T) {
	c, _, _ := newFixture(t)
	versions, err := c.ModelVersions()
	require.NoError(t, err)

	var names []string
	for _, v := range versions {
		names = append(names, v.Version)
	}
	assert.Equal(t, []string{"2p07", "2p07_alpha", "2p07_nelson_only", "2p03", "1p65", "custom"}, names)
	assert.Equal(t, "2p07_nelson_only_basins.geojson", versions[2].GeoJSONFile)
	assert.Equal(t, "2p07_nelson_only.yaml", versions[2].YAMLFile)
}

func TestOverlayFilesReverseSorted(t *testing.T) {
	c, _, _ := newFixture(t)
	files, err := c.OverlayFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"custom_basins.geojson",
		"2p07_nelson_only_basins.geojson",
		"2p07_basins.geojson",
		"2p07_alpha_basins.geojson",
		"2p03_basins.geojson",
		"1p65_basins.geojson",
	}, files)
}

func TestCacheUntilInvalidated(t *testing.T) {
	c, modelDir, geoDir := newFixture(t)
	before, err := c.ModelVersions()
	require.NoError(t, err)

	writeFile(t, modelDir, "2p08.yaml", "basins: []\n")
	writeFile(t, geoDir, "2p08_basins.geojson", overlay)

	cached, err := c.ModelVersions()
	require.NoError(t, err)
	assert.Len(t, cached, len(before))

	c.Invalidate()
	after, err := c.ModelVersions()
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "2p08", after[0].Version)
}

func TestWatchInvalidates(t *testing.T) {
	c, _, geoDir := newFixture(t)
	files, err := c.OverlayFiles()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, 10*time.Millisecond) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// The watcher may not be registered yet; keep touching until it sees one.
	assert.Eventually(t, func() bool {
		writeFile(t, geoDir, "9p99_basins.geojson", overlay)
		got, err := c.OverlayFiles()
		return err == nil && len(got) == len(files)+1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, c.Watch(context.Background(), time.Millisecond))
}

func serve(t *testing.T, c *Catalog, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	NewHandler(c).InitRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestListModelVersionsEndpoint(t *testing.T) {
	c, _, _ := newFixture(t)
	rr := serve(t, c, "/model-versions/list")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		ModelVersions []map[string]string `json:"model_versions"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.ModelVersions, 6)
	assert.Equal(t, map[string]string{
		"version":         "2p07",
		"display_version": "2.07",
		"geojson_file":    "2p07_basins.geojson",
		"yaml_file":       "2p07.yaml",
		"base_version":    "2p07",
	}, body.ModelVersions[0])
}

func TestListEndpointsMissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, http.StatusNotFound, serve(t, c, "/model-versions/list").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, c, "/geojson/list").Code)
}

func TestListOverlaysEndpoint(t *testing.T) {
	c, _, _ := newFixture(t)
	rr := serve(t, c, "/geojson/list")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Files []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Files, 6)
}

func TestServeOverlay(t *testing.T) {
	c, _, geoDir := newFixture(t)
	writeFile(t, geoDir, "broken.geojson", "{not json")
	writeFile(t, geoDir, "data.json", overlay)

	rr := serve(t, c, "/geojson/2p03_basins.geojson")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, overlay, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(t, c, "/geojson/nothing.geojson").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, c, "/geojson/data.json").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, c, "/geojson/broken.geojson").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, c, "/geojson/..basins.geojson").Code)
}
