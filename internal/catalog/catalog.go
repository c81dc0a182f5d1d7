// Package catalog lists the model versions and overlay files the map page
// can show.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

const (
	overlaySuffix = "_basins.geojson"
	listPattern   = "*basins.geojson"
)

var ErrDirNotFound = errors.New("directory not found")

type ModelVersion struct {
	Version        string `json:"version"`
	DisplayVersion string `json:"display_version"`
	GeoJSONFile    string `json:"geojson_file"`
	YAMLFile       string `json:"yaml_file"`
	BaseVersion    string `json:"base_version"`
}

// Catalog caches the listings of a model-version directory and an overlay
// directory. Invalidate drops the cache; the next read rescans.
type Catalog struct {
	modelDir   string
	geojsonDir string

	mu       sync.Mutex
	versions []ModelVersion
	files    []string
	fresh    bool
}

func New(modelDir, geojsonDir string) *Catalog {
	return &Catalog{modelDir: modelDir, geojsonDir: geojsonDir}
}

func (c *Catalog) ModelDir() string   { return c.modelDir }
func (c *Catalog) GeoJSONDir() string { return c.geojsonDir }

func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.fresh = false
	c.mu.Unlock()
}

// ModelVersions returns versions that have both a YAML file and an overlay,
// newest first.
func (c *Catalog) ModelVersions() ([]ModelVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return nil, err
	}
	return append([]ModelVersion(nil), c.versions...), nil
}

// OverlayFiles returns overlay file names in reverse lexical order.
func (c *Catalog) OverlayFiles() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return nil, err
	}
	return append([]string(nil), c.files...), nil
}

func (c *Catalog) refreshLocked() error {
	if c.fresh {
		return nil
	}
	versions, err := scanModelVersions(c.modelDir, c.geojsonDir)
	if err != nil {
		return err
	}
	files, err := scanOverlays(c.geojsonDir)
	if err != nil {
		return err
	}
	c.versions = versions
	c.files = files
	c.fresh = true
	return nil
}

func requireDir(kind, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s %w: %s", kind, ErrDirNotFound, dir)
	}
	return nil
}

func scanModelVersions(modelDir, geojsonDir string) ([]ModelVersion, error) {
	if err := requireDir("model versions", modelDir); err != nil {
		return nil, err
	}
	if err := requireDir("geojson", geojsonDir); err != nil {
		return nil, err
	}

	paths, err := filepath.Glob(filepath.Join(modelDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	versions := []ModelVersion{}
	for _, p := range paths {
		yamlFile := filepath.Base(p)
		name := strings.TrimSuffix(yamlFile, ".yaml")
		overlay := name + overlaySuffix
		if _, err := os.Stat(filepath.Join(geojsonDir, overlay)); err != nil {
			continue
		}
		v := Describe(name)
		v.YAMLFile = yamlFile
		v.GeoJSONFile = overlay
		versions = append(versions, v)
	}
	SortVersions(versions)
	return versions, nil
}

func scanOverlays(dir string) ([]string, error) {
	if err := requireDir("geojson", dir); err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, listPattern))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		files = append(files, filepath.Base(p))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// Describe derives the display fields of a version name: "2p03" becomes
// "2.03" and "2p03_nelson_only" becomes "2.03 Nelson Only".
func Describe(name string) ModelVersion {
	base, descriptor, found := strings.Cut(name, "_")
	display := strings.ReplaceAll(base, "p", ".")
	if found {
		display += " " + title(strings.ReplaceAll(descriptor, "_", " "))
	}
	return ModelVersion{Version: name, DisplayVersion: display, BaseVersion: base}
}

// title upper-cases letters that follow a non-letter and lower-cases the rest.
func title(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

var versionNumber = regexp.MustCompile(`^(\d+)p(\d+)`)

func versionKey(base string) (int, int) {
	m := versionNumber.FindStringSubmatch(base)
	if m == nil {
		return 0, 0
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return major, minor
}

// SortVersions orders by major then minor version descending, plain versions
// before descriptor variants, then by name.
func SortVersions(vs []ModelVersion) {
	sort.SliceStable(vs, func(i, j int) bool {
		ai, bi := versionKey(vs[i].BaseVersion)
		aj, bj := versionKey(vs[j].BaseVersion)
		if ai != aj {
			return ai > aj
		}
		if bi != bj {
			return bi > bj
		}
		di := strings.Contains(vs[i].Version, "_")
		dj := strings.Contains(vs[j].Version, "_")
		if di != dj {
			return !di
		}
		return vs[i].Version < vs[j].Version
	})
}
