// Package outlines builds the per-model-version basin overlays shown on the
// map and compares overlay files.
package outlines

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Feature keeps every member of a GeoJSON feature so nothing is lost when
// overlays are combined.
type Feature map[string]interface{}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Properties returns the feature's properties object, creating it when absent.
func (f Feature) Properties() map[string]interface{} {
	props, ok := f["properties"].(map[string]interface{})
	if !ok {
		props = make(map[string]interface{})
		f["properties"] = props
	}
	return props
}

// SourceFile returns the source_file property or "unknown".
func (f Feature) SourceFile() string {
	props, _ := f["properties"].(map[string]interface{})
	if s, ok := props["source_file"].(string); ok {
		return s
	}
	return "unknown"
}

// ReadCollection reads a GeoJSON file. Files ending in .gz are decompressed.
func ReadCollection(path string) (FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return FeatureCollection{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return FeatureCollection{}, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return FeatureCollection{}, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// WriteCollection writes fc as indented JSON to path, or gzipped to
// path+".gz" when compress is set, removing any plain file at path. It
// returns the path written.
func WriteCollection(path string, fc FeatureCollection, compress bool) (string, error) {
	if compress {
		// A plain file from an earlier uncompressed run would shadow the new one.
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		path += ".gz"
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	err = enc.Encode(fc)
	if gz != nil {
		if cerr := gz.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Style is applied to every combined feature.
var Style = map[string]interface{}{
	"stroke":       "#ba0045",
	"fill":         "#ba0045",
	"stroke-width": 1,
	"fill-opacity": 0.3,
}

// Combine concatenates the features of files in order, styling each and
// tagging it with the base name of its file.
func Combine(files []string) (FeatureCollection, error) {
	combined := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, path := range files {
		fc, err := ReadCollection(path)
		if err != nil {
			return FeatureCollection{}, fmt.Errorf("combine: %w", err)
		}
		name := filepath.Base(path)
		for _, feature := range fc.Features {
			if feature == nil {
				continue
			}
			props := feature.Properties()
			for k, v := range Style {
				props[k] = v
			}
			props["source_file"] = name
			combined.Features = append(combined.Features, feature)
		}
	}
	return combined, nil
}
