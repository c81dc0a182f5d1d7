package outlines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/nzcvm/nzcvm-webapp/internal/logging"
)

// Layout names the directories under a velocity modelling root.
type Layout struct {
	Root string
}

func (l Layout) ModelVersionsDir() string { return filepath.Join(l.Root, "model_versions") }
func (l Layout) RegionalDir() string      { return filepath.Join(l.Root, "data", "regional") }
func (l Layout) OutputDir() string        { return filepath.Join(l.Root, "generated_basin_geojsons") }

type modelVersionFile struct {
	Basins []string `yaml:"basins"`
}

// ReadBasins returns the basin list of a model-version YAML file.
func ReadBasins(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mv modelVersionFile
	if err := yaml.Unmarshal(data, &mv); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return mv.Basins, nil
}

// BasinDirName drops a version suffix: "Wellington_v19p6" is "Wellington".
func BasinDirName(basin string) string {
	name, _, _ := strings.Cut(basin, "_v")
	return name
}

// BasinFiles lists the outline files of a basin, sorted. A missing basin
// directory yields no files.
func BasinFiles(regionalDir, basin string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(regionalDir, BasinDirName(basin), "*.geojson"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

type VersionResult struct {
	Version string
	Output  string
	Files   int
	Err     error
}

// Generate builds one overlay per model-version YAML file under layout.
// Versions are processed concurrently; a failing version does not stop the
// others. The returned error joins every version failure.
func Generate(ctx context.Context, layout Layout, compress bool) ([]VersionResult, error) {
	log := logging.From(ctx)

	for _, dir := range []string{layout.ModelVersionsDir(), layout.RegionalDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("required directory not found: %s", dir)
		}
	}
	if err := os.MkdirAll(layout.OutputDir(), 0o755); err != nil {
		return nil, err
	}

	yamls, err := filepath.Glob(filepath.Join(layout.ModelVersionsDir(), "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(yamls) == 0 {
		return nil, fmt.Errorf("no model version files in %s", layout.ModelVersionsDir())
	}
	sort.Strings(yamls)

	results := make([]VersionResult, len(yamls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range yamls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = processVersion(layout, path, compress)
			if results[i].Err != nil {
				log.Warn("model version failed", zap.String("version", results[i].Version), zap.Error(results[i].Err))
			} else {
				log.Info("model version processed",
					zap.String("version", results[i].Version),
					zap.Int("files", results[i].Files),
					zap.String("output", results[i].Output),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Version, r.Err))
		}
	}
	return results, errors.Join(errs...)
}

func processVersion(layout Layout, yamlPath string, compress bool) VersionResult {
	version := strings.TrimSuffix(filepath.Base(yamlPath), ".yaml")
	res := VersionResult{Version: version}

	basins, err := ReadBasins(yamlPath)
	if err != nil {
		res.Err = err
		return res
	}
	var files []string
	for _, basin := range basins {
		found, err := BasinFiles(layout.RegionalDir(), basin)
		if err != nil {
			res.Err = err
			return res
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		res.Err = errors.New("no basin outline files found")
		return res
	}

	fc, err := Combine(files)
	if err != nil {
		res.Err = err
		return res
	}
	res.Files = len(files)
	res.Output, res.Err = WriteCollection(filepath.Join(layout.OutputDir(), version+"_basins.geojson"), fc, compress)
	return res
}
