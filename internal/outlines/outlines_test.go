package outlines

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polygon(name string, x float64) string {
	return `{"type":"Feature","properties":{"name":"` + name + `"},"geometry":{"type":"Polygon","coordinates":[[[` +
		ftoa(x) + `,-41],[` + ftoa(x+1) + `,-41],[` + ftoa(x+1) + `,-42],[` + ftoa(x) + `,-41]]]}}`
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func collection(features ...string) string {
	out := `{"type":"FeatureCollection","features":[`
	for i, f := range features {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out + "]}"
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newLayout(t *testing.T) Layout {
	t.Helper()
	l := Layout{Root: t.TempDir()}
	write(t, filepath.Join(l.ModelVersionsDir(), "2p03.yaml"), "basins:\n  - Wellington_v19p6\n  - Nelson_v1p0\n")
	write(t, filepath.Join(l.ModelVersionsDir(), "2p07.yaml"), "basins:\n  - Nelson_v1p0\n")
	write(t, filepath.Join(l.RegionalDir(), "Wellington", "b_outline.geojson"), collection(polygon("w2", 174)))
	write(t, filepath.Join(l.RegionalDir(), "Wellington", "a_outline.geojson"), collection(polygon("w1", 175), polygon("w1b", 176)))
	write(t, filepath.Join(l.RegionalDir(), "Wellington", "notes.txt"), "ignored")
	write(t, filepath.Join(l.RegionalDir(), "Nelson", "nelson.geojson"), collection(`{"type":"Feature","geometry":null}`))
	return l
}

func TestBasinDirName(t *testing.T) {
	assert.Equal(t, "Wellington", BasinDirName("Wellington_v19p6"))
	assert.Equal(t, "Canterbury_Pre_Quaternary", BasinDirName("Canterbury_Pre_Quaternary_v19p1"))
	assert.Equal(t, "Nelson", BasinDirName("Nelson"))
}

func TestReadBasins(t *testing.T) {
	l := newLayout(t)
	basins, err := ReadBasins(filepath.Join(l.ModelVersionsDir(), "2p03.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Wellington_v19p6", "Nelson_v1p0"}, basins)
}

func TestBasinFilesSorted(t *testing.T) {
	l := newLayout(t)
	files, err := BasinFiles(l.RegionalDir(), "Wellington_v19p6")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_outline.geojson", filepath.Base(files[0]))
	assert.Equal(t, "b_outline.geojson", filepath.Base(files[1]))

	files, err = BasinFiles(l.RegionalDir(), "Missing_v1")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCombineStylesFeatures(t *testing.T) {
	l := newLayout(t)
	files, err := BasinFiles(l.RegionalDir(), "Wellington")
	require.NoError(t, err)
	nelson, err := BasinFiles(l.RegionalDir(), "Nelson")
	require.NoError(t, err)

	fc, err := Combine(append(files, nelson...))
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 4)

	props := fc.Features[0].Properties()
	assert.Equal(t, "w1", props["name"])
	assert.Equal(t, "#ba0045", props["stroke"])
	assert.Equal(t, "#ba0045", props["fill"])
	assert.Equal(t, 1, props["stroke-width"])
	assert.Equal(t, 0.3, props["fill-opacity"])
	assert.Equal(t, "a_outline.geojson", props["source_file"])
	assert.Equal(t, "b_outline.geojson", fc.Features[2].SourceFile())
	assert.Equal(t, "nelson.geojson", fc.Features[3].SourceFile())
}

func TestGenerate(t *testing.T) {
	l := newLayout(t)
	results, err := Generate(context.Background(), l, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2p03", results[0].Version)
	assert.Equal(t, 3, results[0].Files)

	fc, err := ReadCollection(filepath.Join(l.OutputDir(), "2p03_basins.geojson"))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 4)

	fc, err = ReadCollection(filepath.Join(l.OutputDir(), "2p07_basins.geojson"))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestGenerateCompressed(t *testing.T) {
	l := newLayout(t)
	write(t, filepath.Join(l.OutputDir(), "2p07_basins.geojson"), "stale")

	_, err := Generate(context.Background(), l, true)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(l.OutputDir(), "2p07_basins.geojson"))
	fc, err := ReadCollection(filepath.Join(l.OutputDir(), "2p07_basins.geojson.gz"))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestGenerateReportsFailedVersion(t *testing.T) {
	l := newLayout(t)
	write(t, filepath.Join(l.ModelVersionsDir(), "9p99.yaml"), "basins:\n  - Nowhere_v1\n")

	results, err := Generate(context.Background(), l, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "9p99")
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)
	assert.FileExists(t, filepath.Join(l.OutputDir(), "2p03_basins.geojson"))
}

func TestGenerateMissingDirs(t *testing.T) {
	_, err := Generate(context.Background(), Layout{Root: t.TempDir()}, false)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.geojson")
	b := filepath.Join(dir, "b.geojson")
	write(t, a, collection(
		`{"type":"Feature","properties":{"source_file":"x.geojson"},"geometry":{"type":"Polygon","coordinates":[[[1,2],[3,4],[5,6],[1,2]]]}}`,
		`{"type":"Feature","properties":{"source_file":"x.geojson"},"geometry":{"type":"Polygon","coordinates":[[[1,2],[3,4],[5,6],[9,9]]]}}`,
		`{"type":"Feature","properties":{"source_file":"y.geojson"},"geometry":{"type":"Polygon","coordinates":[[[7,8],[3,4],[5,6],[7,8]]]}}`,
	))
	write(t, b, collection(
		`{"type":"Feature","properties":{"source_file":"y.geojson"},"geometry":{"type":"Polygon","coordinates":[[[7,8],[3,4],[5,6],[7,8]]]}}`,
		`{"type":"Feature","properties":{"source_file":"x.geojson"},"geometry":{"type":"Polygon","coordinates":[[[1,2],[3,4],[5,6],[1,2]]]}}`,
		`{"type":"Feature","properties":{"source_file":"z.geojson"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[3,4],[5,6],[0,0]]]}}`,
	))
	fa, err := ReadCollection(a)
	require.NoError(t, err)
	fb, err := ReadCollection(b)
	require.NoError(t, err)

	r := Compare(fa, fb)
	assert.Equal(t, 3, r.FeaturesA)
	assert.Equal(t, 3, r.FeaturesB)
	assert.Equal(t, map[string]int{"x.geojson": 2, "y.geojson": 1}, r.SourcesA)
	assert.Equal(t, []Duplicate{{SourceFile: "x.geojson", First: 0, Second: 1}}, r.DuplicatesA)
	assert.Empty(t, r.DuplicatesB)
	assert.Empty(t, r.OnlyInA)
	assert.Equal(t, []string{"z.geojson"}, r.OnlyInB)
	assert.Equal(t, 2, r.Common)
	assert.Equal(t, []CountDiff{{SourceFile: "x.geojson", A: 2, B: 1}}, r.CountDiffs)
	assert.False(t, r.SameOrder)
	assert.False(t, r.SameSourceSet)

	var buf bytes.Buffer
	r.WriteText(&buf)
	assert.Contains(t, buf.String(), "Source files only in File 2: z.geojson")
	assert.Contains(t, buf.String(), "x.geojson: File1=2, File2=1")

	same := Compare(fa, fa)
	assert.True(t, same.SameOrder)
	assert.True(t, same.SameSourceSet)
	assert.Empty(t, same.CountDiffs)
}
