package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConfigNewAndEstimate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nzcvm.cfg")

	_, err := execute(t, "config", "new", "--out", path, "--spacing", "0.4", "--rotation", "-30")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ORIGIN_ROT=330\n")
	assert.Contains(t, string(data), "EXTENT_LATLON_SPACING=0.4\n")

	out, err := execute(t, "estimate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Grid: nx=750 ny=750 nz=46")
	assert.Contains(t, out, "Total points: 25875000")
	assert.Contains(t, out, "Estimated runtime: 705.")
	assert.Contains(t, out, "run the generator locally")

	out, err = execute(t, "config", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestConfigNewRejectsBadExtent(t *testing.T) {
	_, err := execute(t, "config", "new", "--out", filepath.Join(t.TempDir(), "x.cfg"), "--extent-x", "0")
	assert.Error(t, err)
}

func TestSubmitRefusedLocally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nzcvm.cfg")
	_, err := execute(t, "config", "new", "--out", path, "--spacing", "0.1")
	require.NoError(t, err)

	archive := filepath.Join(dir, "out.zip")
	_, err = execute(t, "submit", path, "--server", "http://127.0.0.1:1", "--out", archive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locally")
	assert.NoFileExists(t, archive)
}
