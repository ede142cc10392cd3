package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Ingest.DataDir = "/abs/meters"

	paths, err := GetPaths(cfg, base)
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, "/abs/meters", paths.DataDir, "absolute paths are kept")
	assert.Equal(t, filepath.Join(base, "output"), paths.OutputDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "output", "metrics.prom"), paths.MetricsFile)
	assert.Equal(t, filepath.Join(base, "output", "trace.json"), paths.TraceFile)
	assert.Equal(t, filepath.Join(base, "marks.csv"), paths.GradebookFile)
	assert.Equal(t, filepath.Join(base, "catalog.json"), paths.CatalogFile)
	assert.Equal(t, filepath.Join(base, "output", SummaryTXT), paths.Output(SummaryTXT))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := GetPaths(Default(), base)
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())

	assert.DirExists(t, paths.OutputDir)
	assert.DirExists(t, paths.LogsDir)
	_, err = os.Stat(paths.DataDir)
	assert.True(t, os.IsNotExist(err), "data directory must not be created")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.True(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
}
