package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_WriteFile(t *testing.T) {
	m := NewManager(nil)
	path := filepath.Join(t.TempDir(), "nested", "catalog.json")

	require.NoError(t, m.WriteFile(path, []byte("first")))
	assert.True(t, m.FileExists(path))

	require.NoError(t, m.WriteFile(path, []byte("second")))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed away")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestManager_EnsureDirectory(t *testing.T) {
	m := NewManager(nil)
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, m.EnsureDirectory(dir))
	assert.DirExists(t, dir)
	require.NoError(t, m.EnsureDirectory(dir), "idempotent")
}
