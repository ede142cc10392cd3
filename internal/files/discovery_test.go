package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("timestamp,kwh\n"), 0644))
	return path
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.Equal(t, "/test/base", discovery.basePath)
	assert.Equal(t, "/test/base/data", discovery.resolve("data"))
	assert.Equal(t, "/abs", discovery.resolve("/abs"))
}

func TestFindFilesByPattern(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		dirs     []string
		pattern  string
		expected []string
	}{
		{
			name:     "csv files sorted by name",
			files:    []string{"BuildingC_Jan.csv", "BuildingA_Feb.csv", "BuildingA_Jan.csv"},
			pattern:  "*.csv",
			expected: []string{"BuildingA_Feb.csv", "BuildingA_Jan.csv", "BuildingC_Jan.csv"},
		},
		{
			name:     "mixed types",
			files:    []string{"a.csv", "b.xlsx", "notes.txt"},
			pattern:  "*.csv",
			expected: []string{"a.csv"},
		},
		{
			name:     "directories and lock files are skipped",
			files:    []string{"a.xlsx", "~$a.xlsx"},
			dirs:     []string{"nested.xlsx"},
			pattern:  "*.xlsx",
			expected: []string{"a.xlsx"},
		},
		{
			name:     "no matches",
			files:    []string{"a.txt"},
			pattern:  "*.csv",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, dir, f)
			}
			for _, d := range tt.dirs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0755))
			}

			found, err := NewDiscovery("").FindFilesByPattern(dir, tt.pattern)
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindFilesByPattern_InvalidPattern(t *testing.T) {
	_, err := NewDiscovery("").FindFilesByPattern(t.TempDir(), "[")
	assert.Error(t, err)
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	file := touch(t, dir, "a.csv")
	d := NewDiscovery("")

	assert.True(t, d.DirExists(dir))
	assert.False(t, d.DirExists(file))
	assert.False(t, d.DirExists(filepath.Join(dir, "missing")))
}

func TestParseFileMeta(t *testing.T) {
	tests := []struct {
		name string
		file string
		want FileMeta
	}{
		{"conventional", "BuildingA_Jan.csv", FileMeta{Entity: "BuildingA", Period: "Jan", Valid: true}},
		{"extra parts ignored", "BuildingB_Feb_v2.csv", FileMeta{Entity: "BuildingB", Period: "Feb", Valid: true}},
		{"full path", "/data/BuildingC_Mar.xlsx", FileMeta{Entity: "BuildingC", Period: "Mar", Valid: true}},
		{"no underscore", "readings.csv", FileMeta{}},
		{"empty entity", "_Jan.csv", FileMeta{}},
		{"empty period", "BuildingA_.csv", FileMeta{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFileMeta(tt.file))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "BuildingA_Jan.csv", FileName("BuildingA", "Jan", "csv"))
	assert.Equal(t, "BuildingA_Jan.csv", FileName("BuildingA", "Jan", ".csv"))
	assert.Equal(t, FileMeta{Entity: "X", Period: "Y", Valid: true}, ParseFileMeta(FileName("X", "Y", ".csv")))
}
