package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/internal/config"
)

// setupTestEnv returns a writer whose relative paths land in a temp output dir
func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	outputDir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{OutputDir: outputDir}, nil)
	return writer, outputDir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths, nil)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, outputDir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, filePath string)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"building", "kwh"},
				Records: [][]string{
					{"BuildingA", "25.00"},
					{"BuildingB", "30.50"},
				},
			},
			validate: func(t *testing.T, filePath string) {
				lines := readLines(t, filePath)
				assert.Equal(t, []string{"building,kwh", "BuildingA,25.00", "BuildingB,30.50"}, lines)
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers:   []string{"building", "kwh"},
				Records:   [][]string{{"BuildingA", "1"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, filePath string) {
				content, err := os.ReadFile(filePath)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
				lines := strings.Split(strings.TrimSpace(string(content[3:])), "\n")
				assert.Equal(t, "building,kwh", lines[0])
			},
		},
		{
			name:     "quoting of commas",
			filePath: "test_quote.csv",
			options: WriteOptions{
				Headers: []string{"name"},
				Records: [][]string{{"Smith, Jane"}},
			},
			validate: func(t *testing.T, filePath string) {
				assert.Equal(t, `"Smith, Jane"`, readLines(t, filePath)[1])
			},
		},
		{
			name:     "absolute path ignores output dir",
			filePath: filepath.Join(t.TempDir(), "nested", "abs.csv"),
			options: WriteOptions{
				Headers: []string{"a"},
				Records: [][]string{{"1"}},
			},
			validate: func(t *testing.T, filePath string) {
				assert.Equal(t, []string{"a", "1"}, readLines(t, filePath))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))

			full := tt.filePath
			if !filepath.IsAbs(full) {
				full = filepath.Join(outputDir, tt.filePath)
			}
			tt.validate(t, full)
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	writer, outputDir := setupTestEnv(t)
	path := filepath.Join(outputDir, "marks.csv")

	require.NoError(t, writer.AppendToCSV("marks.csv", [][]string{{"Asha", "95"}}))
	require.NoError(t, writer.AppendToCSV("marks.csv", [][]string{{"Ravi", "60"}, {"Mei", "70"}}))

	assert.Equal(t, []string{"Asha,95", "Ravi,60", "Mei,70"}, readLines(t, path))
}

func TestCSVWriter_AppendWritesHeaderOnlyOnce(t *testing.T) {
	writer, outputDir := setupTestEnv(t)
	opts := WriteOptions{Headers: []string{"h"}, Records: [][]string{{"1"}}, Append: true}

	require.NoError(t, writer.WriteCSV("log.csv", opts))
	require.NoError(t, writer.WriteCSV("log.csv", opts))

	assert.Equal(t, []string{"h", "1", "1"}, readLines(t, filepath.Join(outputDir, "log.csv")))
}

func TestCSVWriter_WriteSimpleCSVTruncates(t *testing.T) {
	writer, outputDir := setupTestEnv(t)

	require.NoError(t, writer.WriteSimpleCSV("out.csv", []string{"a"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, writer.WriteSimpleCSV("out.csv", []string{"a"}, [][]string{{"3"}}))

	assert.Equal(t, []string{"a", "3"}, readLines(t, filepath.Join(outputDir, "out.csv")))
}

func TestCSVWriter_StreamWriter(t *testing.T) {
	writer, outputDir := setupTestEnv(t)

	sw, err := writer.CreateStreamWriter("stream.csv", []string{"timestamp", "kwh"})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, sw.WriteRecord([]string{"2023-01-01 00:00:00", "1"}))
	}
	assert.Equal(t, 100, sw.Rows())
	require.NoError(t, sw.Close())

	lines := readLines(t, filepath.Join(outputDir, "stream.csv"))
	assert.Len(t, lines, 101)
	assert.Equal(t, "timestamp,kwh", lines[0])
}
