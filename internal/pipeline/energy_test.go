package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labpulse/internal/config"
	apperrors "labpulse/internal/errors"
	"labpulse/internal/infrastructure"
	sharedtest "labpulse/internal/shared/testutil"
)

var quietLogger = sharedtest.QuietLogger

// testEnv returns a config without sample generation and paths rooted in
// fresh temp directories
func testEnv(t *testing.T) (*config.Config, *config.Paths) {
	t.Helper()
	cfg := config.Default()
	cfg.Ingest.GenerateSample = false
	paths := &config.Paths{
		DataDir:   filepath.Join(t.TempDir(), "data"),
		OutputDir: t.TempDir(),
	}
	return cfg, paths
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func newTelemetry(t *testing.T) *infrastructure.Telemetry {
	t.Helper()
	cfg := config.Default().Telemetry
	cfg.EnableTracing = false
	tel, err := infrastructure.InitializeTelemetry(cfg, "", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { tel.Shutdown(context.Background()) })
	return tel
}

func writeMeterFiles(t *testing.T, dir string) {
	writeFile(t, dir, "BuildingA_Jan.csv",
		"timestamp,kwh\n"+
			"2023-01-02 00:00:00,10\n"+
			"2023-01-02 01:00:00,20\n"+
			"2023-01-03 00:00:00,bad\n")
	writeFile(t, dir, "BuildingB_Jan.csv",
		"timestamp,kwh\n"+
			"2023-01-02 05:00:00,5\n"+
			"2023-01-09 00:00:00,15\n")
}

func TestEnergyPipeline_Run(t *testing.T) {
	cfg, paths := testEnv(t)
	writeMeterFiles(t, paths.DataDir)
	tel := newTelemetry(t)
	var console bytes.Buffer

	result, err := NewEnergyPipeline(cfg, paths, tel, &console, quietLogger()).Run(context.Background())
	require.NoError(t, err)

	t.Run("ingest", func(t *testing.T) {
		assert.Equal(t, 4, result.Ingest.RowsRead())
		assert.Len(t, result.Ingest.RowsSkipped, 1)
		assert.Equal(t, 4.0, testutil.ToFloat64(tel.Pipeline.RowsRead))
		assert.Equal(t, 1.0, testutil.ToFloat64(tel.Pipeline.RowsSkipped))
	})

	t.Run("stages", func(t *testing.T) {
		require.Len(t, result.Stages, 4)
		for i, id := range []string{StageIngest, StageAggregate, StageModel, StageReport} {
			assert.Equal(t, id, result.Stages[i].ID)
			assert.Equal(t, StageStatusCompleted, result.Stages[i].Status)
		}
	})

	t.Run("weekly averages", func(t *testing.T) {
		assert.Equal(t, []string{"BuildingA", "BuildingB"}, result.WeeklyKeys)
		assert.InDelta(t, 30.0, result.WeeklyAverages["BuildingA"], 1e-9)
		assert.InDelta(t, 10.0, result.WeeklyAverages["BuildingB"], 1e-9)
	})

	t.Run("console", func(t *testing.T) {
		out := console.String()
		assert.Contains(t, out, "Building BuildingA: Total consumption 30.00 kWh")
		assert.Contains(t, out, "Building BuildingB: Total consumption 20.00 kWh")
		assert.Contains(t, out, "Executive Summary:")
	})

	t.Run("summary", func(t *testing.T) {
		content, err := os.ReadFile(filepath.Join(paths.OutputDir, config.SummaryTXT))
		require.NoError(t, err)
		assert.Equal(t, "Executive Summary:\n"+
			"- Total Campus Consumption: 50.00 kWh\n"+
			"- Highest-Consuming Building: BuildingA\n"+
			"- Peak Load Time: 2023-01-02 01:00:00\n"+
			"- Weekly Trends (Average Consumption per Building): {BuildingA: 15.00, BuildingB: 10.00}\n",
			string(content))
	})

	t.Run("csv outputs", func(t *testing.T) {
		cleaned := readLines(t, filepath.Join(paths.OutputDir, config.CleanedEnergyCSV))
		assert.Equal(t, "timestamp,kwh,building,month", cleaned[0])
		assert.Equal(t, "2023-01-02 00:00:00,10,BuildingA,Jan", cleaned[1])
		assert.Len(t, cleaned, 5)

		assert.Equal(t, []string{
			"day,count,sum,mean,min,max,std",
			"2023-01-02,3,35.00,11.67,5.00,20.00,6.24",
			"2023-01-09,1,15.00,15.00,15.00,15.00,0.00",
		}, readLines(t, filepath.Join(paths.OutputDir, config.DailyTotalsCSV)))

		assert.Equal(t, []string{
			"week,count,sum,mean,min,max,std",
			"2023-01-08,3,35.00,11.67,5.00,20.00,6.24",
			"2023-01-15,1,15.00,15.00,15.00,15.00,0.00",
		}, readLines(t, filepath.Join(paths.OutputDir, config.WeeklyTotalsCSV)))

		assert.Equal(t, []string{
			"building,count,sum,mean,min,max,std",
			"BuildingA,2,30.00,15.00,10.00,20.00,5.00",
			"BuildingB,2,20.00,10.00,5.00,15.00,5.00",
		}, readLines(t, filepath.Join(paths.OutputDir, config.BuildingSummaryCSV)))
	})

	t.Run("line protocol", func(t *testing.T) {
		lines := readLines(t, filepath.Join(paths.OutputDir, config.ReadingsLP))
		require.Len(t, lines, 4)
		assert.Equal(t, "energy,building=BuildingA,month=Jan kwh=10 1672617600", lines[0])
	})

	t.Run("dashboard", func(t *testing.T) {
		f, err := excelize.OpenFile(filepath.Join(paths.OutputDir, config.DashboardXLSX))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Dashboard", "Daily", "Weekly", "Hourly"}, f.GetSheetList())

		v, err := f.GetCellValue("Weekly", "B2")
		require.NoError(t, err)
		assert.Equal(t, "30", v)
		v, err = f.GetCellValue("Hourly", "A3")
		require.NoError(t, err)
		assert.Equal(t, "1", v)
	})
}

func TestEnergyPipeline_SampleData(t *testing.T) {
	cfg, paths := testEnv(t)
	cfg.Ingest.GenerateSample = true

	result, err := NewEnergyPipeline(cfg, paths, nil, nil, quietLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Ingest.Generated, 6)
	assert.Equal(t, 3*(744+672), result.Ingest.RowsRead())
	assert.Equal(t, 3, result.Registry.Len())
	assert.NotEqual(t, "N/A", result.Summary.TopEntity)

	for _, name := range result.Files {
		assert.FileExists(t, filepath.Join(paths.OutputDir, name))
	}
}

func TestEnergyPipeline_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, paths *config.Paths)
	}{
		{
			name:  "missing data directory",
			setup: func(t *testing.T, paths *config.Paths) {},
		},
		{
			name: "no matching files",
			setup: func(t *testing.T, paths *config.Paths) {
				writeFile(t, paths.DataDir, "notes.txt", "hello")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, paths := testEnv(t)
			tt.setup(t, paths)

			result, err := NewEnergyPipeline(cfg, paths, nil, nil, quietLogger()).Run(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

			require.Len(t, result.Stages, 4)
			assert.Equal(t, StageStatusFailed, result.Stages[0].Status)
			assert.Equal(t, StageStatusPending, result.Stages[1].Status)
			assert.NoFileExists(t, filepath.Join(paths.OutputDir, config.SummaryTXT))
		})
	}
}

func TestEnergyPipeline_MissingEntityColumn(t *testing.T) {
	cfg, paths := testEnv(t)
	writeFile(t, paths.DataDir, "meters.csv", "timestamp,kwh\n2023-01-02 00:00:00,10\n")

	result, err := NewEnergyPipeline(cfg, paths, nil, nil, quietLogger()).Run(context.Background())
	require.NoError(t, err)

	summary, ok := result.Aggregate(BuildingSummary)
	require.True(t, ok)
	assert.False(t, summary.Computable)
	assert.Equal(t, "N/A", result.Summary.TopEntity)
	assert.Equal(t, []string{"building,count,sum,mean,min,max,std"},
		readLines(t, filepath.Join(paths.OutputDir, config.BuildingSummaryCSV)))

	daily, ok := result.Aggregate(DailyTotals)
	require.True(t, ok)
	assert.True(t, daily.Computable)
}
