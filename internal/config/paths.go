package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all resolved file system locations for a run.
// Relative configuration values are resolved against BaseDir.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string

	LogFile       string
	TraceFile     string
	MetricsFile   string
	WeatherFile   string
	GradebookFile string
	CatalogFile   string
	CatalogLog    string
}

// GetPaths resolves every configured location against baseDir. An empty
// baseDir means the current working directory.
func GetPaths(cfg *Config, baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	outputDir := resolve(cfg.Output.Dir)
	inOutput := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(outputDir, p)
	}

	logFile := resolve(cfg.Logging.FilePath)
	logsDir := ""
	if logFile != "" {
		logsDir = filepath.Dir(logFile)
	}

	return &Paths{
		BaseDir:       baseDir,
		DataDir:       resolve(cfg.Ingest.DataDir),
		OutputDir:     outputDir,
		LogsDir:       logsDir,
		LogFile:       logFile,
		TraceFile:     inOutput(cfg.Telemetry.TraceFile),
		MetricsFile:   inOutput(cfg.Telemetry.MetricsFile),
		WeatherFile:   resolve(cfg.Weather.File),
		GradebookFile: resolve(cfg.Gradebook.File),
		CatalogFile:   resolve(cfg.Catalog.File),
		CatalogLog:    resolve(cfg.Catalog.LogFile),
	}, nil
}

// EnsureDirectories creates the output and log directories. The data
// directory is left alone: a missing data directory is meaningful to ingestion.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Output returns the path of a named file in the output directory
func (p *Paths) Output(name string) string {
	return filepath.Join(p.OutputDir, name)
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("logs_dir", p.LogsDir))
}

// FileExists reports whether a regular file or directory exists at path
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
