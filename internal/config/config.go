package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Weather   WeatherConfig   `yaml:"weather" envconfig:"WEATHER"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Gradebook GradebookConfig `yaml:"gradebook" envconfig:"GRADEBOOK"`
	Catalog   CatalogConfig   `yaml:"catalog" envconfig:"CATALOG"`
}

// IngestConfig controls how meter files are discovered and parsed
type IngestConfig struct {
	DataDir         string   `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	Pattern         string   `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	Delimiter       string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
	TimestampColumn string   `yaml:"timestamp_column" envconfig:"TIMESTAMP_COLUMN" validate:"required"`
	ValueColumn     string   `yaml:"value_column" envconfig:"VALUE_COLUMN" validate:"required"`
	EntityColumn    string   `yaml:"entity_column" envconfig:"ENTITY_COLUMN" validate:"required"`
	PeriodColumn    string   `yaml:"period_column" envconfig:"PERIOD_COLUMN" validate:"required"`
	RequiredColumns []string `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS"`
	Unit            string   `yaml:"unit" envconfig:"UNIT"`
	GenerateSample  bool     `yaml:"generate_sample" envconfig:"GENERATE_SAMPLE"`
	SampleSeed      int64    `yaml:"sample_seed" envconfig:"SAMPLE_SEED"`
	Location        string   `yaml:"location" envconfig:"LOCATION"`
}

// WeatherConfig controls the weather analysis run
type WeatherConfig struct {
	File       string   `yaml:"file" envconfig:"FILE" validate:"required"`
	DateColumn string   `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	StartDate  string   `yaml:"start_date" envconfig:"START_DATE" validate:"required,datetime=2006-01-02"`
	KeyColumns []string `yaml:"key_columns" envconfig:"KEY_COLUMNS" validate:"min=1"`
}

// OutputConfig contains output locations
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format     string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output     string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath   string `yaml:"file_path" envconfig:"FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS" validate:"gte=0"`
	Compress   bool   `yaml:"compress" envconfig:"COMPRESS"`
}

// TelemetryConfig controls tracing and metrics output
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	TraceFile     string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// GradebookConfig contains the grade book storage location
type GradebookConfig struct {
	File string `yaml:"file" envconfig:"FILE" validate:"required"`
}

// CatalogConfig contains the library catalog storage location
type CatalogConfig struct {
	File    string `yaml:"file" envconfig:"FILE" validate:"required"`
	LogFile string `yaml:"log_file" envconfig:"LOG_FILE"`
}

// EnvPrefix namespaces every environment variable, e.g. LABPULSE_INGEST_DATA_DIR.
const EnvPrefix = "LABPULSE"

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of increasing precedence. An empty filePath
// searches the usual locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}
	if c.Ingest.Location != "" {
		if _, err := time.LoadLocation(c.Ingest.Location); err != nil {
			return fmt.Errorf("invalid ingest location %q: %w", c.Ingest.Location, err)
		}
	}
	return nil
}

// TimeLocation returns the location timestamps are parsed in
func (c *Config) TimeLocation() *time.Location {
	if c.Ingest.Location == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Ingest.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"labpulse.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			DataDir:         "data",
			Pattern:         "*.csv",
			Delimiter:       ",",
			TimestampColumn: "timestamp",
			ValueColumn:     "kwh",
			EntityColumn:    "building",
			PeriodColumn:    "month",
			RequiredColumns: []string{"kwh"},
			Unit:            "kWh",
			GenerateSample:  true,
			SampleSeed:      42,
		},
		Weather: WeatherConfig{
			File:       "weather.csv",
			DateColumn: "Date",
			StartDate:  "2008-12-01",
			KeyColumns: []string{"MinTemp", "MaxTemp", "Rainfall", "Humidity3pm"},
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "both",
			FilePath:   "logs/labpulse.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "labpulse",
			Environment:   "development",
			EnableTracing: false,
			EnableMetrics: true,
			SampleRatio:   1.0,
			TraceFile:     "trace.json",
			MetricsFile:   "metrics.prom",
		},
		Gradebook: GradebookConfig{
			File: "marks.csv",
		},
		Catalog: CatalogConfig{
			File:    "catalog.json",
			LogFile: "library.log",
		},
	}
}
