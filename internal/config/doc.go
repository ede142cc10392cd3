// Package config provides centralized configuration management for labpulse.
// It loads configuration from multiple sources, validates it, and resolves
// every file system location a run touches.
//
// # Configuration Sources
//
// Configuration is applied in this order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file (labpulse.yaml, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables use the LABPULSE prefix and the nested section name:
//
//	LABPULSE_INGEST_DATA_DIR=/srv/meters
//	LABPULSE_INGEST_GENERATE_SAMPLE=false
//	LABPULSE_LOGGING_LEVEL=debug
//	LABPULSE_TELEMETRY_ENABLE_TRACING=true
//
// # Path Management
//
// Paths resolves relative locations against a base directory:
//
//	cfg, err := config.Load("")
//	paths, err := config.GetPaths(cfg, "")
//	summary := paths.Output("summary.txt")
package config
