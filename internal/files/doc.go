// Package files provides file system discovery and write utilities.
//
// This package contains three components:
//
// Discovery: finds input files matching a glob pattern, in a stable
// name order, and reports whether an input directory exists.
//
// Naming: parses the <entity>_<period>.<ext> file name convention that
// carries per-file metadata into the ingested table.
//
// Manager: writes whole files through a temp-file-and-rename so that a
// failed write never leaves a truncated catalog or report behind.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	inputs, err := discovery.FindFilesByPattern("data", "*.csv")
//
//	meta := files.ParseFileMeta("BuildingA_Jan.csv")
//	// meta.Entity == "BuildingA", meta.Period == "Jan"
package files
