package main

import (
	"flag"
	"log/slog"
	"os"

	"labpulse/internal/app"
	"labpulse/internal/infrastructure"
	"labpulse/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file (defaults to labpulse.yaml or config.yaml when present)")
	baseDir := flag.String("base", "", "directory relative paths are resolved against (defaults to the working directory)")
	flag.Parse()

	a, err := app.New(app.Options{ConfigFile: *configFile, BaseDir: *baseDir, Component: "energy"})
	if err != nil {
		app.Fatal(err)
	}

	ctx, stop := a.Context()
	a.Logger.InfoContext(ctx, "Starting energy analysis",
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("output_dir", a.Paths.OutputDir))

	_, runErr := pipeline.NewEnergyPipeline(a.Config, a.Paths, a.Telemetry, os.Stdout, a.Logger).Run(ctx)
	stop()
	if runErr != nil {
		infrastructure.WithError(a.Logger, runErr).ErrorContext(ctx, "Energy analysis failed")
	}

	if err := a.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		app.Fatal(runErr)
	}
}
