// Package app assembles the shared runtime of the batch commands: it loads
// configuration, resolves paths, starts the global logger and telemetry, and
// tears them down again on exit.
//
// # Usage
//
//	a, err := app.New(app.Options{ConfigFile: *configFile, Component: "energy"})
//	if err != nil {
//		app.Fatal(err)
//	}
//	ctx, stop := a.Context()
//	defer stop()
//	_, err = pipeline.NewEnergyPipeline(a.Config, a.Paths, a.Telemetry, os.Stdout, a.Logger).Run(ctx)
//	closeErr := a.Close()
package app
