// Package operations runs the reporting pipeline.
//
// A run is a fixed sequence of stages sharing one RunState:
//
//	enumerate -> load -> union -> enrich -> aggregate -> changes -> export
//
// The first four stages build the combined table. The last three derive the
// summary series and change figures from it and write them out. Each stage is
// traced as its own span and timed into the stage duration histogram. A
// failing stage stops the run and marks the rest skipped. Lookup misses are
// the exception: they are logged and counted, and the run goes on.
//
// Every run ends by writing a manifest.json next to its artifacts.
//
// Example usage:
//
//	manager := operations.NewManager(cfg, logger, operations.WithTelemetry(tel))
//	state, err := manager.Run(ctx)
//
// Batch runs prepare the combined table once and then run the report stages
// once per category, each into its own directory:
//
//	states, err := manager.Batch(ctx, []string{"Europe", "Asia"})
package operations
