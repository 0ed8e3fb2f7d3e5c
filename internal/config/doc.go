// Package config provides centralized configuration management for reportflow.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Command line flags (applied by cmd/reportflow, highest priority)
//	2. Environment variables
//	3. YAML configuration file
//	4. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern REPORTFLOW_<SECTION>_<FIELD>:
//
//	REPORTFLOW_SOURCE_PATH=data/gapminder.xlsx
//	REPORTFLOW_SOURCE_HEADER_ROWS=4
//	REPORTFLOW_CHANGES_CATEGORY=Europe
//	REPORTFLOW_OUTPUT_FORMATS=csv,json,xlsx
//	REPORTFLOW_LOGGING_LEVEL=debug
//
// Aggregations are list-shaped and can only be set in the YAML file.
//
// # Configuration File
//
//	source:
//	  header_rows: 4
//	schema:
//	  entity_column: country
//	  metrics: [lifeExp, pop, gdpPercap]
//	aggregations:
//	  - {metric: lifeExp, func: weighted_mean, weight: pop}
//	  - {metric: pop, func: sum}
//	changes:
//	  metrics: [lifeExp, gdpPercap]
//	output:
//	  dir: output
//	  formats: [csv, xlsx]
//
// # Path Management
//
// Paths lays out every artifact of a run under the output directory:
//
//	paths := config.NewPaths(cfg.Output.Dir)
//	europe := paths.ForCategory("Europe") // output/europe/...
//
// # Validation
//
// Field constraints are checked with go-playground/validator. Aggregation and
// change metrics must name declared schema metrics.
package config
