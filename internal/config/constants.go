package config

// Application constants
const (
	// Application Info
	AppName = "reportflow"

	// EnvPrefix namespaces every environment variable (REPORTFLOW_SOURCE_PATH, ...)
	EnvPrefix = "REPORTFLOW"

	// Source defaults. The data region starts at row 5: 4 header rows are skipped
	// and the next row names the columns.
	DefaultHeaderRows   = 4
	DefaultSheetWorkers = 4
	MaxSheetWorkers     = 64

	// Lookup defaults
	DefaultSheetRange = "A:B"

	// Output defaults
	DefaultOutputDir = "output"
	DefaultNullLabel = "NA"

	// Table names used for output files
	TableCombined = "combined"
	TableSummary  = "summary"
	TableChanges  = "changes"
	TableLatest   = "latest"
	WorkbookName  = "report.xlsx"
	ManifestName  = "manifest.json"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/reportflow.log"

	// Telemetry
	DefaultServiceName = "reportflow"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)
