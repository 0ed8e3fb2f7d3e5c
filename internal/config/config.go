package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"reportflow/internal/dataprocessing"
	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Source       SourceConfig           `yaml:"source" envconfig:"SOURCE"`
	Schema       SchemaConfig           `yaml:"schema" envconfig:"SCHEMA"`
	Lookup       LookupConfig           `yaml:"lookup" envconfig:"LOOKUP"`
	Aggregations []domain.AggregateSpec `yaml:"aggregations" ignored:"true" validate:"min=1,dive"`
	Changes      ChangesConfig          `yaml:"changes" envconfig:"CHANGES"`
	Output       OutputConfig           `yaml:"output" envconfig:"OUTPUT"`
	Logging      LoggingConfig          `yaml:"logging" envconfig:"LOGGING"`
	Telemetry    TelemetryConfig        `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// SourceConfig describes the input workbook
type SourceConfig struct {
	Path         string `yaml:"path" split_words:"true"`
	HeaderRows   int    `yaml:"header_rows" split_words:"true" validate:"gte=0"`
	SheetPattern string `yaml:"sheet_pattern" split_words:"true"`
	Workers      int    `yaml:"workers" split_words:"true" validate:"gte=1,lte=64"`
}

// SchemaConfig declares the columns every sheet must carry
type SchemaConfig struct {
	EntityColumn string   `yaml:"entity_column" split_words:"true" validate:"required"`
	Metrics      []string `yaml:"metrics" split_words:"true" validate:"min=1,unique,dive,required"`
}

// LookupConfig selects the category lookup sources. File and sheet sources
// take precedence over the embedded table.
type LookupConfig struct {
	File          string `yaml:"file" split_words:"true"`
	SheetID       string `yaml:"sheet_id" split_words:"true"`
	SheetRange    string `yaml:"sheet_range" split_words:"true"`
	APIKey        string `yaml:"api_key" split_words:"true"`
	Endpoint      string `yaml:"endpoint" split_words:"true" validate:"omitempty,url"`
	DisableStatic bool   `yaml:"disable_static" split_words:"true"`
}

// ChangesConfig configures the change calculator
type ChangesConfig struct {
	Metrics  []string `yaml:"metrics" split_words:"true" validate:"dive,required"`
	Category string   `yaml:"category" split_words:"true"`
}

// OutputConfig configures exported artifacts
type OutputConfig struct {
	Dir       string   `yaml:"dir" split_words:"true" validate:"required"`
	Formats   []string `yaml:"formats" split_words:"true" validate:"min=1,unique,dive,oneof=csv json xlsx"`
	NullLabel string   `yaml:"null_label" split_words:"true"`
	BOM       bool     `yaml:"bom" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" split_words:"true" validate:"oneof=json text"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing" split_words:"true"`
	TraceFile   string `yaml:"trace_file" split_words:"true"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
	ServiceName string `yaml:"service_name" split_words:"true"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// File is an explicit YAML file. When empty, well-known locations are searched.
	File string
	// EnvFile is a dotenv file loaded before environment overrides. When
	// empty, ./.env is used if present. Variables already set are kept.
	EnvFile string
	// SkipEnv disables environment overrides
	SkipEnv bool
}

// Load builds configuration from defaults, then the YAML file, then environment
// variables. Later sources win.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	configFile := opts.File
	if configFile == "" {
		configFile = getConfigFilePath()
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, errors.NewConfigError("config file not readable", err).WithContext("path", configFile)
	}

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, errors.NewConfigError("failed to load config from file", err).WithContext("path", configFile)
		}
	}

	// Fields without a matching variable are left untouched, so file values survive
	if !opts.SkipEnv {
		if err := loadEnvFile(opts.EnvFile); err != nil {
			return nil, err
		}
		if err := envconfig.Process(EnvPrefix, cfg); err != nil {
			return nil, errors.NewConfigError("failed to load config from env", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	// Sequences in the file replace the default lists
	return yaml.UnmarshalStrict(data, cfg)
}

// loadEnvFile exports the variables of a dotenv file into the process
// environment without replacing variables that are already set
func loadEnvFile(path string) error {
	if path == "" {
		if !FileExists(".env") {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return errors.NewConfigError("failed to load env file", err).WithContext("path", path)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field references to the schema
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.NewConfigError("config validation failed", err)
	}

	if c.Source.SheetPattern != "" {
		if _, err := regexp.Compile(c.Source.SheetPattern); err != nil {
			return errors.NewConfigError("invalid sheet pattern", err).WithContext("pattern", c.Source.SheetPattern)
		}
	}

	schema := c.Schema.ToSchema()
	for _, spec := range c.Aggregations {
		if err := dataprocessing.ValidateAggregate(schema, spec); err != nil {
			return err
		}
	}

	for _, m := range c.Changes.Metrics {
		if !schema.Has(m) {
			return errors.NewConfigError(fmt.Sprintf("change metric %q is not a schema metric", m), nil)
		}
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
	if c.Output.NullLabel == "" {
		c.Output.NullLabel = DefaultNullLabel
	}
	if c.Lookup.SheetRange == "" {
		c.Lookup.SheetRange = DefaultSheetRange
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}

	return nil
}

// ToSchema converts the configured schema to the domain type
func (s SchemaConfig) ToSchema() domain.Schema {
	metrics := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		metrics[i] = strings.TrimSpace(m)
	}
	return domain.Schema{EntityColumn: strings.TrimSpace(s.EntityColumn), Metrics: metrics}
}

// HasFormat reports whether the output format is enabled
func (o OutputConfig) HasFormat(format string) bool {
	for _, f := range o.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"reportflow.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration: the gapminder layout with
// population-weighted means and a population total per continent and year.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			HeaderRows: DefaultHeaderRows,
			Workers:    DefaultSheetWorkers,
		},
		Schema: SchemaConfig{
			EntityColumn: "country",
			Metrics:      []string{"lifeExp", "pop", "gdpPercap"},
		},
		Lookup: LookupConfig{
			SheetRange: DefaultSheetRange,
		},
		Aggregations: []domain.AggregateSpec{
			{Metric: "lifeExp", Func: domain.AggWeightedMean, Weight: "pop", As: "lifeExp"},
			{Metric: "gdpPercap", Func: domain.AggWeightedMean, Weight: "pop", As: "gdpPercap"},
			{Metric: "pop", Func: domain.AggSum, As: "pop"},
		},
		Changes: ChangesConfig{
			Metrics: []string{"lifeExp", "gdpPercap"},
		},
		Output: OutputConfig{
			Dir:       DefaultOutputDir,
			Formats:   []string{FormatCSV, FormatJSON},
			NullLabel: DefaultNullLabel,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
	}
}
