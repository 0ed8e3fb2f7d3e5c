package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reportflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Source.HeaderRows)
	assert.Equal(t, []string{"lifeExp", "pop", "gdpPercap"}, cfg.Schema.Metrics)
	assert.Len(t, cfg.Aggregations, 3)
	assert.Equal(t, domain.AggWeightedMean, cfg.Aggregations[0].Func)
	assert.Equal(t, "pop", cfg.Aggregations[0].Weight)
	assert.True(t, cfg.Output.HasFormat("CSV"))
	assert.False(t, cfg.Output.HasFormat(FormatXLSX))
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
source:
  header_rows: 2
  sheet_pattern: '^\d{4}$'
schema:
  entity_column: region
  metrics: [sales, units]
aggregations:
  - metric: sales
    func: sum
  - metric: sales
    func: weighted_mean
    weight: units
    as: avg_price
changes:
  metrics: [sales]
output:
  dir: build
  formats: [csv, xlsx]
`)

	cfg, err := Load(LoadOptions{File: path, SkipEnv: true})
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Source.HeaderRows)
	assert.Equal(t, DefaultSheetWorkers, cfg.Source.Workers, "unset fields keep defaults")
	assert.Equal(t, "region", cfg.Schema.EntityColumn)
	require.Len(t, cfg.Aggregations, 2, "file list replaces defaults")
	assert.Equal(t, "avg_price", cfg.Aggregations[1].Column())
	assert.Equal(t, []string{"sales"}, cfg.Changes.Metrics)
	assert.Equal(t, "build", cfg.Output.Dir)
	assert.True(t, cfg.Output.HasFormat(FormatXLSX))
	assert.Equal(t, DefaultNullLabel, cfg.Output.NullLabel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
source:
  header_rows: 2
output:
  dir: from-file
`)
	t.Setenv("REPORTFLOW_SOURCE_HEADER_ROWS", "6")
	t.Setenv("REPORTFLOW_OUTPUT_FORMATS", "csv,xlsx")
	t.Setenv("REPORTFLOW_CHANGES_CATEGORY", "Europe")
	t.Setenv("REPORTFLOW_LOGGING_LEVEL", "debug")

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Source.HeaderRows)
	assert.Equal(t, "from-file", cfg.Output.Dir)
	assert.Equal(t, []string{"csv", "xlsx"}, cfg.Output.Formats)
	assert.Equal(t, "Europe", cfg.Changes.Category)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantType errors.ErrorType
	}{
		{
			name:     "unknown field",
			content:  "source:\n  header_row: 4\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "weighted mean without weight",
			content:  "aggregations:\n  - {metric: lifeExp, func: weighted_mean}\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "unknown aggregate function",
			content:  "aggregations:\n  - {metric: lifeExp, func: mode}\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "aggregate on undeclared metric",
			content:  "aggregations:\n  - {metric: gdp, func: sum}\n",
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "undeclared weight",
			content:  "aggregations:\n  - {metric: lifeExp, func: weighted_mean, weight: people}\n",
			wantType: errors.ErrTypeValidation,
		},
		{
			name:     "undeclared change metric",
			content:  "changes:\n  metrics: [gdp]\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "bad sheet pattern",
			content:  "source:\n  sheet_pattern: '(['\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "bad output format",
			content:  "output:\n  formats: [pdf]\n",
			wantType: errors.ErrTypeConfig,
		},
		{
			name:     "too many workers",
			content:  "source:\n  workers: 1000\n",
			wantType: errors.ErrTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(LoadOptions{File: path, SkipEnv: true})
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml"), SkipEnv: true})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConfig))
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
}

func TestValidate_FillsFileLogPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}

func TestSchemaConfig_ToSchema(t *testing.T) {
	s := SchemaConfig{EntityColumn: " country ", Metrics: []string{" pop", "gdpPercap "}}.ToSchema()
	assert.Equal(t, "country", s.EntityColumn)
	assert.Equal(t, []string{"pop", "gdpPercap"}, s.Metrics)
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeConfigFile(t, "output:\n  dir: from-file\n")
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REPORTFLOW_OUTPUT_DIR=from-dotenv\nREPORTFLOW_SOURCE_WORKERS=2\n"), 0644))

	// Variables already present in the environment win over the dotenv file
	t.Setenv("REPORTFLOW_SOURCE_WORKERS", "3")
	t.Setenv("REPORTFLOW_OUTPUT_DIR", "")
	os.Unsetenv("REPORTFLOW_OUTPUT_DIR")

	cfg, err := Load(LoadOptions{File: path, EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
	assert.Equal(t, 3, cfg.Source.Workers)

	_, err = Load(LoadOptions{File: path, EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))
}
