package exporter

import (
	"log/slog"

	"reportflow/internal/config"
	"reportflow/internal/errors"
)

// formats lists the supported formats in write order
var formats = []string{config.FormatCSV, config.FormatJSON, config.FormatXLSX}

// Exporter writes a report in every configured format under one Paths layout
type Exporter struct {
	paths     *config.Paths
	out       config.OutputConfig
	nullLabel string
	csv       *CSVWriter
	logger    *slog.Logger
}

// NewExporter creates an exporter for the output configuration
func NewExporter(paths *config.Paths, out config.OutputConfig, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	nullLabel := out.NullLabel
	if nullLabel == "" {
		nullLabel = config.DefaultNullLabel
	}
	return &Exporter{
		paths:     paths,
		out:       out,
		nullLabel: nullLabel,
		csv:       NewCSVWriter(logger),
		logger:    logger,
	}
}

// Export writes the report and returns the files written: CSV tables, then
// JSON tables, then the workbook, each only when its format is enabled
func (e *Exporter) Export(report Report) ([]string, error) {
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, errors.NewStorageError("failed to create output directory", err).WithContext("path", e.paths.OutputDir)
	}

	sheets := report.Sheets(e.nullLabel)
	var written []string

	for _, format := range formats {
		if !e.out.HasFormat(format) {
			continue
		}
		switch format {
		case config.FormatCSV:
			for _, s := range sheets {
				path := e.paths.TablePath(s.Name, format)
				if err := e.csv.WriteSheet(path, s, e.out.BOM); err != nil {
					return written, err
				}
				written = append(written, path)
			}
		case config.FormatJSON:
			for _, s := range sheets {
				path := e.paths.TablePath(s.Name, format)
				if err := WriteJSON(path, s); err != nil {
					return written, err
				}
				written = append(written, path)
			}
		case config.FormatXLSX:
			if err := WriteWorkbook(e.paths.Workbook, sheets); err != nil {
				return written, err
			}
			written = append(written, e.paths.Workbook)
		}
	}

	e.logger.Info("Exported report",
		slog.String("output_dir", e.paths.OutputDir),
		slog.Int("files", len(written)))

	return written, nil
}
