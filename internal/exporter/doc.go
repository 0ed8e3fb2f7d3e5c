// Package exporter writes report tables to disk.
//
// A Report holds the combined, summary, changes and latest tables of one run.
// Each table is first laid out as a Sheet of typed cells, then written as:
//
//   - CSV, one file per table, optionally with a UTF-8 BOM for Excel
//   - JSON, one array of objects per table with keys in column order
//   - XLSX, one workbook with a worksheet per table
//
// Example usage:
//
//	paths := config.NewPaths(cfg.Output.Dir)
//	exp := exporter.NewExporter(paths, cfg.Output, logger)
//	files, err := exp.Export(exporter.Report{Combined: combined, Summary: summary})
package exporter
