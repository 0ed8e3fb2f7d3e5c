package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// LoadOptions controls how a sheet is read
type LoadOptions struct {
	// HeaderRows is the number of rows skipped before the column-name row
	HeaderRows int
	// Schema lists the entity column and the metric columns every sheet must carry
	Schema domain.Schema
	Logger *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// openWorkbook opens path as an Excel workbook, separating a missing path from
// a file that is not a workbook
func openWorkbook(path string) (*excelize.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewSourceNotFoundError(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewSourceNotFoundError(path, fmt.Errorf("%s is a directory", path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewUnreadableFormatError(path, err)
	}
	return f, nil
}

// ListSheets returns the sheet names of the workbook in workbook order
func ListSheets(path string) ([]string, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// FilterSheets keeps the names matching pattern. An empty pattern keeps all.
func FilterSheets(names []string, pattern string) ([]string, error) {
	if pattern == "" {
		return names, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.NewConfigError("invalid sheet pattern", err).WithContext("pattern", pattern)
	}

	var out []string
	for _, name := range names {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// ParsePeriod derives the period of a sheet from its name
func ParsePeriod(sheet string) (int, error) {
	period, err := strconv.Atoi(strings.TrimSpace(sheet))
	if err != nil {
		return 0, errors.NewSchemaMismatchError(sheet, "sheet name is not a period")
	}
	return period, nil
}

// LoadSheet reads one sheet into a table whose rows all carry the period
// named by the sheet
func LoadSheet(ctx context.Context, path, sheet string, opts LoadOptions) (domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	f, err := openWorkbook(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	return readSheet(f, path, sheet, opts)
}

// LoadAll loads sheets concurrently with at most workers in flight and returns
// the tables in the order of sheets. The first failure cancels the rest.
func LoadAll(ctx context.Context, path string, sheets []string, opts LoadOptions, workers int) ([]domain.Table, error) {
	if workers < 1 {
		workers = 1
	}

	tables := make([]domain.Table, len(sheets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sheet := range sheets {
		g.Go(func() error {
			table, err := LoadSheet(gctx, path, sheet, opts)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func readSheet(f *excelize.File, path, sheet string, opts LoadOptions) (domain.Table, error) {
	logger := opts.logger().With(slog.String("sheet", sheet))
	schema := opts.Schema

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return domain.Table{}, errors.NewSchemaMismatchError(sheet, "sheet does not exist")
	}

	period, err := ParsePeriod(sheet)
	if err != nil {
		return domain.Table{}, err
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, errors.NewUnreadableFormatError(path, err).WithContext("sheet", sheet)
	}

	headerRows := opts.HeaderRows
	if headerRows < 0 {
		headerRows = 0
	}
	if len(rows) <= headerRows || isBlank(rows[headerRows]) {
		return domain.Table{}, errors.NewSchemaMismatchError(sheet,
			fmt.Sprintf("no column-name row after %d header rows", headerRows))
	}

	entityIdx, metricIdx, err := mapColumns(sheet, rows[headerRows], schema)
	if err != nil {
		return domain.Table{}, err
	}

	table := domain.NewTable(schema)
	skipped := 0
	for r, row := range rows[headerRows+1:] {
		excelRow := headerRows + 2 + r
		if isBlank(row) {
			continue
		}
		entity := strings.TrimSpace(cell(row, entityIdx))
		if entity == "" {
			skipped++
			continue
		}

		values := make([]domain.Float, len(metricIdx))
		for m, idx := range metricIdx {
			raw := cell(row, idx)
			v, ok := parseNumber(raw)
			if !ok {
				logger.Warn("Unparseable numeric cell",
					slog.Int("row", excelRow),
					slog.String("column", schema.Metrics[m]),
					slog.String("value", raw))
			}
			values[m] = v
		}

		table.Rows = append(table.Rows, domain.Row{
			Entity: entity,
			Period: period,
			Values: values,
		})
	}

	logger.Debug("Loaded sheet",
		slog.Int("period", period),
		slog.Int("rows", table.Len()),
		slog.Int("skipped_without_entity", skipped))

	return table, nil
}

// mapColumns locates the schema columns in the column-name row by normalized name
func mapColumns(sheet string, header []string, schema domain.Schema) (int, []int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		key := domain.NormalizeKey(name)
		if _, dup := positions[key]; !dup && key != "" {
			positions[key] = i
		}
	}

	var missing []string
	entityIdx, ok := positions[domain.NormalizeKey(schema.EntityColumn)]
	if !ok {
		missing = append(missing, schema.EntityColumn)
	}

	metricIdx := make([]int, len(schema.Metrics))
	for i, m := range schema.Metrics {
		idx, ok := positions[domain.NormalizeKey(m)]
		if !ok {
			missing = append(missing, m)
			continue
		}
		metricIdx[i] = idx
	}

	if len(missing) > 0 {
		return 0, nil, errors.NewSchemaMismatchError(sheet,
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return entityIdx, metricIdx, nil
}

// parseNumber reads a numeric cell. Empty cells are null and valid; text that
// is not a number is null and reported as not ok.
func parseNumber(raw string) (domain.Float, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Null, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return domain.Null, false
	}
	return domain.Some(v), true
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
