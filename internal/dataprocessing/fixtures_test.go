package dataprocessing

import (
	"io"
	"log/slog"
	"testing"

	"reportflow/internal/shared/testutil"
	"reportflow/pkg/contracts/domain"
)

var gapminderSchema = domain.Schema{
	EntityColumn: "country",
	Metrics:      []string{"lifeExp", "pop", "gdpPercap"},
}

// gapminderSheet builds a sheet with the standard preamble and column-name row
func gapminderSheet(name string, data ...[]interface{}) testutil.Sheet {
	return testutil.GapminderSheet(name, data...)
}

func writeWorkbook(t *testing.T, sheets ...testutil.Sheet) string {
	t.Helper()
	return testutil.WriteWorkbook(t, sheets...)
}

func testLoadOptions() LoadOptions {
	return LoadOptions{
		HeaderRows: 4,
		Schema:     gapminderSchema,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// row builds a table row with values in schema order
func row(entity string, period int, category string, values ...float64) domain.Row {
	r := domain.Row{Entity: entity, Period: period, Category: category, Values: make([]domain.Float, len(values))}
	for i, v := range values {
		r.Values[i] = domain.Some(v)
	}
	return r
}

func table(rows ...domain.Row) domain.Table {
	t := domain.NewTable(gapminderSchema)
	t.Rows = append(t.Rows, rows...)
	return t
}

// mapLookup is a case-sensitive in-memory lookup
type mapLookup map[string]string

func (m mapLookup) Category(entity string) (string, bool) {
	c, ok := m[entity]
	return c, ok
}
