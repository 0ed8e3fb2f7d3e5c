// Package dataprocessing turns a multi-sheet workbook into combined, summary
// and change tables.
//
// # Stages
//
// Each stage is a pure function over domain tables:
//
//  1. ListSheets and FilterSheets enumerate the sheets to read
//  2. LoadSheet (or LoadAll, concurrently) reads one sheet per period
//  3. Union concatenates the per-sheet tables
//  4. Enrich attaches a category to every row through a lookup
//  5. Aggregate groups by (category, period)
//  6. Changes and Latest compute period-over-period change per entity
//
// # Sheet Layout
//
// Every sheet starts with HeaderRows preamble rows, followed by the
// column-name row and then data rows. The sheet name is the period:
//
//	row 1-4  notes, titles, source lines
//	row 5    country | continent | lifeExp | pop | gdpPercap
//	row 6+   Belgium | Europe    | 78.3    | ... | ...
//
// # Usage
//
//	sheets, err := dataprocessing.ListSheets("gapminder.xlsx")
//	tables, err := dataprocessing.LoadAll(ctx, "gapminder.xlsx", sheets, opts, 4)
//	combined, err := dataprocessing.Union(tables...)
//	combined, report := dataprocessing.Enrich(combined, lookup)
//	summary, err := dataprocessing.Aggregate(combined, cfg.Aggregations)
//	changes, err := dataprocessing.Changes(combined, dataprocessing.ChangeOptions{})
//	latest := dataprocessing.Latest(changes)
//
// # Null Values
//
// Empty or non-numeric cells load as null. Aggregates skip nulls, and a change
// is null whenever either side is null or the previous value is zero.
//
// # Error Handling
//
// Failures carry a type from internal/errors: SourceNotFound and
// UnreadableFormat for the workbook, SchemaMismatch for a sheet, and a
// non-fatal LookupMiss from EnrichReport.Err.
package dataprocessing
