package exporter

import (
	"reportflow/internal/config"
	"reportflow/pkg/contracts/domain"
)

// Sheet is one exported table: a name, its headers and typed cells. Cells
// hold a string, an int, a domain.Float or a null category.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Records renders every cell as text
func (s Sheet) Records() [][]string {
	records := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		records[i] = rec
	}
	return records
}

// Report holds the tables of one run
type Report struct {
	Combined domain.Table
	Summary  domain.Summary
	Changes  domain.ChangeTable
	Latest   domain.LatestTable
}

// Sheets lays out the report tables in export order. Null categories render
// as nullLabel in text formats and as null in JSON.
func (r Report) Sheets(nullLabel string) []Sheet {
	return []Sheet{
		CombinedSheet(r.Combined, nullLabel),
		SummarySheet(r.Summary, nullLabel),
		ChangesSheet(r.Changes, nullLabel),
		LatestSheet(r.Latest, nullLabel),
	}
}

// CombinedSheet lays out the enriched table: entity, period, category, metrics
func CombinedSheet(t domain.Table, nullLabel string) Sheet {
	s := Sheet{Name: config.TableCombined, Headers: t.Schema.Columns()}
	for _, row := range t.Rows {
		cells := make([]interface{}, 0, len(row.Values)+3)
		cells = append(cells, row.Entity, row.Period, categoryCell(row.Category, nullLabel))
		cells = appendFloats(cells, row.Values)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// SummarySheet lays out the aggregates: category, period, rows, aggregates
func SummarySheet(sum domain.Summary, nullLabel string) Sheet {
	headers := append([]string{"category", "period", "rows"}, sum.Columns...)
	s := Sheet{Name: config.TableSummary, Headers: headers}
	for _, row := range sum.Rows {
		cells := make([]interface{}, 0, len(row.Aggregates)+3)
		cells = append(cells, categoryCell(row.Category, nullLabel), row.Period, row.Rows)
		cells = appendFloats(cells, row.Aggregates)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// ChangesSheet lays out the change table: the combined columns followed by
// one <metric>_change column per change metric
func ChangesSheet(ct domain.ChangeTable, nullLabel string) Sheet {
	headers := append(ct.Schema.Columns(), changeHeaders(ct.ChangeMetrics)...)
	s := Sheet{Name: config.TableChanges, Headers: headers}
	for _, row := range ct.Rows {
		cells := make([]interface{}, 0, len(headers))
		cells = append(cells, row.Entity, row.Period, categoryCell(row.Category, nullLabel))
		cells = appendFloats(cells, row.Values)
		cells = appendFloats(cells, row.Changes)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// LatestSheet lays out the latest figures without the period column
func LatestSheet(lt domain.LatestTable, nullLabel string) Sheet {
	headers := append([]string{lt.Schema.EntityColumn, "category"}, lt.Schema.Metrics...)
	headers = append(headers, changeHeaders(lt.ChangeMetrics)...)
	s := Sheet{Name: config.TableLatest, Headers: headers}
	for _, row := range lt.Rows {
		cells := make([]interface{}, 0, len(headers))
		cells = append(cells, row.Entity, categoryCell(row.Category, nullLabel))
		cells = appendFloats(cells, row.Values)
		cells = appendFloats(cells, row.Changes)
		s.Rows = append(s.Rows, cells)
	}
	return s
}

// nullCategory is the cell of an unresolved category. Text formats write the
// label; JSON writes null so the label cannot pass for a real category.
type nullCategory string

// MarshalJSON implements json.Marshaler
func (nullCategory) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func categoryCell(category, nullLabel string) interface{} {
	if category == domain.NullCategory {
		return nullCategory(nullLabel)
	}
	return category
}

func changeHeaders(metrics []string) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = m + "_change"
	}
	return out
}

func appendFloats(cells []interface{}, values []domain.Float) []interface{} {
	for _, v := range values {
		cells = append(cells, v)
	}
	return cells
}
