package domain

import (
	"fmt"
	"sort"
	"strings"
)

// NullCategory marks a row whose entity could not be resolved by the category lookup.
// Null-category rows are kept and aggregate into their own group.
const NullCategory = ""

// Schema declares the columns read from every sheet.
// Metrics is the caller-declared column order of every table built from the workbook.
type Schema struct {
	EntityColumn string   `json:"entity_column" yaml:"entity_column"`
	Metrics      []string `json:"metrics" yaml:"metrics"`
}

// Index returns the position of metric in the schema, or -1
func (s Schema) Index(metric string) int {
	for i, m := range s.Metrics {
		if m == metric {
			return i
		}
	}
	return -1
}

// Has reports whether metric is declared
func (s Schema) Has(metric string) bool {
	return s.Index(metric) >= 0
}

// Equal reports whether both schemas declare the same columns in the same order
func (s Schema) Equal(other Schema) bool {
	if s.EntityColumn != other.EntityColumn || len(s.Metrics) != len(other.Metrics) {
		return false
	}
	for i := range s.Metrics {
		if s.Metrics[i] != other.Metrics[i] {
			return false
		}
	}
	return true
}

// Columns returns the full output column list: entity, period, category, metrics...
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Metrics)+3)
	cols = append(cols, s.EntityColumn, "period", "category")
	return append(cols, s.Metrics...)
}

// Row is one entity observation for one period
type Row struct {
	Entity   string  `json:"entity"`
	Period   int     `json:"period"`
	Category string  `json:"category"`
	Values   []Float `json:"values"`
}

// Clone returns a deep copy of the row
func (r Row) Clone() Row {
	out := r
	out.Values = append([]Float(nil), r.Values...)
	return out
}

// Table is an ordered sequence of rows sharing one schema
type Table struct {
	Schema Schema `json:"schema"`
	Rows   []Row  `json:"rows"`
}

// NewTable creates an empty table for the schema
func NewTable(schema Schema) Table {
	return Table{Schema: schema, Rows: []Row{}}
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Validate checks that every row carries one value per declared metric
func (t Table) Validate() error {
	for i, row := range t.Rows {
		if len(row.Values) != len(t.Schema.Metrics) {
			return fmt.Errorf("row %d (%s, %d) has %d values, schema declares %d",
				i, row.Entity, row.Period, len(row.Values), len(t.Schema.Metrics))
		}
	}
	return nil
}

// Value returns the named metric of row i
func (t Table) Value(i int, metric string) (Float, bool) {
	idx := t.Schema.Index(metric)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Null, false
	}
	return t.Rows[i].Values[idx], true
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := Table{
		Schema: Schema{EntityColumn: t.Schema.EntityColumn, Metrics: append([]string(nil), t.Schema.Metrics...)},
		Rows:   make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// Filter returns a copy holding only the rows keep accepts
func (t Table) Filter(keep func(Row) bool) Table {
	out := NewTable(t.Schema)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

// Periods returns the distinct periods in ascending order
func (t Table) Periods() []int {
	seen := make(map[int]bool)
	var periods []int
	for _, row := range t.Rows {
		if !seen[row.Period] {
			seen[row.Period] = true
			periods = append(periods, row.Period)
		}
	}
	sort.Ints(periods)
	return periods
}

// Categories returns the distinct categories in ascending order.
// The null category, when present, comes first.
func (t Table) Categories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, row := range t.Rows {
		if !seen[row.Category] {
			seen[row.Category] = true
			categories = append(categories, row.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// Entities returns the distinct entities in NormalizeKey order. Names with
// the same key count once, under their first spelling.
func (t Table) Entities() []string {
	seen := make(map[string]string)
	var keys []string
	for _, row := range t.Rows {
		key := NormalizeKey(row.Entity)
		if _, ok := seen[key]; !ok {
			seen[key] = row.Entity
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	entities := make([]string, len(keys))
	for i, key := range keys {
		entities[i] = seen[key]
	}
	return entities
}

// CategoryLabel renders a category for output, substituting label for the null category
func CategoryLabel(category, label string) string {
	if category == NullCategory {
		return label
	}
	return category
}

// NormalizeKey folds an entity name for lookups and column matching
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
