package dataprocessing

import (
	"fmt"
	"sort"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// CategoryLookup resolves an entity name to its category
type CategoryLookup interface {
	Category(entity string) (string, bool)
}

// Union concatenates tables that share one schema. Rows keep the order of
// their inputs; nothing is sorted.
func Union(tables ...domain.Table) (domain.Table, error) {
	if len(tables) == 0 {
		return domain.Table{Rows: []domain.Row{}}, nil
	}

	schema := tables[0].Schema
	total := 0
	for i, t := range tables {
		if !t.Schema.Equal(schema) {
			return domain.Table{}, errors.NewSchemaMismatchError(tableName(t, i),
				fmt.Sprintf("columns %v differ from %v", t.Schema.Columns(), schema.Columns()))
		}
		if err := t.Validate(); err != nil {
			return domain.Table{}, errors.NewSchemaMismatchError(tableName(t, i), err.Error())
		}
		total += t.Len()
	}

	out := domain.Table{Schema: schema, Rows: make([]domain.Row, 0, total)}
	for _, t := range tables {
		for _, row := range t.Rows {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out, nil
}

// tableName names a table in errors by its period when it has rows
func tableName(t domain.Table, i int) string {
	if t.Len() > 0 {
		return fmt.Sprint(t.Rows[0].Period)
	}
	return fmt.Sprintf("table %d", i)
}

// SortByPeriod returns a copy ordered by period, then entity
func SortByPeriod(t domain.Table) domain.Table {
	out := t.Clone()
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.Entity < b.Entity
	})
	return out
}

// EnrichReport describes the lookup misses of one Enrich call
type EnrichReport struct {
	// Misses are the distinct entity names without a category, sorted
	Misses []string
	// MissRows counts the rows that received the null category
	MissRows int
}

// Err returns a non-fatal LookupMiss error naming the misses, or nil
func (r EnrichReport) Err() error {
	if len(r.Misses) == 0 {
		return nil
	}
	return errors.NewLookupMissError(r.Misses)
}

// Enrich returns a copy of t with every row's category set from lookup. A
// miss yields the null category. Categories derive from entity names only, so
// enriching an enriched table changes nothing.
func Enrich(t domain.Table, lookup CategoryLookup) (domain.Table, EnrichReport) {
	out := t.Clone()
	var report EnrichReport

	resolved := make(map[string]string)
	missed := make(map[string]bool)

	for i := range out.Rows {
		entity := out.Rows[i].Entity
		category, seen := resolved[entity]
		if !seen {
			c, ok := lookup.Category(entity)
			if !ok || c == domain.NullCategory {
				c = domain.NullCategory
				missed[entity] = true
			}
			resolved[entity] = c
			category = c
		}
		if category == domain.NullCategory {
			report.MissRows++
		}
		out.Rows[i].Category = category
	}

	for entity := range missed {
		report.Misses = append(report.Misses, entity)
	}
	sort.Strings(report.Misses)

	return out, report
}
