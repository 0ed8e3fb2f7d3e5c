package dataprocessing

import (
	"fmt"
	"sort"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// ChangeOptions selects what the change calculator computes
type ChangeOptions struct {
	// Metrics receive a change column. Empty means every schema metric.
	Metrics []string
	// Category, when set, keeps only rows of that category. A pointer to
	// domain.NullCategory selects the unresolved rows.
	Category *string
}

// Change is the relative change (cur-prev)/prev. It is null when either value
// is null or prev is zero.
func Change(prev, cur domain.Float) domain.Float {
	if prev.IsNull() || cur.IsNull() || prev.Value == 0 {
		return domain.Null
	}
	return domain.Some((cur.Value - prev.Value) / prev.Value)
}

// Changes annotates every row with the change of each selected metric since
// the entity's previous period. An entity's first period has null changes.
// Entities are grouped by domain.NormalizeKey, the key category lookups use,
// so spellings differing only in case or spacing form one series. Rows keep
// their own spelling and come out ordered by entity key, then period.
func Changes(t domain.Table, opts ChangeOptions) (domain.ChangeTable, error) {
	metrics := opts.Metrics
	if len(metrics) == 0 {
		metrics = t.Schema.Metrics
	}
	metricIdx := make([]int, len(metrics))
	for i, m := range metrics {
		idx := t.Schema.Index(m)
		if idx < 0 {
			return domain.ChangeTable{}, errors.NewAppValidationError(fmt.Sprintf("change metric %q is not a schema metric", m))
		}
		metricIdx[i] = idx
	}

	rows := t.Rows
	if opts.Category != nil {
		category := *opts.Category
		rows = t.Filter(func(r domain.Row) bool { return r.Category == category }).Rows
	}

	byEntity := make(map[string][]domain.Row)
	for _, row := range rows {
		key := domain.NormalizeKey(row.Entity)
		byEntity[key] = append(byEntity[key], row)
	}
	entities := make([]string, 0, len(byEntity))
	for key := range byEntity {
		entities = append(entities, key)
	}
	sort.Strings(entities)

	out := domain.ChangeTable{
		Schema:        t.Schema,
		ChangeMetrics: append([]string(nil), metrics...),
		Rows:          make([]domain.ChangeRow, 0, len(rows)),
	}

	for _, key := range entities {
		series := byEntity[key]
		sort.SliceStable(series, func(i, j int) bool { return series[i].Period < series[j].Period })

		for i, row := range series {
			if i > 0 && series[i-1].Period == row.Period {
				return domain.ChangeTable{}, errors.NewAppValidationError(
					fmt.Sprintf("entity %q has more than one row for period %d", row.Entity, row.Period))
			}

			changes := make([]domain.Float, len(metricIdx))
			for c, idx := range metricIdx {
				if i == 0 {
					changes[c] = domain.Null
					continue
				}
				changes[c] = Change(series[i-1].Values[idx], row.Values[idx])
			}
			out.Rows = append(out.Rows, domain.ChangeRow{Row: row.Clone(), Changes: changes})
		}
	}

	return out, nil
}

// Latest keeps each entity's most recent change row and drops the period.
// Entities are keyed as in Changes; the latest row's spelling is kept.
func Latest(ct domain.ChangeTable) domain.LatestTable {
	latest := make(map[string]domain.ChangeRow)
	var order []string
	for _, row := range ct.Rows {
		key := domain.NormalizeKey(row.Entity)
		prev, ok := latest[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || row.Period >= prev.Period {
			latest[key] = row
		}
	}
	sort.Strings(order)

	out := domain.LatestTable{
		Schema:        ct.Schema,
		ChangeMetrics: append([]string(nil), ct.ChangeMetrics...),
		Rows:          make([]domain.LatestRow, 0, len(order)),
	}
	for _, key := range order {
		row := latest[key]
		out.Rows = append(out.Rows, domain.LatestRow{
			Entity:   row.Entity,
			Category: row.Category,
			Values:   append([]domain.Float(nil), row.Values...),
			Changes:  append([]domain.Float(nil), row.Changes...),
		})
	}
	return out
}
