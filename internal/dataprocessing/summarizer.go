package dataprocessing

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// groupKey identifies one summary row
type groupKey struct {
	category string
	period   int
}

// Aggregate groups rows by (category, period) and computes one column per
// spec. Null values are skipped; an aggregate with no usable values is null.
// Rows come out ordered by category, null category first, then period.
func Aggregate(t domain.Table, specs []domain.AggregateSpec) (domain.Summary, error) {
	if len(specs) == 0 {
		return domain.Summary{}, errors.NewAppValidationError("at least one aggregation is required")
	}

	columns := make([]string, len(specs))
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if err := ValidateAggregate(t.Schema, spec); err != nil {
			return domain.Summary{}, err
		}
		col := spec.Column()
		if seen[col] {
			return domain.Summary{}, errors.NewAppValidationError(fmt.Sprintf("duplicate aggregate column %q", col))
		}
		seen[col] = true
		columns[i] = col
	}

	groups := make(map[groupKey][]int)
	var keys []groupKey
	for i, row := range t.Rows {
		k := groupKey{category: row.Category, period: row.Period}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return keys[i].category < keys[j].category
		}
		return keys[i].period < keys[j].period
	})

	summary := domain.Summary{Columns: columns, Rows: make([]domain.SummaryRow, 0, len(keys))}
	for _, k := range keys {
		idx := groups[k]
		row := domain.SummaryRow{
			Category:   k.category,
			Period:     k.period,
			Rows:       len(idx),
			Aggregates: make([]domain.Float, len(specs)),
		}
		for s, spec := range specs {
			row.Aggregates[s] = aggregateGroup(t, idx, spec)
		}
		summary.Rows = append(summary.Rows, row)
	}

	return summary, nil
}

// ValidateAggregate checks one aggregate spec against the schema. Config
// loading and Aggregate both call it.
func ValidateAggregate(schema domain.Schema, spec domain.AggregateSpec) error {
	if !spec.Func.Valid() {
		return errors.NewAppValidationError(fmt.Sprintf("unknown aggregate function %q", spec.Func))
	}
	if !schema.Has(spec.Metric) {
		return errors.NewAppValidationError(fmt.Sprintf("aggregate metric %q is not a schema metric", spec.Metric))
	}
	if spec.Func == domain.AggWeightedMean {
		if spec.Weight == "" {
			return errors.NewAppValidationError(fmt.Sprintf("weighted mean of %q needs a weight column", spec.Metric))
		}
		if !schema.Has(spec.Weight) {
			return errors.NewAppValidationError(fmt.Sprintf("weight %q of %q is not a schema metric", spec.Weight, spec.Metric))
		}
	}
	return nil
}

func aggregateGroup(t domain.Table, idx []int, spec domain.AggregateSpec) domain.Float {
	m := t.Schema.Index(spec.Metric)

	if spec.Func == domain.AggWeightedMean {
		w := t.Schema.Index(spec.Weight)
		values := make([]float64, 0, len(idx))
		weights := make([]float64, 0, len(idx))
		for _, i := range idx {
			v, wt := t.Rows[i].Values[m], t.Rows[i].Values[w]
			if v.IsNull() || wt.IsNull() {
				continue
			}
			values = append(values, v.Value)
			weights = append(weights, wt.Value)
		}
		return WeightedMean(values, weights)
	}

	data := make(stats.Float64Data, 0, len(idx))
	for _, i := range idx {
		if v := t.Rows[i].Values[m]; !v.IsNull() {
			data = append(data, v.Value)
		}
	}

	if spec.Func == domain.AggCount {
		return domain.Some(float64(len(data)))
	}
	if len(data) == 0 {
		return domain.Null
	}

	var (
		result float64
		err    error
	)
	switch spec.Func {
	case domain.AggSum:
		result, err = stats.Sum(data)
	case domain.AggMean:
		result, err = stats.Mean(data)
	case domain.AggMedian:
		result, err = stats.Median(data)
	case domain.AggMin:
		result, err = stats.Min(data)
	case domain.AggMax:
		result, err = stats.Max(data)
	}
	if err != nil {
		return domain.Null
	}
	return domain.Some(result)
}

// WeightedMean returns sum(v*w)/sum(w), or null when the weights sum to zero
func WeightedMean(values, weights []float64) domain.Float {
	if len(values) == 0 {
		return domain.Null
	}
	return domain.Some(stat.Mean(values, weights))
}
