package domain

// AggregateFunc names an aggregation applied to one metric within a (category, period) group
type AggregateFunc string

const (
	AggWeightedMean AggregateFunc = "weighted_mean"
	AggSum          AggregateFunc = "sum"
	AggMean         AggregateFunc = "mean"
	AggMedian       AggregateFunc = "median"
	AggMin          AggregateFunc = "min"
	AggMax          AggregateFunc = "max"
	AggCount        AggregateFunc = "count"
)

// Valid reports whether f is a known aggregation
func (f AggregateFunc) Valid() bool {
	switch f {
	case AggWeightedMean, AggSum, AggMean, AggMedian, AggMin, AggMax, AggCount:
		return true
	}
	return false
}

// AggregateSpec declares one summary column
type AggregateSpec struct {
	Metric string        `json:"metric" yaml:"metric" validate:"required"`
	Func   AggregateFunc `json:"func" yaml:"func" validate:"required,oneof=weighted_mean sum mean median min max count"`
	Weight string        `json:"weight,omitempty" yaml:"weight,omitempty" validate:"required_if=Func weighted_mean"`
	As     string        `json:"as,omitempty" yaml:"as,omitempty"`
}

// Column returns the output column name of the aggregate
func (s AggregateSpec) Column() string {
	if s.As != "" {
		return s.As
	}
	return s.Metric + "_" + string(s.Func)
}

// SummaryRow holds the aggregates of one (category, period) group
type SummaryRow struct {
	Category   string  `json:"category"`
	Period     int     `json:"period"`
	Rows       int     `json:"rows"`
	Aggregates []Float `json:"aggregates"`
}

// Summary is the aggregator output, uniquely keyed by (category, period)
type Summary struct {
	Columns []string     `json:"columns"`
	Rows    []SummaryRow `json:"rows"`
}

// Lookup returns the summary row for the group key
func (s Summary) Lookup(category string, period int) (SummaryRow, bool) {
	for _, row := range s.Rows {
		if row.Category == category && row.Period == period {
			return row, true
		}
	}
	return SummaryRow{}, false
}

// Value returns the named aggregate of the group
func (s Summary) Value(category string, period int, column string) (Float, bool) {
	row, ok := s.Lookup(category, period)
	if !ok {
		return Null, false
	}
	for i, c := range s.Columns {
		if c == column {
			return row.Aggregates[i], true
		}
	}
	return Null, false
}
