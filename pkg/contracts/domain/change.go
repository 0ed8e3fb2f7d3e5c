package domain

// ChangeRow is a row annotated with period-over-period change for the selected metrics.
// Changes[i] is null for the entity's first period.
type ChangeRow struct {
	Row
	Changes []Float `json:"changes"`
}

// ChangeTable is the change calculator output, ordered by entity then period
type ChangeTable struct {
	Schema        Schema      `json:"schema"`
	ChangeMetrics []string    `json:"change_metrics"`
	Rows          []ChangeRow `json:"rows"`
}

// Change returns the named change value of row i
func (t ChangeTable) Change(i int, metric string) (Float, bool) {
	if i < 0 || i >= len(t.Rows) {
		return Null, false
	}
	for j, m := range t.ChangeMetrics {
		if m == metric {
			return t.Rows[i].Changes[j], true
		}
	}
	return Null, false
}

// Find returns the index of the row for entity and period, or -1
func (t ChangeTable) Find(entity string, period int) int {
	for i, row := range t.Rows {
		if row.Entity == entity && row.Period == period {
			return i
		}
	}
	return -1
}

// LatestRow is an entity's most recent change row. The period is implicit.
type LatestRow struct {
	Entity   string  `json:"entity"`
	Category string  `json:"category"`
	Values   []Float `json:"values"`
	Changes  []Float `json:"changes"`
}

// LatestTable holds one row per entity, ordered by entity
type LatestTable struct {
	Schema        Schema      `json:"schema"`
	ChangeMetrics []string    `json:"change_metrics"`
	Rows          []LatestRow `json:"rows"`
}

// Get returns the latest row of entity, matched by NormalizeKey
func (t LatestTable) Get(entity string) (LatestRow, bool) {
	key := NormalizeKey(entity)
	for _, row := range t.Rows {
		if NormalizeKey(row.Entity) == key {
			return row, true
		}
	}
	return LatestRow{}, false
}

// Change returns the named change of the entity's latest row
func (t LatestTable) Change(entity, metric string) (Float, bool) {
	row, ok := t.Get(entity)
	if !ok {
		return Null, false
	}
	for j, m := range t.ChangeMetrics {
		if m == metric {
			return row.Changes[j], true
		}
	}
	return Null, false
}
