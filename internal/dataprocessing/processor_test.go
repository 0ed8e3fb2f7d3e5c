package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

func TestUnion(t *testing.T) {
	a := table(row("Belgium", 2007, "", 79.4, 10392226, 33692.6), row("Albania", 2007, "", 76.4, 3600523, 5937.0))
	b := table(row("Belgium", 1952, "", 68.0, 8730405, 8343.1))

	got, err := Union(a, b)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())

	assert.Equal(t, gapminderSchema, got.Schema)
	assert.Equal(t, []string{"Belgium", "Albania", "Belgium"},
		[]string{got.Rows[0].Entity, got.Rows[1].Entity, got.Rows[2].Entity}, "concatenation order, no sort")
	assert.Equal(t, 1952, got.Rows[2].Period)

	got.Rows[0].Values[0] = domain.Some(1)
	assert.Equal(t, domain.Some(79.4), a.Rows[0].Values[0], "inputs are not aliased")
}

func TestUnion_Empty(t *testing.T) {
	got, err := Union()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestUnion_SchemaMismatch(t *testing.T) {
	a := table(row("Belgium", 2007, "", 79.4, 10392226, 33692.6))
	other := domain.Table{
		Schema: domain.Schema{EntityColumn: "country", Metrics: []string{"pop", "lifeExp", "gdpPercap"}},
		Rows:   []domain.Row{row("Belgium", 1952, "", 8730405, 68.0, 8343.1)},
	}

	_, err := Union(a, other)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "1952")

	short := table(domain.Row{Entity: "Chad", Period: 1952, Values: []domain.Float{domain.Some(1)}})
	_, err = Union(a, short)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestSortByPeriod(t *testing.T) {
	in := table(
		row("France", 2007, "", 1, 1, 1),
		row("Belgium", 2007, "", 1, 1, 1),
		row("France", 1952, "", 1, 1, 1),
	)

	got := SortByPeriod(in)
	assert.Equal(t, "France", got.Rows[0].Entity)
	assert.Equal(t, 1952, got.Rows[0].Period)
	assert.Equal(t, "Belgium", got.Rows[1].Entity)
	assert.Equal(t, "France", got.Rows[2].Entity)
	assert.Equal(t, "France", in.Rows[0].Entity, "input is untouched")
}

func TestEnrich(t *testing.T) {
	lookup := mapLookup{"Belgium": "Europe", "Chad": "Africa"}
	in := table(
		row("Belgium", 1952, "", 68, 8730405, 8343.1),
		row("Atlantis", 1952, "", 50, 1000, 10),
		row("Chad", 1952, "", 38, 2682462, 1178.7),
		row("Atlantis", 1957, "", 51, 1100, 11),
		row("Lemuria", 1957, "", 40, 10, 1),
	)

	got, report := Enrich(in, lookup)

	assert.Equal(t, []string{"Europe", domain.NullCategory, "Africa", domain.NullCategory, domain.NullCategory},
		[]string{got.Rows[0].Category, got.Rows[1].Category, got.Rows[2].Category, got.Rows[3].Category, got.Rows[4].Category})
	assert.Equal(t, []string{"Atlantis", "Lemuria"}, report.Misses)
	assert.Equal(t, 3, report.MissRows)
	assert.Equal(t, domain.NullCategory, in.Rows[0].Category, "input is untouched")

	err := report.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLookupMiss)
	assert.Contains(t, err.Error(), "Atlantis; Lemuria")
	assert.False(t, err.(*errors.AppError).Fatal())
}

func TestEnrich_Idempotent(t *testing.T) {
	lookup := mapLookup{"Belgium": "Europe"}
	in := table(
		row("Belgium", 1952, "Stale", 68, 8730405, 8343.1),
		row("Atlantis", 1952, "Stale", 50, 1000, 10),
	)

	once, r1 := Enrich(in, lookup)
	twice, r2 := Enrich(once, lookup)

	assert.Equal(t, once, twice)
	assert.Equal(t, r1, r2)
	assert.Equal(t, domain.NullCategory, once.Rows[1].Category, "stale categories are recomputed")
}

func TestEnrich_NoMisses(t *testing.T) {
	_, report := Enrich(table(row("Belgium", 1952, "", 1, 1, 1)), mapLookup{"Belgium": "Europe"})
	assert.Empty(t, report.Misses)
	assert.NoError(t, report.Err())
}
