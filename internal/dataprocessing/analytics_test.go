package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

func TestChange(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur domain.Float
		want      domain.Float
	}{
		{"growth", domain.Some(30000), domain.Some(33000), domain.Some(0.1)},
		{"decline", domain.Some(200), domain.Some(150), domain.Some(-0.25)},
		{"flat", domain.Some(5), domain.Some(5), domain.Some(0)},
		{"zero previous", domain.Some(0), domain.Some(10), domain.Null},
		{"null previous", domain.Null, domain.Some(10), domain.Null},
		{"null current", domain.Some(10), domain.Null, domain.Null},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Change(tt.prev, tt.cur)
			assert.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-12)
		})
	}
}

func TestChanges_Belgium(t *testing.T) {
	in := table(
		row("Belgium", 2007, "Europe", 79.441, 10392226, 33000),
		row("Belgium", 2002, "Europe", 78.32, 10311970, 30000),
	)

	ct, err := Changes(in, ChangeOptions{Metrics: []string{"lifeExp", "gdpPercap"}})
	require.NoError(t, err)
	require.Len(t, ct.Rows, 2)
	assert.Equal(t, []string{"lifeExp", "gdpPercap"}, ct.ChangeMetrics)

	first := ct.Find("Belgium", 2002)
	require.Equal(t, 0, first, "rows are ordered by period within an entity")
	for _, c := range ct.Rows[first].Changes {
		assert.True(t, c.IsNull(), "first period has no change")
	}

	gdp, ok := ct.Change(ct.Find("Belgium", 2007), "gdpPercap")
	require.True(t, ok)
	assert.InDelta(t, 0.10, gdp.Value, 1e-12)

	life, _ := ct.Change(1, "lifeExp")
	assert.InDelta(t, (79.441-78.32)/78.32, life.Value, 1e-12)
}

func TestChanges_OrderAndGaps(t *testing.T) {
	in := table(
		row("France", 1957, "Europe", 1, 1, 110),
		row("Belgium", 1962, "Europe", 1, 1, 0),
		row("France", 1952, "Europe", 1, 1, 100),
		row("Belgium", 1952, "Europe", 1, 1, 50),
		row("Belgium", 1967, "Europe", 1, 1, 10),
	)

	ct, err := Changes(in, ChangeOptions{Metrics: []string{"gdpPercap"}})
	require.NoError(t, err)

	type key struct {
		entity string
		period int
	}
	var order []key
	for _, r := range ct.Rows {
		order = append(order, key{r.Entity, r.Period})
	}
	assert.Equal(t, []key{
		{"Belgium", 1952}, {"Belgium", 1962}, {"Belgium", 1967},
		{"France", 1952}, {"France", 1957},
	}, order)

	skip, _ := ct.Change(1, "gdpPercap")
	assert.InDelta(t, -1.0, skip.Value, 1e-12, "previous is the prior available period")
	afterZero, _ := ct.Change(2, "gdpPercap")
	assert.True(t, afterZero.IsNull(), "zero previous value gives null")
	france, _ := ct.Change(4, "gdpPercap")
	assert.InDelta(t, 0.1, france.Value, 1e-12)
}

func TestChanges_DefaultsToAllMetrics(t *testing.T) {
	ct, err := Changes(table(row("A", 1, "X", 1, 2, 3)), ChangeOptions{})
	require.NoError(t, err)
	assert.Equal(t, gapminderSchema.Metrics, ct.ChangeMetrics)
	assert.Len(t, ct.Rows[0].Changes, 3)
}

func TestChanges_CategoryFilter(t *testing.T) {
	in := table(
		row("Belgium", 2002, "Europe", 1, 1, 30000),
		row("Belgium", 2007, "Europe", 1, 1, 33000),
		row("Chad", 2002, "Africa", 1, 1, 1000),
		row("Atlantis", 2002, domain.NullCategory, 1, 1, 5),
	)

	europe := "Europe"
	ct, err := Changes(in, ChangeOptions{Metrics: []string{"gdpPercap"}, Category: &europe})
	require.NoError(t, err)
	require.Len(t, ct.Rows, 2)
	for _, r := range ct.Rows {
		assert.Equal(t, "Belgium", r.Entity)
	}

	null := domain.NullCategory
	ct, err = Changes(in, ChangeOptions{Category: &null})
	require.NoError(t, err)
	require.Len(t, ct.Rows, 1)
	assert.Equal(t, "Atlantis", ct.Rows[0].Entity)

	none := "Antarctica"
	ct, err = Changes(in, ChangeOptions{Category: &none})
	require.NoError(t, err)
	assert.Empty(t, ct.Rows)
}

func TestChanges_Errors(t *testing.T) {
	_, err := Changes(table(row("A", 1, "X", 1, 1, 1)), ChangeOptions{Metrics: []string{"gdp"}})
	assert.ErrorIs(t, err, errors.ErrValidation)

	dup := table(row("A", 1, "X", 1, 1, 1), row("A", 1, "X", 2, 2, 2))
	_, err = Changes(dup, ChangeOptions{})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestChanges_EntitySpellings(t *testing.T) {
	in := table(
		row("Belgium", 2002, "Europe", 78.32, 10311970, 30000),
		row("belgium ", 2007, "Europe", 79.441, 10392226, 33000),
		row("Albania", 2007, "Europe", 76.4, 3600523, 5937),
	)

	ct, err := Changes(in, ChangeOptions{Metrics: []string{"gdpPercap"}})
	require.NoError(t, err)
	require.Len(t, ct.Rows, 3)
	assert.Equal(t, "Albania", ct.Rows[0].Entity)
	assert.Equal(t, "Belgium", ct.Rows[1].Entity, "rows keep their own spelling")
	assert.Equal(t, "belgium ", ct.Rows[2].Entity)

	gdp, ok := ct.Change(2, "gdpPercap")
	require.True(t, ok)
	assert.InDelta(t, 0.10, gdp.Value, 1e-12, "one series across spellings")

	latest := Latest(ct)
	require.Len(t, latest.Rows, 2)
	belgium, ok := latest.Get("BELGIUM")
	require.True(t, ok)
	assert.Equal(t, "belgium ", belgium.Entity)
	assert.InDelta(t, 0.10, belgium.Changes[0].Value, 1e-12)

	dup := table(row("Chad", 2002, "Africa", 1, 1, 1), row("CHAD", 2002, "Africa", 2, 2, 2))
	_, err = Changes(dup, ChangeOptions{})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestLatest(t *testing.T) {
	in := table(
		row("Belgium", 2002, "Europe", 78.32, 10311970, 30000),
		row("Belgium", 2007, "Europe", 79.441, 10392226, 33000),
		row("Albania", 2007, "Europe", 76.4, 3600523, 5937),
	)
	ct, err := Changes(in, ChangeOptions{Metrics: []string{"gdpPercap"}})
	require.NoError(t, err)

	latest := Latest(ct)
	require.Len(t, latest.Rows, 2)
	assert.Equal(t, "Albania", latest.Rows[0].Entity)
	assert.Equal(t, "Belgium", latest.Rows[1].Entity)

	belgium, ok := latest.Get("Belgium")
	require.True(t, ok)
	assert.Equal(t, domain.Some(33000), belgium.Values[2], "latest period values")
	assert.Equal(t, "Europe", belgium.Category)

	change, ok := latest.Change("Belgium", "gdpPercap")
	require.True(t, ok)
	assert.InDelta(t, 0.10, change.Value, 1e-12)

	albania, _ := latest.Change("Albania", "gdpPercap")
	assert.True(t, albania.IsNull(), "single-period entity has no change")
}
