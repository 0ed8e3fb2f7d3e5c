package dataprocessing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportflow/internal/errors"
	"reportflow/internal/shared/testutil"
	"reportflow/pkg/contracts/domain"
)

func TestListSheets(t *testing.T) {
	path := writeWorkbook(t,
		gapminderSheet("1952"),
		gapminderSheet("2007"),
		gapminderSheet("1957"),
	)

	sheets, err := ListSheets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1952", "2007", "1957"}, sheets, "workbook order is kept")
}

func TestListSheets_Errors(t *testing.T) {
	dir := t.TempDir()
	notWorkbook := filepath.Join(dir, "plain.xlsx")
	require.NoError(t, os.WriteFile(notWorkbook, []byte("country,pop\n"), 0644))

	tests := []struct {
		name     string
		path     string
		wantType errors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "missing.xlsx"), errors.ErrTypeSourceNotFound},
		{"directory", dir, errors.ErrTypeSourceNotFound},
		{"not a workbook", notWorkbook, errors.ErrTypeUnreadableFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ListSheets(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
		})
	}
}

func TestLoadSheet(t *testing.T) {
	path := writeWorkbook(t, gapminderSheet("2007",
		[]interface{}{"Belgium", "Europe", 79.441, 10392226, 33692.60508},
		[]interface{}{"France", "Europe", 80.657, 61083916, 30470.0167},
	))

	tbl, err := LoadSheet(context.Background(), path, "2007", testLoadOptions())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, gapminderSchema, tbl.Schema)
	assert.Equal(t, "Belgium", tbl.Rows[0].Entity)
	assert.Equal(t, 2007, tbl.Rows[0].Period)
	assert.Equal(t, domain.NullCategory, tbl.Rows[0].Category, "loader does not set categories")

	pop, ok := tbl.Value(0, "pop")
	require.True(t, ok)
	assert.Equal(t, domain.Some(10392226), pop)

	gdp, _ := tbl.Value(1, "gdpPercap")
	assert.InDelta(t, 30470.0167, gdp.Value, 1e-9)
}

func TestLoadSheet_ColumnsMatchedByName(t *testing.T) {
	rows := testutil.Preamble()
	rows = append(rows,
		[]interface{}{" GDPPERCAP ", "notes", "Country", "pop", "lifeexp"},
		[]interface{}{1000.5, "ignored", "Chad", "1,234,567", 50.1},
		[]interface{}{},
		[]interface{}{"", "", "", "", ""},
		[]interface{}{2000, "no entity", "", 5, 60},
		[]interface{}{"n/a", "", " Niger ", "", 48.2},
	)
	path := writeWorkbook(t, testutil.Sheet{Name: "1987", Rows: rows})

	logger, logs := testutil.NewTestLogger(t)
	opts := testLoadOptions()
	opts.Logger = logger

	tbl, err := LoadSheet(context.Background(), path, "1987", opts)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len(), "blank rows and rows without an entity are dropped")

	chad := tbl.Rows[0]
	assert.Equal(t, "Chad", chad.Entity)
	assert.Equal(t, 1987, chad.Period)
	assert.Equal(t, []domain.Float{domain.Some(50.1), domain.Some(1234567), domain.Some(1000.5)}, chad.Values)

	niger := tbl.Rows[1]
	assert.Equal(t, "Niger", niger.Entity)
	assert.Equal(t, []domain.Float{domain.Some(48.2), domain.Null, domain.Null}, niger.Values)

	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Unparseable numeric cell")
	assert.True(t, logs.ContainsAttr("value", "n/a"))
}

func TestLoadSheet_HeaderRowsOption(t *testing.T) {
	path := writeWorkbook(t, testutil.Sheet{Name: "1952", Rows: [][]interface{}{
		{"country", "lifeExp", "pop", "gdpPercap"},
		{"Belgium", 68, 8730405, 8343.1},
	}})

	opts := testLoadOptions()
	opts.HeaderRows = 0
	tbl, err := LoadSheet(context.Background(), path, "1952", opts)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Belgium", tbl.Rows[0].Entity)
}

func TestLoadSheet_SchemaMismatch(t *testing.T) {
	shortRows := [][]interface{}{{"title"}, {"source"}, {"notes"}}
	missingPop := append(testutil.Preamble(),
		[]interface{}{"country", "lifeExp", "gdpPercap"},
		[]interface{}{"Belgium", 68, 8343.1},
	)

	path := writeWorkbook(t,
		gapminderSheet("notes", []interface{}{"Belgium", "Europe", 68, 8730405, 8343.1}),
		testutil.Sheet{Name: "1952", Rows: shortRows},
		testutil.Sheet{Name: "1957", Rows: missingPop},
	)

	tests := []struct {
		name    string
		sheet   string
		message string
	}{
		{"sheet name is not a period", "notes", "not a period"},
		{"no column-name row", "1952", "no column-name row"},
		{"missing column", "1957", "missing columns: pop"},
		{"unknown sheet", "1962", "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSheet(context.Background(), path, tt.sheet, testLoadOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), tt.sheet, "error names the sheet")
		})
	}
}

func TestLoadSheet_CanceledContext(t *testing.T) {
	path := writeWorkbook(t, gapminderSheet("1952"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadSheet(ctx, path, "1952", testLoadOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadAll(t *testing.T) {
	path := writeWorkbook(t,
		gapminderSheet("1952", []interface{}{"Belgium", "Europe", 68, 8730405, 8343.1}),
		gapminderSheet("1957", []interface{}{"Belgium", "Europe", 69.2, 8989111, 9714.96}),
		gapminderSheet("1962", []interface{}{"Belgium", "Europe", 70.3, 9218400, 10991.2}),
	)

	sheets := []string{"1962", "1952", "1957"}
	for _, workers := range []int{0, 1, 3, 8} {
		tables, err := LoadAll(context.Background(), path, sheets, testLoadOptions(), workers)
		require.NoError(t, err)
		require.Len(t, tables, 3)
		assert.Equal(t, 1962, tables[0].Rows[0].Period, "results follow input order")
		assert.Equal(t, 1952, tables[1].Rows[0].Period)
		assert.Equal(t, 1957, tables[2].Rows[0].Period)
	}
}

func TestLoadAll_FirstErrorWins(t *testing.T) {
	path := writeWorkbook(t,
		gapminderSheet("1952", []interface{}{"Belgium", "Europe", 68, 8730405, 8343.1}),
		gapminderSheet("summary"),
	)

	_, err := LoadAll(context.Background(), path, []string{"1952", "summary"}, testLoadOptions(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestFilterSheets(t *testing.T) {
	names := []string{"1952", "notes", "1957", "2007 (draft)"}

	got, err := FilterSheets(names, `^\d{4}$`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1952", "1957"}, got)

	got, err = FilterSheets(names, "")
	require.NoError(t, err)
	assert.Equal(t, names, got)

	_, err = FilterSheets(names, "([")
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw    string
		want   domain.Float
		wantOK bool
	}{
		{"", domain.Null, true},
		{"   ", domain.Null, true},
		{"42", domain.Some(42), true},
		{" -1.5 ", domain.Some(-1.5), true},
		{"1,234.5", domain.Some(1234.5), true},
		{"1e3", domain.Some(1000), true},
		{"n/a", domain.Null, false},
		{"NaN", domain.Null, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseNumber(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	period, err := ParsePeriod(" 2007 ")
	require.NoError(t, err)
	assert.Equal(t, 2007, period)

	_, err = ParsePeriod("2007.5")
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}
