package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of a fixture workbook. Rows are written from A1; an
// empty row leaves a blank line.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// GapminderHeader is the column-name row of the gapminder layout
var GapminderHeader = []interface{}{"country", "continent", "lifeExp", "pop", "gdpPercap"}

// Preamble returns the four rows above the column-name row of a gapminder sheet
func Preamble() [][]interface{} {
	return [][]interface{}{
		{"Gapminder extract"},
		{"Source: gapminder.org"},
		{},
		{"Values as published"},
	}
}

// GapminderSheet builds a sheet with the preamble, the gapminder column names
// and the given data rows
func GapminderSheet(name string, data ...[]interface{}) Sheet {
	return LayoutSheet(name, GapminderHeader, data...)
}

// LayoutSheet builds a sheet with the preamble, the given column names and data rows
func LayoutSheet(name string, header []interface{}, data ...[]interface{}) Sheet {
	rows := Preamble()
	rows = append(rows, header)
	rows = append(rows, data...)
	return Sheet{Name: name, Rows: rows}
}

// WriteWorkbook saves the sheets, in order, to a workbook in a temp directory
// and returns its path
func WriteWorkbook(t testing.TB, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		for r, row := range s.Rows {
			if len(row) == 0 {
				continue
			}
			values := row
			ref, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.Name, ref, &values))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
