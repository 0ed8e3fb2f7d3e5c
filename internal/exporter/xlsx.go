package exporter

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// WriteWorkbook writes every sheet into one workbook, one worksheet per table.
// Numbers are stored as numeric cells and null values as empty cells.
func WriteWorkbook(filePath string, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.NewStorageError("failed to create header style", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return errors.NewStorageError("failed to name worksheet", err).WithContext("table", sheet.Name)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return errors.NewStorageError("failed to add worksheet", err).WithContext("table", sheet.Name)
		}

		if err := writeWorksheet(f, sheet, headerStyle); err != nil {
			return errors.NewStorageError("failed to write worksheet", err).WithContext("table", sheet.Name)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", filePath)
	}
	if err := f.SaveAs(filePath); err != nil {
		return errors.NewStorageError("failed to save workbook", err).WithContext("path", filePath)
	}
	return nil
}

func writeWorksheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range sheet.Rows {
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, xlsxCells(row)); err != nil {
			return err
		}
	}

	return sw.Flush()
}

func xlsxCells(row []interface{}) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		switch c := v.(type) {
		case domain.Float:
			if !c.IsNull() {
				cells[i] = c.Value
			}
		case nullCategory:
			cells[i] = string(c)
		default:
			cells[i] = c
		}
	}
	return cells
}
