package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"reportflow/internal/errors"
)

// jsonRow is one table row encoded as an object whose keys follow the header order
type jsonRow struct {
	headers []string
	cells   []interface{}
}

// MarshalJSON implements json.Marshaler
func (r jsonRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range r.headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var cell interface{}
		if i < len(r.cells) {
			cell = r.cells[i]
		}
		val, err := json.Marshal(cell)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteJSON writes a sheet as an array of objects. Null values encode as null.
func WriteJSON(filePath string, sheet Sheet) error {
	rows := make([]jsonRow, len(sheet.Rows))
	for i, cells := range sheet.Rows {
		rows[i] = jsonRow{headers: sheet.Headers, cells: cells}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode JSON", err).WithContext("table", sheet.Name)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", filePath)
	}
	if err := os.WriteFile(filePath, append(data, '\n'), 0644); err != nil {
		return errors.NewStorageError("failed to write JSON", err).WithContext("path", filePath)
	}
	return nil
}
