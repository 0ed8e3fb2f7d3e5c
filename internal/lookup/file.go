package lookup

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"reportflow/internal/errors"
)

// LoadFile reads a mapping file. YAML files hold a flat "entity: category"
// mapping; CSV files hold entity,category records with an optional header.
func LoadFile(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewSourceNotFoundError(path, err)
		}
		return nil, errors.NewStorageError("failed to read lookup file", err).WithContext("path", path)
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var entries map[string]string
		if err := yaml.UnmarshalStrict(data, &entries); err != nil {
			return nil, errors.NewUnreadableFormatError(path, err)
		}
		return NewMap(name, entries)
	case ".csv":
		r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\ufeff")))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		records, err := r.ReadAll()
		if err != nil {
			return nil, errors.NewUnreadableFormatError(path, err)
		}
		return fromRecords(name, records)
	default:
		return nil, errors.NewConfigError("unsupported lookup file extension", nil).WithContext("path", path)
	}
}
