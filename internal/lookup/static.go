package lookup

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v2"

	"reportflow/internal/errors"
)

//go:embed data/continents.yaml
var continentsYAML []byte

// staticTable is the layout of the embedded table
type staticTable struct {
	Categories map[string][]string `yaml:"categories"`
	Aliases    map[string]string   `yaml:"aliases"`
}

var (
	staticOnce sync.Once
	staticMap  *Map
	staticErr  error
)

// Static returns the embedded country to continent lookup. It is parsed once.
func Static() (*Map, error) {
	staticOnce.Do(func() {
		staticMap, staticErr = parseStatic("static", continentsYAML)
	})
	return staticMap, staticErr
}

func parseStatic(name string, data []byte) (*Map, error) {
	var table staticTable
	if err := yaml.UnmarshalStrict(data, &table); err != nil {
		return nil, errors.NewUnreadableFormatError(name, err)
	}

	m := &Map{name: name, entries: make(map[string]string)}
	for category, entities := range table.Categories {
		for _, entity := range entities {
			if err := m.add(entity, category); err != nil {
				return nil, err
			}
		}
	}

	for alias, canonical := range table.Aliases {
		category, ok := m.Category(canonical)
		if !ok {
			return nil, errors.NewAppValidationError(fmt.Sprintf("alias %q points at unknown entity %q", alias, canonical))
		}
		if err := m.add(alias, category); err != nil {
			return nil, err
		}
	}

	return m, nil
}
