// Package lookup resolves entity names to categories.
//
// Every lookup is a pure function once built: the same entity name always
// yields the same category. Names are compared after domain.NormalizeKey, so
// case and surrounding whitespace do not matter.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"reportflow/internal/config"
	"reportflow/internal/errors"
	"reportflow/pkg/contracts/domain"
)

// Lookup maps an entity name to its category
type Lookup interface {
	Category(entity string) (string, bool)
}

// Map is an immutable in-memory lookup
type Map struct {
	name    string
	entries map[string]string
}

// NewMap builds a lookup from entity to category pairs. Two spellings of the
// same entity that disagree on the category are rejected.
func NewMap(name string, entries map[string]string) (*Map, error) {
	m := &Map{name: name, entries: make(map[string]string, len(entries))}
	for entity, category := range entries {
		if err := m.add(entity, category); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Map) add(entity, category string) error {
	key := domain.NormalizeKey(entity)
	category = strings.TrimSpace(category)
	if key == "" || category == "" {
		return nil
	}
	if prev, ok := m.entries[key]; ok && prev != category {
		return errors.NewAppValidationError(fmt.Sprintf(
			"lookup %s maps %q to both %q and %q", m.name, entity, prev, category))
	}
	m.entries[key] = category
	return nil
}

// Category returns the category of entity
func (m *Map) Category(entity string) (string, bool) {
	c, ok := m.entries[domain.NormalizeKey(entity)]
	return c, ok
}

// Name identifies the source of the lookup in logs
func (m *Map) Name() string { return m.name }

// Len returns the number of known entities
func (m *Map) Len() int { return len(m.entries) }

// Categories returns the distinct categories, sorted
func (m *Map) Categories() []string {
	seen := make(map[string]struct{})
	for _, c := range m.entries {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Chain tries each lookup in order; the first hit wins
type Chain []Lookup

// Category implements Lookup
func (c Chain) Category(entity string) (string, bool) {
	for _, l := range c {
		if category, ok := l.Category(entity); ok {
			return category, true
		}
	}
	return "", false
}

// fromRecords builds a map from two-column records. A first record whose
// second column reads "category" or "continent" is treated as a header.
func fromRecords(name string, records [][]string) (*Map, error) {
	m := &Map{name: name, entries: make(map[string]string, len(records))}
	for i, rec := range records {
		if len(rec) < 2 {
			continue
		}
		if i == 0 && isHeader(rec[1]) {
			continue
		}
		if err := m.add(rec[0], rec[1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func isHeader(cell string) bool {
	switch domain.NormalizeKey(cell) {
	case "category", "continent":
		return true
	}
	return false
}

// Build assembles the configured lookup chain: the mapping file, then the
// Google Sheets range, then the embedded table unless disabled.
func Build(ctx context.Context, cfg config.LookupConfig, logger *slog.Logger) (Lookup, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var chain Chain

	if cfg.File != "" {
		m, err := LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded lookup file", slog.String("path", cfg.File), slog.Int("entities", m.Len()),
			slog.Int("categories", len(m.Categories())))
		chain = append(chain, m)
	}

	if cfg.SheetID != "" {
		m, err := LoadSheets(ctx, SheetsOptions{
			SpreadsheetID: cfg.SheetID,
			Range:         cfg.SheetRange,
			APIKey:        cfg.APIKey,
			Endpoint:      cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded lookup sheet", slog.String("spreadsheet_id", cfg.SheetID), slog.Int("entities", m.Len()),
			slog.Int("categories", len(m.Categories())))
		chain = append(chain, m)
	}

	if !cfg.DisableStatic {
		m, err := Static()
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}

	if len(chain) == 0 {
		return nil, errors.NewConfigError("no lookup source configured", nil)
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}
