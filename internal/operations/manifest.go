package operations

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"reportflow/internal/errors"
	"reportflow/pkg/contracts"
	"reportflow/pkg/contracts/domain"
)

// Manifest records what one run read, did and wrote. It is saved next to the
// run's artifacts so a presenter can tell which inputs produced them.
type Manifest struct {
	RunID      string    `json:"run_id"`
	Version    string    `json:"version"`
	DataFormat string    `json:"data_format"`
	TraceID    string    `json:"trace_id,omitempty"`
	Source     string    `json:"source"`
	Sheets     []string  `json:"sheets"`
	Category   *string   `json:"category,omitempty"`
	Status     RunStatus `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   string    `json:"duration"`

	Rows         int      `json:"rows"`
	Periods      []int    `json:"periods"`
	LookupMisses []string `json:"lookup_misses"`

	Stages []StageExecution `json:"stages"`
	Files  []string         `json:"files"`
	Error  string           `json:"error,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string                 `json:"stage_id"`
	StageName string                 `json:"stage_name"`
	Status    StageStatus            `json:"status"`
	Duration  string                 `json:"duration"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewManifest summarizes a finished run. The null category is written as
// nullLabel.
func NewManifest(state *RunState, nullLabel string) *Manifest {
	end := time.Now()
	if state.EndTime != nil {
		end = *state.EndTime
	}

	m := &Manifest{
		RunID:        state.ID,
		Version:      contracts.Version,
		DataFormat:   contracts.DataFormatVersion,
		TraceID:      state.TraceID,
		Source:       state.Source,
		Sheets:       nonNil(state.Sheets),
		Status:       state.Status,
		StartTime:    state.StartTime,
		EndTime:      end,
		Duration:     end.Sub(state.StartTime).String(),
		Rows:         state.Combined.Len(),
		Periods:      state.Combined.Periods(),
		LookupMisses: nonNil(state.Lookup.Misses),
		Files:        nonNil(state.Files),
	}
	if m.Periods == nil {
		m.Periods = []int{}
	}
	if state.Category != nil {
		label := domain.CategoryLabel(*state.Category, nullLabel)
		m.Category = &label
	}
	if state.Error != nil {
		m.Error = state.Error.Error()
	}

	for _, s := range state.Stages {
		exec := StageExecution{
			StageID:   s.ID,
			StageName: s.Name,
			Status:    s.Status,
			Duration:  s.Duration().String(),
			Metadata:  s.Metadata,
		}
		if s.Error != nil {
			exec.Error = s.Error.Error()
		}
		m.Stages = append(m.Stages, exec)
	}
	if m.Stages == nil {
		m.Stages = []StageExecution{}
	}
	return m
}

// SaveToFile saves the manifest to a JSON file
func (m *Manifest) SaveToFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to marshal manifest", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.NewStorageError("failed to write manifest file", err).WithContext("path", path)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSourceNotFoundError(path, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.NewUnreadableFormatError(path, err)
	}
	return &manifest, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
