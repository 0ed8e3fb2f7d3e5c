package operations

import (
	"time"

	"reportflow/internal/config"
	"reportflow/internal/dataprocessing"
	"reportflow/pkg/contracts/domain"
)

// RunStatus represents the overall status of a run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState is the state of one pipeline run. Stages pass their results to
// later stages through it.
type RunState struct {
	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	// TraceID links the run to its spans when tracing is enabled
	TraceID string
	// Source is the resolved workbook path
	Source string
	// Category restricts the change figures to one category when set
	Category *string
	// Paths is where the run's artifacts go
	Paths *config.Paths

	// Stages in execution order
	Stages []*StageState

	Sheets   []string
	Tables   []domain.Table
	Combined domain.Table
	Lookup   dataprocessing.EnrichReport
	Summary  domain.Summary
	Changes  domain.ChangeTable
	Latest   domain.LatestTable
	Files    []string
}

// NewRunState creates a pending run writing under paths
func NewRunState(id string, paths *config.Paths) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Paths:     paths,
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// Stage returns the state of the stage with the given ID, or nil
func (r *RunState) Stage(id string) *StageState {
	for _, s := range r.Stages {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// stageState returns the state for stage, creating it on first use
func (r *RunState) stageState(stage Stage) *StageState {
	if s := r.Stage(stage.ID()); s != nil {
		return s
	}
	s := NewStageState(stage.ID(), stage.Name())
	r.Stages = append(r.Stages, s)
	return s
}

// Derive starts a child run that shares the combined table of r. Batch runs
// derive one child per category.
func (r *RunState) Derive(id string, paths *config.Paths, category string) *RunState {
	child := NewRunState(id, paths)
	child.TraceID = r.TraceID
	child.Source = r.Source
	child.Sheets = r.Sheets
	child.Lookup = r.Lookup
	child.Category = &category
	child.Combined = r.Combined.Filter(func(row domain.Row) bool {
		return row.Category == category
	})
	return child
}
