package operations

import (
	"context"
	"time"
)

// Stage IDs in pipeline order
const (
	StageEnumerate = "enumerate"
	StageLoad      = "load"
	StageUnion     = "union"
	StageEnrich    = "enrich"
	StageAggregate = "aggregate"
	StageChanges   = "changes"
	StageExport    = "export"
)

// Stage is one step of a pipeline run
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Execute runs the stage, reading its inputs from state and storing its outputs there
	Execute(ctx context.Context, state *RunState) error
}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState represents the runtime state of a stage
type StageState struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StageStatus            `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     error                  `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStageState creates a pending stage state
func NewStageState(id, name string) *StageState {
	return &StageState{
		ID:       id,
		Name:     name,
		Status:   StageStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the stage as active and sets the start time
func (s *StageState) Start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusActive
}

// Complete marks the stage as completed and sets the end time
func (s *StageState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusCompleted
}

// Fail marks the stage as failed with the given error
func (s *StageState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the stage as skipped with a reason
func (s *StageState) Skip(reason string) {
	s.Status = StageStatusSkipped
	s.Message = reason
}

// SetMetadata records a fact about the stage's work
func (s *StageState) SetMetadata(key string, value interface{}) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}

// Duration returns how long the stage ran, or zero if it has not finished
func (s *StageState) Duration() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}

// baseStage carries the identity shared by every stage
type baseStage struct {
	id   string
	name string
}

func (b baseStage) ID() string   { return b.id }
func (b baseStage) Name() string { return b.name }
