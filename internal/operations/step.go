package operations

import (
	"context"
	"sync"
	"time"

	"tsprep/internal/pipeline"
)

// Step is one unit of work in a preprocessing run.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string

	// Name returns the human-readable name for this step.
	Name() string

	// Critical reports whether a failure of this step halts the run.
	// Later optional steps only log their failure and let the run
	// continue.
	Critical() bool

	// Run executes the step against the shared preprocessor.
	Run(ctx context.Context, prep *pipeline.Preprocessor) (StepOutcome, error)
}

// StepOutcome carries the result message and counters of a completed step.
type StepOutcome struct {
	Message  string
	Metadata map[string]any
}

// StepStatus is the lifecycle state of one step within a run.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState is the runtime state of one step.
type StepState struct {
	mu        sync.RWMutex
	id        string
	name      string
	status    StepStatus
	message   string
	err       string
	startTime *time.Time
	endTime   *time.Time
	metadata  map[string]any
}

// StepSnapshot is a serializable copy of one step's state.
type StepSnapshot struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	Message   string         `json:"message"`
	Error     string         `json:"error,omitempty"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{id: id, name: name, status: StepStatusPending}
}

// Start marks the step active.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.startTime = &now
	s.status = StepStatusActive
}

// Complete marks the step completed with its outcome.
func (s *StepState) Complete(outcome StepOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.endTime = &now
	s.status = StepStatusCompleted
	s.message = outcome.Message
	s.metadata = outcome.Metadata
}

// Fail marks the step failed.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.endTime = &now
	s.status = StepStatusFailed
	s.err = err.Error()
}

// Skip marks the step skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.endTime = &now
	s.status = StepStatusSkipped
	s.message = reason
}

// Status returns the current step status.
func (s *StepState) Status() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a copy safe to serialize while the run progresses.
func (s *StepState) Snapshot() StepSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := StepSnapshot{
		ID:      s.id,
		Name:    s.name,
		Status:  s.status,
		Message: s.message,
		Error:   s.err,
	}
	if s.startTime != nil {
		t := *s.startTime
		cp.StartTime = &t
	}
	if s.endTime != nil {
		t := *s.endTime
		cp.EndTime = &t
	}
	if s.metadata != nil {
		cp.Metadata = make(map[string]any, len(s.metadata))
		for k, v := range s.metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}
