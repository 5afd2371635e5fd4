package operations

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a whole run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// RunState tracks one preprocessing run.
type RunState struct {
	mu         sync.RWMutex
	id         string
	status     Status
	steps      []*StepState
	err        string
	startedAt  time.Time
	finishedAt time.Time
}

// NewRunState creates a pending run with the given steps.
func NewRunState(id string, steps []*StepState) *RunState {
	return &RunState{id: id, status: StatusPending, steps: steps}
}

// ID returns the run identifier.
func (r *RunState) ID() string {
	return r.id
}

// Status returns the current run status.
func (r *RunState) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *RunState) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusRunning
	r.startedAt = time.Now()
}

func (r *RunState) finish(status Status, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.err = errMsg
	r.finishedAt = time.Now()
}

// RunSnapshot is a serializable copy of a run's state.
type RunSnapshot struct {
	ID         string         `json:"id"`
	Status     Status         `json:"status"`
	Steps      []StepSnapshot `json:"steps"`
	Error      string         `json:"error,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Snapshot returns a copy safe to serialize while the worker runs.
func (r *RunState) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		ID:     r.id,
		Status: r.status,
		Error:  r.err,
	}
	for _, s := range r.steps {
		snap.Steps = append(snap.Steps, s.Snapshot())
	}
	if !r.startedAt.IsZero() {
		t := r.startedAt
		snap.StartedAt = &t
	}
	if !r.finishedAt.IsZero() {
		t := r.finishedAt
		snap.FinishedAt = &t
	}
	return snap
}
