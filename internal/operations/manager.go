// Package operations runs the preprocessing pipeline as an ordered
// sequence of steps against one shared preprocessor, reporting progress
// through an event sink. Steps run on a single worker goroutine;
// cancellation is cooperative and observed between steps, never inside
// one.
package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tsprep/internal/pipeline"
)

// Manager executes runs. It owns no dataset state of its own; the
// preprocessor passed to Execute carries the session.
type Manager struct {
	logger *slog.Logger
	sink   EventSink
}

// NewManager creates a manager publishing to the given sink. A nil sink
// discards events.
func NewManager(logger *slog.Logger, sink EventSink) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Manager{
		logger: logger.With(slog.String("component", "operations")),
		sink:   sink,
	}
}

// NewRun allocates a run state for the given steps with a fresh ID.
func (m *Manager) NewRun(steps []Step) *RunState {
	states := make([]*StepState, 0, len(steps))
	for _, step := range steps {
		states = append(states, NewStepState(step.ID(), step.Name()))
	}
	return NewRunState(uuid.New().String(), states)
}

// Execute runs the steps in order against the preprocessor. A critical
// step failure or a cancellation stops the run; a non-critical failure is
// recorded on its step and the run continues. The returned error reflects
// the run-ending condition only.
func (m *Manager) Execute(ctx context.Context, run *RunState, steps []Step, prep *pipeline.Preprocessor) error {
	run.start()
	prep.ResetStats()
	m.publishStatus(run, "", string(StatusRunning), "run started", 0)

	logger := m.logger.With(slog.String("run_id", run.ID()))
	logger.Info("run started", slog.Int("steps", len(steps)))

	var runErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(run, i, "run cancelled")
			run.finish(StatusCancelled, context.Cause(ctx).Error())
			m.publishStatus(run, "", string(StatusCancelled), "run cancelled", m.progress(i, len(steps)))
			logger.Warn("run cancelled", slog.String("step", step.ID()))
			return err
		}

		state := run.steps[i]
		state.Start()
		m.publishStatus(run, step.ID(), string(StepStatusActive), step.Name(), m.progress(i, len(steps)))

		started := time.Now()
		outcome, err := step.Run(ctx, prep)
		elapsed := time.Since(started)

		if err != nil {
			state.Fail(err)
			logger.Error("step failed",
				slog.String("step", step.ID()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()))
			m.sink.Publish(Event{
				Type:        EventTypeError,
				OperationID: run.ID(),
				StepID:      step.ID(),
				Status:      string(StepStatusFailed),
				Message:     err.Error(),
				Progress:    m.progress(i+1, len(steps)),
				Timestamp:   time.Now(),
			})

			if step.Critical() {
				runErr = err
				m.skipRemaining(run, i+1, "halted by earlier failure")
				break
			}
			continue
		}

		state.Complete(outcome)
		logger.Info("step completed",
			slog.String("step", step.ID()),
			slog.Duration("elapsed", elapsed),
			slog.String("message", outcome.Message))
		m.sink.Publish(Event{
			Type:        EventTypeProgress,
			OperationID: run.ID(),
			StepID:      step.ID(),
			Status:      string(StepStatusCompleted),
			Message:     outcome.Message,
			Progress:    m.progress(i+1, len(steps)),
			Timestamp:   time.Now(),
			Metadata:    outcome.Metadata,
		})
	}

	if runErr != nil {
		run.finish(StatusFailed, runErr.Error())
		m.publishStatus(run, "", string(StatusFailed), runErr.Error(), 1)
		logger.Error("run failed", slog.String("error", runErr.Error()))
		return runErr
	}

	run.finish(StatusCompleted, "")
	m.sink.Publish(Event{
		Type:        EventTypeComplete,
		OperationID: run.ID(),
		Status:      string(StatusCompleted),
		Message:     prep.Summary(),
		Progress:    1,
		Timestamp:   time.Now(),
	})
	logger.Info("run completed", slog.Int("rows", prep.ProcessedRows()))
	return nil
}

func (m *Manager) skipRemaining(run *RunState, from int, reason string) {
	for _, state := range run.steps[from:] {
		if state.Status() == StepStatusPending {
			state.Skip(reason)
		}
	}
}

func (m *Manager) publishStatus(run *RunState, stepID, status, message string, progress float64) {
	m.sink.Publish(Event{
		Type:        EventTypeStatus,
		OperationID: run.ID(),
		StepID:      stepID,
		Status:      status,
		Message:     message,
		Progress:    progress,
		Timestamp:   time.Now(),
	})
}

func (m *Manager) progress(done, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(done) / float64(total)
}
