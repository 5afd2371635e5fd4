package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tsprep/internal/errors"
	"tsprep/internal/infrastructure"
	"tsprep/internal/operations"
	"tsprep/internal/preset"
)

// OperationsService starts, tracks and cancels full preprocessing runs.
// One run at a time: the worker holds the session lock until it finishes,
// and starting a second run while one is active returns a conflict.
type OperationsService struct {
	manager *operations.Manager
	prep    *PrepService
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
	timeout time.Duration

	mu      sync.Mutex
	runs    map[string]*operations.RunState
	order   []string
	current string
	cancel  context.CancelFunc
}

// NewOperationsService creates the run service.
func NewOperationsService(manager *operations.Manager, prep *PrepService, logger *slog.Logger, metrics *infrastructure.PipelineMetrics, timeout time.Duration) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsService{
		manager: manager,
		prep:    prep,
		logger:  logger.With(slog.String("component", "operations_service")),
		metrics: metrics,
		timeout: timeout,
		runs:    make(map[string]*operations.RunState),
	}
}

// StartRun launches a run with the given settings on the worker
// goroutine and returns its initial state.
func (s *OperationsService) StartRun(settings preset.Settings, export operations.ExportOptions) (operations.RunSnapshot, error) {
	steps := operations.BuildSteps(settings, export)
	run := s.manager.NewRun(steps)

	s.mu.Lock()
	if s.current != "" {
		s.mu.Unlock()
		return operations.RunSnapshot{}, errors.ErrRunRunning
	}
	if !s.prep.TryAcquire() {
		s.mu.Unlock()
		return operations.RunSnapshot{}, errors.ErrBusy
	}
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	s.runs[run.ID()] = run
	s.order = append(s.order, run.ID())
	s.current = run.ID()
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("run queued",
		slog.String("run_id", run.ID()),
		slog.Int("steps", len(steps)))
	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}

	go func() {
		defer s.prep.Release()
		defer cancel()

		started := time.Now()
		err := s.manager.Execute(ctx, run, steps, s.prep.Session())

		s.mu.Lock()
		s.current = ""
		s.cancel = nil
		s.mu.Unlock()

		if s.metrics != nil {
			s.metrics.RecordRun(context.Background(), string(run.Status()), time.Since(started))
		}
		if err != nil {
			s.logger.Error("run finished with error",
				slog.String("run_id", run.ID()),
				slog.String("error", err.Error()))
		}
	}()

	return run.Snapshot(), nil
}

// Run returns the state of one run by ID.
func (s *OperationsService) Run(id string) (operations.RunSnapshot, error) {
	s.mu.Lock()
	run, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		return operations.RunSnapshot{}, errors.ErrRunNotFound
	}
	return run.Snapshot(), nil
}

// ListRuns returns all runs, newest first.
func (s *OperationsService) ListRuns() []operations.RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := make([]operations.RunSnapshot, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		snaps = append(snaps, s.runs[s.order[i]].Snapshot())
	}
	return snaps
}

// CancelRun requests cancellation of the active run. The worker observes
// it at the next step boundary.
func (s *OperationsService) CancelRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return errors.ErrRunNotFound
	}
	if s.current != id || s.cancel == nil {
		return errors.ErrValidation("id", "run is not active")
	}
	s.cancel()
	s.logger.Info("run cancellation requested", slog.String("run_id", id))
	return nil
}

// Active reports whether a run is currently executing.
func (s *OperationsService) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != ""
}
