package operations

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsprep/internal/pipeline"
	"tsprep/internal/preset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadedPreprocessor(t *testing.T) *pipeline.Preprocessor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "date,temp\n2024-01-01 00:00:37,1\n2024-01-01 00:02:00,2\n2024-01-01 00:04:11,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p := pipeline.New(testLogger())
	_, err := p.Load(path)
	require.NoError(t, err)
	return p
}

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) byType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestBuildStepsOrderingAndGating(t *testing.T) {
	settings := preset.Default()
	settings.Normalize.Apply = true
	settings.Time.Normalize = true
	settings.Time.Realign = true
	settings.Time.StartTime = "2024-01-01 00:00:00"

	steps := BuildSteps(settings, ExportOptions{Enabled: true})
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{
		StepIDFilter, StepIDOutliers, StepIDNormalize,
		StepIDSnap, StepIDRealign, StepIDExport,
	}, ids)
}

func TestBuildStepsFilterAlwaysPresent(t *testing.T) {
	settings := preset.Settings{}
	steps := BuildSteps(settings, ExportOptions{})

	require.Len(t, steps, 1)
	assert.Equal(t, StepIDFilter, steps[0].ID())
	assert.True(t, steps[0].Critical())
}

func TestExecuteCompletesRun(t *testing.T) {
	prep := loadedPreprocessor(t)
	sink := &recordingSink{}
	m := NewManager(testLogger(), sink)

	settings := preset.Default()
	settings.Time.Normalize = true
	steps := BuildSteps(settings, ExportOptions{})
	run := m.NewRun(steps)

	require.NoError(t, m.Execute(context.Background(), run, steps, prep))

	snap := run.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	for _, st := range snap.Steps {
		assert.Equal(t, StepStatusCompleted, st.Status, st.ID)
	}

	complete := sink.byType(EventTypeComplete)
	require.Len(t, complete, 1)
	assert.Equal(t, 1.0, complete[0].Progress)
	assert.NotEmpty(t, sink.byType(EventTypeProgress))
}

func TestExecuteCriticalFailureHalts(t *testing.T) {
	// No dataset loaded: the filter step fails and the run stops there.
	prep := pipeline.New(testLogger())
	sink := &recordingSink{}
	m := NewManager(testLogger(), sink)

	settings := preset.Default()
	steps := BuildSteps(settings, ExportOptions{})
	run := m.NewRun(steps)

	err := m.Execute(context.Background(), run, steps, prep)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrNotLoaded))

	snap := run.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, StepStatusFailed, snap.Steps[0].Status)
	// The outlier step never ran.
	assert.Equal(t, StepStatusSkipped, snap.Steps[1].Status)
	assert.NotEmpty(t, sink.byType(EventTypeError))
}

func TestExecuteNonCriticalFailureContinues(t *testing.T) {
	// temp-only table with no date column: snap fails, export still runs.
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3,4\n"), 0644))
	prep := pipeline.New(testLogger())
	_, err := prep.Load(path)
	require.NoError(t, err)

	m := NewManager(testLogger(), NopSink{})

	settings := preset.Default()
	settings.Outlier.Apply = false
	settings.Time.Normalize = true
	out := filepath.Join(t.TempDir(), "out.csv")
	steps := BuildSteps(settings, ExportOptions{Enabled: true, OutputPath: out})
	run := m.NewRun(steps)

	require.NoError(t, m.Execute(context.Background(), run, steps, prep))

	snap := run.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, StepStatusFailed, findStep(t, snap, StepIDSnap).Status)
	assert.Equal(t, StepStatusCompleted, findStep(t, snap, StepIDExport).Status)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	prep := loadedPreprocessor(t)
	m := NewManager(testLogger(), NopSink{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps := BuildSteps(preset.Default(), ExportOptions{})
	run := m.NewRun(steps)

	err := m.Execute(ctx, run, steps, prep)
	require.ErrorIs(t, err, context.Canceled)

	snap := run.Snapshot()
	assert.Equal(t, StatusCancelled, snap.Status)
	for _, st := range snap.Steps {
		assert.Equal(t, StepStatusSkipped, st.Status)
	}
}

func TestRunSnapshotIsSerializable(t *testing.T) {
	m := NewManager(testLogger(), NopSink{})
	steps := BuildSteps(preset.Default(), ExportOptions{})
	run := m.NewRun(steps)

	snap := run.Snapshot()
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Nil(t, snap.StartedAt)
	require.Len(t, snap.Steps, len(steps))
}

func findStep(t *testing.T, snap RunSnapshot, id string) StepSnapshot {
	t.Helper()
	for _, st := range snap.Steps {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("step %s not found", id)
	return StepSnapshot{}
}
