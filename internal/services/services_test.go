package services

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "tsprep/internal/errors"
	"tsprep/internal/operations"
	"tsprep/internal/pipeline"
	"tsprep/internal/preset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newPrepService(t *testing.T) *PrepService {
	t.Helper()
	store, err := preset.NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return NewPrepService(store, testLogger(), nil)
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "date,temp\n2024-01-01 00:00:00,1\n2024-01-01 00:02:00,2\n2024-01-01 00:04:00,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPrepServiceLoadAndInfo(t *testing.T) {
	s := newPrepService(t)

	info, err := s.Info()
	require.NoError(t, err)
	assert.False(t, info.Loaded)

	res, err := s.Load(writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)

	info, err = s.Info()
	require.NoError(t, err)
	assert.True(t, info.Loaded)
	assert.Equal(t, "date", info.DateColumn)
	assert.Equal(t, []string{"temp"}, info.NumericColumns)
}

func TestPrepServicePreview(t *testing.T) {
	s := newPrepService(t)

	_, err := s.PreviewRows(5)
	assert.ErrorIs(t, err, pipeline.ErrNotLoaded)

	_, err = s.Load(writeSample(t))
	require.NoError(t, err)

	pv, err := s.PreviewRows(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "temp"}, pv.Columns)
	require.Len(t, pv.Rows, 2)
	assert.Equal(t, 3, pv.Total)
	assert.Equal(t, "2024-01-01 00:00:00", pv.Rows[0][0])
	assert.Equal(t, "1", pv.Rows[0][1])
}

func TestPrepServiceBusyWhileAcquired(t *testing.T) {
	s := newPrepService(t)
	_, err := s.Load(writeSample(t))
	require.NoError(t, err)

	require.True(t, s.TryAcquire())
	defer s.Release()

	_, err = s.PreviewRows(1)
	assert.ErrorIs(t, err, apierrors.ErrBusy)
	_, err = s.ApplyFilters(nil)
	assert.ErrorIs(t, err, apierrors.ErrBusy)
}

func TestPrepServiceColumnStatsValidation(t *testing.T) {
	s := newPrepService(t)
	_, err := s.Load(writeSample(t))
	require.NoError(t, err)

	stats, err := s.ColumnStats("temp")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)

	_, err = s.ColumnStats("date")
	assert.Error(t, err)
}

func TestPrepServiceColumnStatsAllNullColumn(t *testing.T) {
	s := newPrepService(t)
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,v\n1,\n2,\n"), 0644))
	_, err := s.Load(path)
	require.NoError(t, err)

	// v holds only nulls but is still a recognized numeric column; the
	// stats come back zeroed instead of erroring.
	stats, err := s.ColumnStats("v")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}

func newOperationsService(t *testing.T, prep *PrepService) *OperationsService {
	t.Helper()
	manager := operations.NewManager(testLogger(), operations.NopSink{})
	return NewOperationsService(manager, prep, testLogger(), nil, time.Minute)
}

func waitForRun(t *testing.T, s *OperationsService, id string) operations.RunSnapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		snap, err := s.Run(id)
		require.NoError(t, err)
		switch snap.Status {
		case operations.StatusCompleted, operations.StatusFailed, operations.StatusCancelled:
			return snap
		}
		select {
		case <-deadline:
			t.Fatalf("run %s did not finish", id)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// startRun retries while the previous run's worker is still letting go
// of the session lock.
func startRun(t *testing.T, ops *OperationsService, settings preset.Settings, export operations.ExportOptions) operations.RunSnapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		snap, err := ops.StartRun(settings, export)
		if err == nil {
			return snap
		}
		require.ErrorIs(t, err, apierrors.ErrBusy)
		select {
		case <-deadline:
			t.Fatal("could not start run")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOperationsServiceRunLifecycle(t *testing.T) {
	prep := newPrepService(t)
	_, err := prep.Load(writeSample(t))
	require.NoError(t, err)

	ops := newOperationsService(t, prep)

	settings := preset.Default()
	out := filepath.Join(t.TempDir(), "out.csv")
	snap, err := ops.StartRun(settings, operations.ExportOptions{Enabled: true, OutputPath: out})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)

	final := waitForRun(t, ops, snap.ID)
	assert.Equal(t, operations.StatusCompleted, final.Status)

	_, err = os.Stat(out)
	assert.NoError(t, err)

	// The worker releases the session lock shortly after the run
	// finishes; interactive calls work again.
	deadline := time.After(2 * time.Second)
	for {
		_, err = prep.PreviewRows(1)
		if err == nil {
			break
		}
		require.ErrorIs(t, err, apierrors.ErrBusy)
		select {
		case <-deadline:
			t.Fatal("session lock never released")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOperationsServiceUnknownRun(t *testing.T) {
	ops := newOperationsService(t, newPrepService(t))

	_, err := ops.Run("missing")
	assert.ErrorIs(t, err, apierrors.ErrRunNotFound)
	err = ops.CancelRun("missing")
	assert.ErrorIs(t, err, apierrors.ErrRunNotFound)
}

func TestOperationsServiceListNewestFirst(t *testing.T) {
	prep := newPrepService(t)
	_, err := prep.Load(writeSample(t))
	require.NoError(t, err)

	ops := newOperationsService(t, prep)
	settings := preset.Default()
	settings.Outlier.Apply = false

	first := startRun(t, ops, settings, operations.ExportOptions{})
	waitForRun(t, ops, first.ID)

	second := startRun(t, ops, settings, operations.ExportOptions{})
	waitForRun(t, ops, second.ID)

	runs := ops.ListRuns()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestOperationsServiceCancelInactiveRun(t *testing.T) {
	prep := newPrepService(t)
	_, err := prep.Load(writeSample(t))
	require.NoError(t, err)

	ops := newOperationsService(t, prep)
	settings := preset.Default()
	settings.Outlier.Apply = false

	snap, err := ops.StartRun(settings, operations.ExportOptions{})
	require.NoError(t, err)
	waitForRun(t, ops, snap.ID)

	err = ops.CancelRun(snap.ID)
	assert.Error(t, err)
}
