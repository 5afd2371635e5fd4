package services

import (
	"context"
	"log/slog"
	"sync"

	"tsprep/internal/dataset"
	"tsprep/internal/errors"
	"tsprep/internal/infrastructure"
	"tsprep/internal/pipeline"
	"tsprep/internal/preset"
)

// PrepService serializes access to the single preprocessing session.
// Interactive calls take the session lock for the duration of one
// transform; a full run holds it until the run finishes, so interactive
// callers get a busy error instead of racing the worker.
type PrepService struct {
	mu      sync.Mutex
	prep    *pipeline.Preprocessor
	presets *preset.Store
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewPrepService creates the session service.
func NewPrepService(presets *preset.Store, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *PrepService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrepService{
		prep:    pipeline.New(logger),
		presets: presets,
		logger:  logger.With(slog.String("component", "prep_service")),
		metrics: metrics,
	}
}

// Presets returns the preset store.
func (s *PrepService) Presets() *preset.Store {
	return s.presets
}

// TryAcquire takes the session lock without blocking. The operations
// service holds it across a whole run.
func (s *PrepService) TryAcquire() bool {
	return s.mu.TryLock()
}

// Release frees the session lock taken by TryAcquire.
func (s *PrepService) Release() {
	s.mu.Unlock()
}

// Session exposes the underlying preprocessor to the run worker. Callers
// must hold the session lock.
func (s *PrepService) Session() *pipeline.Preprocessor {
	return s.prep
}

// withSession runs fn under the session lock, mapping a busy session to
// the conflict error.
func (s *PrepService) withSession(fn func(*pipeline.Preprocessor) error) error {
	if !s.mu.TryLock() {
		return errors.ErrBusy
	}
	defer s.mu.Unlock()
	return fn(s.prep)
}

// Load reads a new input file, replacing the session.
func (s *PrepService) Load(path string) (pipeline.LoadResult, error) {
	var res pipeline.LoadResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.Load(path)
		return err
	})
	if err == nil && s.metrics != nil {
		s.metrics.RowsLoaded.Add(context.Background(), int64(res.Rows))
	}
	return res, err
}

// SessionInfo describes the loaded dataset.
type SessionInfo struct {
	Loaded         bool     `json:"loaded"`
	SourcePath     string   `json:"source_path,omitempty"`
	Rows           int      `json:"rows"`
	Columns        []string `json:"columns,omitempty"`
	DateColumn     string   `json:"date_column,omitempty"`
	DateParsed     bool     `json:"date_parsed"`
	DateSample     string   `json:"date_sample,omitempty"`
	NumericColumns []string `json:"numeric_columns,omitempty"`
}

// Info returns the current session facts.
func (s *PrepService) Info() (SessionInfo, error) {
	var info SessionInfo
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		det := p.Detection()
		info = SessionInfo{
			Loaded:         p.Loaded(),
			SourcePath:     p.SourcePath(),
			Rows:           p.ProcessedRows(),
			DateColumn:     det.DateColumn,
			DateParsed:     det.DateParsed,
			DateSample:     det.DateFormatSample,
			NumericColumns: append([]string(nil), det.NumericColumns...),
		}
		if p.Loaded() {
			info.Columns = p.Preview(0).Columns()
		}
		return nil
	})
	return info, err
}

// Preview returns the first rows of the processed snapshot rendered as
// strings, null cells empty.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total_rows"`
}

// PreviewRows builds a preview of up to n rows.
func (s *PrepService) PreviewRows(n int) (Preview, error) {
	var pv Preview
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		if !p.Loaded() {
			return pipeline.ErrNotLoaded
		}
		head := p.Preview(n)
		pv.Columns = head.Columns()
		pv.Total = p.ProcessedRows()
		pv.Rows = make([][]string, 0, head.RowCount())
		for i := 0; i < head.RowCount(); i++ {
			row := head.Row(i)
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = v.Format(exportLayout)
			}
			pv.Rows = append(pv.Rows, cells)
		}
		return nil
	})
	return pv, err
}

const exportLayout = "2006-01-02 15:04:05"

// ApplyFilters rebuilds the processed snapshot under the predicates.
func (s *PrepService) ApplyFilters(predicates []pipeline.FilterPredicate) (pipeline.FilterResult, error) {
	var res pipeline.FilterResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.ApplyFilters(predicates)
		return err
	})
	return res, err
}

// RemoveOutliers applies one outlier pass.
func (s *PrepService) RemoveOutliers(method pipeline.OutlierMethod, columns []string, action pipeline.OutlierAction) (pipeline.OutlierResult, error) {
	var res pipeline.OutlierResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.RemoveOutliers(method, columns, action)
		return err
	})
	return res, err
}

// Normalize applies one normalization pass.
func (s *PrepService) Normalize(method pipeline.NormMethod, columns []string) (pipeline.NormalizeResult, error) {
	var res pipeline.NormalizeResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.Normalize(method, columns)
		return err
	})
	return res, err
}

// SnapTimestamps snaps the date column to the minute grid.
func (s *PrepService) SnapTimestamps(intervalMinutes int) (pipeline.SnapResult, error) {
	var res pipeline.SnapResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.SnapTimestamps(intervalMinutes)
		return err
	})
	return res, err
}

// RealignTimestamps regenerates the date column from a start time.
func (s *PrepService) RealignTimestamps(start string, intervalMinutes int) (pipeline.RealignResult, error) {
	var res pipeline.RealignResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		var err error
		res, err = p.RealignTimestamps(start, intervalMinutes)
		return err
	})
	return res, err
}

// ExportResult reports a save.
type ExportResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Export writes the processed snapshot to disk.
func (s *PrepService) Export(outputPath, dateFormat string) (ExportResult, error) {
	var res ExportResult
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		path, err := p.Save(outputPath, dateFormat)
		if err != nil {
			return err
		}
		res = ExportResult{Path: path, Rows: p.ProcessedRows()}
		return nil
	})
	return res, err
}

// ColumnStats summarizes one numeric column.
func (s *PrepService) ColumnStats(column string) (dataset.ColumnStats, error) {
	var stats dataset.ColumnStats
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		if !p.Loaded() {
			return pipeline.ErrNotLoaded
		}
		if !p.Detection().IsNumeric(column) {
			return errors.ErrValidation("column", "not a numeric column")
		}
		// A recognized numeric column with no non-null values reports
		// zeroed stats rather than an error.
		stats, _ = p.ColumnStats(column)
		return nil
	})
	return stats, err
}

// Stats returns the run counters.
func (s *PrepService) Stats() (pipeline.RunStats, error) {
	var stats pipeline.RunStats
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		stats = p.Stats()
		return nil
	})
	return stats, err
}

// Summary returns the human-readable run digest.
func (s *PrepService) Summary() (string, error) {
	var summary string
	err := s.withSession(func(p *pipeline.Preprocessor) error {
		if !p.Loaded() {
			return pipeline.ErrNotLoaded
		}
		summary = p.Summary()
		return nil
	})
	return summary, err
}
