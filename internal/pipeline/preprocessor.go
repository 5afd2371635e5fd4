package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tsprep/internal/dataset"
	"tsprep/internal/exporter"
	"tsprep/internal/loader"
)

// Sentinel errors for precondition failures. Degenerate data (empty or
// constant columns) is never an error, only a skipped no-op.
var (
	ErrNotLoaded     = errors.New("no dataset loaded")
	ErrNoDateColumn  = errors.New("no date column detected")
	ErrDateNotParsed = errors.New("date column could not be parsed as timestamps")
)

// Preprocessor owns the two dataset snapshots and applies the cleaning
// transforms. It is not safe for concurrent use; callers serialize access
// (the service layer holds a mutex, the operations manager runs stages on
// one worker goroutine).
type Preprocessor struct {
	logger *slog.Logger

	original  *dataset.Table
	processed *dataset.Table
	detection dataset.Detection

	sourcePath string
	stats      RunStats
}

// New creates a preprocessor with no dataset loaded.
func New(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{logger: logger.With(slog.String("component", "pipeline"))}
}

// LoadResult describes a successful load.
type LoadResult struct {
	Rows           int      `json:"rows"`
	Columns        []string `json:"columns"`
	DateColumn     string   `json:"date_column,omitempty"`
	DateSample     string   `json:"date_sample,omitempty"`
	NumericColumns []string `json:"numeric_columns,omitempty"`
}

// Load reads the file at path and replaces both snapshots. The previous
// session, if any, is discarded entirely.
func (p *Preprocessor) Load(path string) (LoadResult, error) {
	table, err := loader.Load(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	detection := dataset.Detect(table)

	p.original = table
	p.processed = table.Clone()
	p.detection = detection
	p.sourcePath = path
	p.stats = RunStats{
		OriginalRows:   table.RowCount(),
		Columns:        table.ColumnCount(),
		NumericColumns: len(detection.NumericColumns),
	}

	p.logger.Info("dataset loaded",
		slog.String("path", path),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", table.ColumnCount()),
		slog.String("date_column", detection.DateColumn),
		slog.Int("numeric_columns", len(detection.NumericColumns)))

	return LoadResult{
		Rows:           table.RowCount(),
		Columns:        table.Columns(),
		DateColumn:     detection.DateColumn,
		DateSample:     detection.DateFormatSample,
		NumericColumns: append([]string(nil), detection.NumericColumns...),
	}, nil
}

// Loaded reports whether a dataset is in memory.
func (p *Preprocessor) Loaded() bool {
	return p.original != nil
}

// Detection returns the column roles of the current session.
func (p *Preprocessor) Detection() dataset.Detection {
	return p.detection
}

// SourcePath returns the path of the loaded file, empty before load.
func (p *Preprocessor) SourcePath() string {
	return p.sourcePath
}

// ProcessedRows returns the current processed row count.
func (p *Preprocessor) ProcessedRows() int {
	if p.processed == nil {
		return 0
	}
	return p.processed.RowCount()
}

// Preview returns a copy of the first rows of the processed snapshot. It
// never mutates state and returns an empty table before load.
func (p *Preprocessor) Preview(rows int) *dataset.Table {
	if p.processed == nil {
		empty, _ := dataset.New(nil)
		return empty
	}
	return p.processed.Head(rows)
}

// ColumnStats summarizes a numeric column of the processed snapshot. The
// second return is false for columns outside the detected numeric set and
// for columns with no non-null values.
func (p *Preprocessor) ColumnStats(column string) (dataset.ColumnStats, bool) {
	if p.processed == nil || !p.detection.IsNumeric(column) {
		return dataset.ColumnStats{}, false
	}
	return dataset.Stats(p.processed, column)
}

// Stats returns the counters accumulated since load or the last ResetStats.
func (p *Preprocessor) Stats() RunStats {
	return p.stats
}

// ResetStats clears the per-run counters while keeping the load facts.
// The operations manager calls this at the start of each full run.
func (p *Preprocessor) ResetStats() {
	p.stats = RunStats{
		OriginalRows:   p.stats.OriginalRows,
		Columns:        p.stats.Columns,
		NumericColumns: p.stats.NumericColumns,
	}
}

// Save exports the processed snapshot. An empty output path synthesizes a
// name from the loaded file. Returns the path written.
func (p *Preprocessor) Save(outputPath, dateFormat string) (string, error) {
	if p.processed == nil {
		return "", ErrNotLoaded
	}
	path, err := exporter.Export(p.processed, exporter.Options{
		OutputPath: outputPath,
		SourcePath: p.sourcePath,
		DateColumn: p.detection.DateColumn,
		DateFormat: dateFormat,
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("dataset exported",
		slog.String("path", path),
		slog.Int("rows", p.processed.RowCount()))
	return path, nil
}

// Summary returns a short human-readable digest of the run counters.
func (p *Preprocessor) Summary() string {
	var b strings.Builder
	b.WriteString("Preprocessing summary\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "Original rows: %d\n", p.stats.OriginalRows)
	if p.stats.FilterRun {
		fmt.Fprintf(&b, "After filtering: %d rows (-%d)\n", p.stats.FilteredRows, p.stats.FilterRemoved)
	}
	if p.stats.OutlierRun {
		fmt.Fprintf(&b, "Outliers handled: %d\n", p.stats.OutliersTouched)
		fmt.Fprintf(&b, "Rows after outlier handling: %d\n", p.stats.RowsAfterOutliers)
	}
	if p.stats.NormalizeRun {
		fmt.Fprintf(&b, "Normalized columns: %d\n", p.stats.NormalizedColumns)
	}
	if p.stats.SnapRun {
		fmt.Fprintf(&b, "Timestamps corrected: %d\n", p.stats.TimestampsCorrected)
	}
	if p.stats.RealignRun {
		fmt.Fprintf(&b, "Timestamps realigned: %d rows\n", p.stats.RealignedRows)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RunStats are the counters accumulated across one pipeline pass. They are
// ephemeral and read-only to callers.
type RunStats struct {
	OriginalRows   int `json:"original_rows"`
	Columns        int `json:"columns"`
	NumericColumns int `json:"numeric_columns"`

	FilterRun     bool `json:"filter_run"`
	FilteredRows  int  `json:"filtered_rows"`
	FilterRemoved int  `json:"filter_removed"`

	OutlierRun        bool `json:"outlier_run"`
	OutliersTouched   int  `json:"outliers_touched"`
	RowsAfterOutliers int  `json:"rows_after_outliers"`

	NormalizeRun      bool `json:"normalize_run"`
	NormalizedColumns int  `json:"normalized_columns"`

	SnapRun             bool `json:"snap_run"`
	TimestampsCorrected int  `json:"timestamps_corrected"`

	RealignRun    bool `json:"realign_run"`
	RealignedRows int  `json:"realigned_rows"`
}
