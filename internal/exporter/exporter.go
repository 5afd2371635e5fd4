// Package exporter serializes processed snapshots back to flat files.
//
// The output path extension selects the format: spreadsheet for .xlsx and
// .xls, delimited text otherwise. Delimited output is UTF-8 with a
// byte-order mark so common spreadsheet importers pick up the encoding.
// The date column is rendered with a configurable layout for output only;
// the in-memory snapshot keeps its timestamp values.
package exporter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tsprep/internal/dataset"
)

// DefaultDateFormat is the Go layout used when no output pattern is given.
const DefaultDateFormat = "2006-01-02 15:04:05"

// Options configures one export.
type Options struct {
	// OutputPath is where to write. Empty synthesizes a name from
	// SourcePath plus a timestamp suffix.
	OutputPath string
	// SourcePath is the originally loaded file, used for name synthesis.
	SourcePath string
	// DateColumn is rendered with DateFormat; empty disables reformatting.
	DateColumn string
	// DateFormat is a Go time layout. Empty means DefaultDateFormat.
	DateFormat string
}

// Export writes the table and returns the path written.
func Export(t *dataset.Table, opts Options) (string, error) {
	path := opts.OutputPath
	if path == "" {
		path = synthesizePath(opts.SourcePath, time.Now())
	}
	layout := opts.DateFormat
	if layout == "" {
		layout = DefaultDateFormat
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		err = writeExcel(path, t, opts.DateColumn, layout)
	default:
		err = writeCSV(path, t, opts.DateColumn, layout)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export to %s: %w", path, err)
	}
	return path, nil
}

// synthesizePath builds "<stem>_processed_<yyyymmdd_HHMMSS><ext>" next to
// the source file, or a bare timestamped CSV name when no source is known.
func synthesizePath(sourcePath string, now time.Time) string {
	stamp := now.Format("20060102_150405")
	if sourcePath == "" {
		return fmt.Sprintf("processed_data_%s.csv", stamp)
	}
	ext := filepath.Ext(sourcePath)
	stem := strings.TrimSuffix(filepath.Base(sourcePath), ext)
	return filepath.Join(filepath.Dir(sourcePath),
		fmt.Sprintf("%s_processed_%s%s", stem, stamp, ext))
}

// renderCell formats one cell for output, applying the date layout to the
// date column only.
func renderCell(v dataset.Value, isDateColumn bool, layout string) string {
	if isDateColumn {
		return v.Format(layout)
	}
	return v.String()
}
