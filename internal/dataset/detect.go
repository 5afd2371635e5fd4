package dataset

import (
	"fmt"
	"strings"
	"time"
)

// MaxNumericColumns caps how many numeric channels later stages can see.
// Columns past the cap remain in the table for preview and export but are
// invisible to filtering, outlier handling and normalization.
const MaxNumericColumns = 30

// dateKeywords mark a column as the date column when its name contains one
// of them, case-insensitive. The Korean entries cover the sensor log
// exports this tool was built for.
var dateKeywords = []string{"date", "time", "datetime", "timestamp", "날짜", "시간"}

// timestampLayouts are tried in order when parsing date cells and
// user-supplied start timestamps.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006.01.02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Detection is the result of column role classification for one loaded
// table.
type Detection struct {
	// DateColumn is the name of the detected date column, empty if none.
	DateColumn string
	// DateParsed reports whether every non-null date cell parsed into a
	// timestamp. The keyword match alone assigns the role; parsing is
	// best-effort.
	DateParsed bool
	// DateFormatSample is the verbatim string form of the first non-null
	// raw value of the date column, kept for user display.
	DateFormatSample string
	// NumericColumns lists up to MaxNumericColumns numeric channels in
	// source order.
	NumericColumns []string
}

// IsNumeric reports whether name is one of the detected numeric columns.
func (d Detection) IsNumeric(name string) bool {
	for _, c := range d.NumericColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Detect classifies the table's columns into at most one date column and up
// to MaxNumericColumns numeric columns. When a date column is found its
// cells are converted to timestamps in place, best-effort: if any non-null
// cell fails to parse the column is left untouched and DateParsed is false.
func Detect(t *Table) Detection {
	det := Detection{}

	for _, name := range t.Columns() {
		lower := strings.ToLower(name)
		for _, kw := range dateKeywords {
			if strings.Contains(lower, kw) {
				det.DateColumn = name
				break
			}
		}
		if det.DateColumn != "" {
			break
		}
	}

	if det.DateColumn != "" {
		det.DateFormatSample, det.DateParsed = parseDateColumn(t, det.DateColumn)
	}

	for _, name := range t.Columns() {
		if name == det.DateColumn {
			continue
		}
		if columnIsNumeric(t, name) {
			det.NumericColumns = append(det.NumericColumns, name)
			if len(det.NumericColumns) >= MaxNumericColumns {
				break
			}
		}
	}

	return det
}

// parseDateColumn captures the original format sample and converts the
// column to timestamps. Returns the sample and whether conversion
// succeeded for every non-null cell.
func parseDateColumn(t *Table, column string) (sample string, parsed bool) {
	col, ok := t.ColumnIndex(column)
	if !ok {
		return "", false
	}

	for i := 0; i < t.RowCount(); i++ {
		if v := t.rows[i][col]; !v.IsNull() {
			sample = v.String()
			break
		}
	}

	converted := make([]Value, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		v := t.rows[i][col]
		if v.IsNull() {
			converted[i] = v
			continue
		}
		if ts, ok := v.Time(); ok {
			converted[i] = Timestamp(ts)
			continue
		}
		ts, err := ParseTimestamp(v.String())
		if err != nil {
			return sample, false
		}
		converted[i] = Timestamp(ts)
	}
	for i := range converted {
		t.rows[i][col] = converted[i]
	}
	return sample, true
}

// columnIsNumeric reports whether every non-null cell in the column is a
// number. A fully null column counts as numeric, matching how a blank
// channel in a sensor export is still a channel.
func columnIsNumeric(t *Table, name string) bool {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return false
	}
	for i := 0; i < t.RowCount(); i++ {
		v := t.rows[i][col]
		if v.IsNull() {
			continue
		}
		if v.Kind() != KindNumber {
			return false
		}
	}
	return true
}

// ParseTimestamp parses s against the supported timestamp layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
