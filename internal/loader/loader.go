// Package loader reads flat sensor log files into dataset tables.
//
// Delimited text is decoded with a fallback ladder (UTF-8, then the legacy
// Korean codepages) before parsing; spreadsheets are read through excelize.
// Cell typing is inferred per column: a column whose every non-empty cell
// parses as a number becomes a numeric column.
package loader

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tsprep/internal/dataset"
)

// Load reads the file at path into a table. The extension selects the
// format: .csv for delimited text, .xlsx or .xls for spreadsheets.
func Load(path string) (*dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx", ".xls":
		return loadExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
}

// buildTable turns a header row plus raw string records into a typed table.
// Column types are inferred before any cell is stored so that a single
// textual cell keeps the whole column textual.
func buildTable(header []string, records [][]string) (*dataset.Table, error) {
	table, err := dataset.New(header)
	if err != nil {
		return nil, err
	}

	numeric := make([]bool, len(header))
	for col := range header {
		numeric[col] = columnParsesNumeric(records, col)
	}

	for _, record := range records {
		row := make([]dataset.Value, len(header))
		for col := range header {
			cell := ""
			if col < len(record) {
				cell = strings.TrimSpace(record[col])
			}
			row[col] = typedCell(cell, numeric[col])
		}
		if err := table.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// columnParsesNumeric reports whether every non-empty cell of the column
// parses as a float. A column with no non-empty cells counts as numeric.
func columnParsesNumeric(records [][]string, col int) bool {
	for _, record := range records {
		if col >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
	}
	return true
}

func typedCell(cell string, numeric bool) dataset.Value {
	if cell == "" {
		return dataset.Null()
	}
	if numeric {
		f, err := strconv.ParseFloat(cell, 64)
		if err == nil {
			return dataset.Number(f)
		}
	}
	return dataset.Text(cell)
}
