package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"tsprep/internal/dataset"
)

// utf8BOM helps spreadsheet importers recognize the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV writes the table as BOM-prefixed UTF-8 delimited text.
func writeCSV(path string, t *dataset.Table, dateColumn, layout string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	columns := t.Columns()
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	dateIdx := -1
	if dateColumn != "" {
		if i, ok := t.ColumnIndex(dateColumn); ok {
			dateIdx = i
		}
	}

	record := make([]string, len(columns))
	for i := 0; i < t.RowCount(); i++ {
		row := t.Row(i)
		for j := range columns {
			record[j] = renderCell(row[j], j == dateIdx, layout)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
