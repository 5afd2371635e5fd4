package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tsprep/internal/dataset"
)

// writeExcel writes the table as a single-sheet workbook. Numbers stay
// numeric cells; the date column is written as formatted text, the same
// string form the CSV path produces.
func writeExcel(path string, t *dataset.Table, dateColumn, layout string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	columns := t.Columns()
	header := make([]interface{}, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	dateIdx := -1
	if dateColumn != "" {
		if i, ok := t.ColumnIndex(dateColumn); ok {
			dateIdx = i
		}
	}

	for i := 0; i < t.RowCount(); i++ {
		row := t.Row(i)
		cells := make([]interface{}, len(columns))
		for j := range columns {
			cells[j] = excelCell(row[j], j == dateIdx, layout)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return f.SaveAs(path)
}

func excelCell(v dataset.Value, isDateColumn bool, layout string) interface{} {
	if isDateColumn {
		if s := v.Format(layout); s != "" {
			return s
		}
		return nil
	}
	switch v.Kind() {
	case dataset.KindNull:
		return nil
	case dataset.KindNumber:
		f, _ := v.Float()
		return f
	default:
		return v.String()
	}
}
