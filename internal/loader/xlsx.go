package loader

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tsprep/internal/dataset"
)

// loadExcel reads the first sheet of a spreadsheet file. The first row is
// the header; remaining rows are data. Short rows are padded with nulls by
// the table builder.
func loadExcel(path string) (*dataset.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s contains no rows", sheets[0])
	}

	return buildTable(rows[0], rows[1:])
}
