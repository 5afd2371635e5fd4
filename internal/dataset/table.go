package dataset

import "fmt"

// Table is an in-memory tabular snapshot: ordered columns and rows of cell
// values. The pipeline holds two of these at a time, the immutable original
// and the working processed copy; Clone is a full deep copy so the two never
// share row storage.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given column order. Column names must
// be unique.
func New(columns []string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		index[name] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: index}, nil
}

// Columns returns the column names in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// AppendRow adds a row. The row length must match the column count.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the i-th row. The returned slice is the table's own storage;
// callers that mutate it are mutating the table.
func (t *Table) Row(i int) []Value {
	return t.rows[i]
}

// Value returns the cell at (row, column). Missing columns read as null.
func (t *Table) Value(row int, column string) Value {
	i, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[row][i]
}

// SetValue replaces the cell at (row, column). Unknown columns are ignored.
func (t *Table) SetValue(row int, column string, v Value) {
	if i, ok := t.index[column]; ok {
		t.rows[row][i] = v
	}
}

// ColumnValues returns a copy of all cells in the named column, nil if the
// column does not exist.
func (t *Table) ColumnValues(name string) []Value {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	clone, _ := New(t.columns)
	clone.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		cp := make([]Value, len(row))
		copy(cp, row)
		clone.rows[i] = cp
	}
	return clone
}

// Select returns a new table containing the rows for which keep returns
// true, in their current order. Row indices restart at zero in the result.
func (t *Table) Select(keep func(row []Value) bool) *Table {
	out, _ := New(t.columns)
	for _, row := range t.rows {
		if keep(row) {
			cp := make([]Value, len(row))
			copy(cp, row)
			out.rows = append(out.rows, cp)
		}
	}
	return out
}

// Head returns a copy of the first n rows, or all rows if fewer exist.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	out, _ := New(t.columns)
	out.rows = make([][]Value, n)
	for i := 0; i < n; i++ {
		cp := make([]Value, len(t.rows[i]))
		copy(cp, t.rows[i])
		out.rows[i] = cp
	}
	return out
}
