package table

import (
	"strconv"

	"labfit/domain/core"
)

// Table is a column-major ("transposed") text table. Cells stay text until a
// column is consumed by a fit.
type Table struct {
	columns [][]string
	rows    int
}

// New builds a Table from column-major cells. All columns must have the
// same length.
func New(columns [][]string) (*Table, error) {
	if len(columns) == 0 {
		return nil, core.NewArgumentError("table needs at least one column")
	}
	rows := len(columns[0])
	for i, col := range columns {
		if len(col) != rows {
			return nil, core.NewArgumentError("column %d has %d rows, column 0 has %d", i, len(col), rows)
		}
	}
	return &Table{columns: columns, rows: rows}, nil
}

// NumColumns returns the column count fixed at load time
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Len returns the number of rows (input lines)
func (t *Table) Len() int {
	return t.rows
}

// Cell returns row i of column j
func (t *Table) Cell(j, i int) string {
	return t.columns[j][i]
}

// Column returns a copy of column j
func (t *Table) Column(j int) ([]string, error) {
	if err := t.checkColumn(j); err != nil {
		return nil, err
	}
	out := make([]string, t.rows)
	copy(out, t.columns[j])
	return out, nil
}

// Columns returns a copy of all columns
func (t *Table) Columns() [][]string {
	out := make([][]string, len(t.columns))
	for j := range t.columns {
		out[j] = make([]string, t.rows)
		copy(out[j], t.columns[j])
	}
	return out
}

// Floats parses column j as decimal numbers.
func (t *Table) Floats(j int) ([]float64, error) {
	if err := t.checkColumn(j); err != nil {
		return nil, err
	}
	return ParseFloats(t.columns[j])
}

// Row returns the cells of row i in column order
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j := range t.columns {
		row[j] = t.columns[j][i]
	}
	return row
}

func (t *Table) checkColumn(j int) error {
	if j < 0 || j >= len(t.columns) {
		return core.NewArgumentError("column %d out of range [0, %d)", j, len(t.columns))
	}
	return nil
}

// ParseFloats converts plain decimal text to float64, naming the offending
// row on failure.
func ParseFloats(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, core.NewValueFormatError(i, v, err)
		}
		out[i] = f
	}
	return out, nil
}
