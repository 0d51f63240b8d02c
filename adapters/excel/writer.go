package excel

import (
	"math"
	"strconv"

	"labfit/domain/fit"
	"labfit/domain/table"

	"github.com/xuri/excelize/v2"
)

var rowLabels = []string{"Estimate", "Std. Error", "t value", "Pr(>|t|)"}

// WriteTable saves a table as a worksheet, one table column per sheet column.
// Cells holding canonical numbers are stored as numbers.
func WriteTable(path, sheet string, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := useSheet(f, sheet); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		if err := setRow(f, sheet, i+1, cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// ExportResults writes every result as a block of rows: title, coefficient
// names, the four coefficient rows and R², separated by blank rows.
func ExportResults(path string, results []ResultSheet, digits int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := useSheet(f, ResultsSheetName); err != nil {
		return err
	}

	row := 1
	for _, rs := range results {
		title := rs.Title
		if rs.Dataset != "" {
			title = rs.Dataset + ": " + rs.Title
		}
		if err := setRow(f, ResultsSheetName, row, []interface{}{title}); err != nil {
			return err
		}
		row++

		if rs.Result == nil {
			msg := "no result"
			if rs.Err != nil {
				msg = rs.Err.Error()
			}
			if err := setRow(f, ResultsSheetName, row, []interface{}{"Error", msg}); err != nil {
				return err
			}
			row += 2
			continue
		}

		header := []interface{}{"Coefficient"}
		for _, name := range rs.Result.Names() {
			header = append(header, name)
		}
		if err := setRow(f, ResultsSheetName, row, header); err != nil {
			return err
		}
		row++

		for k, label := range rowLabels {
			cells := []interface{}{label}
			for _, c := range rs.Result.Coefficients {
				cells = append(cells, numberCell([]float64{c.Estimate, c.StdError, c.TValue, c.PValue}[k], digits))
			}
			if err := setRow(f, ResultsSheetName, row, cells); err != nil {
				return err
			}
			row++
		}

		if err := setRow(f, ResultsSheetName, row, []interface{}{"R squared", numberCell(rs.Result.RSquared, digits)}); err != nil {
			return err
		}
		row += 2
	}
	return f.SaveAs(path)
}

// useSheet renames the default sheet of a new workbook
func useSheet(f *excelize.File, name string) error {
	if first := f.GetSheetName(0); first != name {
		return f.SetSheetName(first, name)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func cellValue(s string) interface{} {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || strconv.FormatFloat(v, 'g', -1, 64) != s || math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	return v
}

// numberCell stores finite values as numbers; spreadsheets have no NaN or Inf
func numberCell(v float64, digits int) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fit.FormatValue(v, digits)
	}
	return v
}
