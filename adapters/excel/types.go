package excel

import "labfit/domain/fit"

// ResultSheet is one fit result block in an exported workbook
type ResultSheet struct {
	Dataset string
	Title   string
	Result  *fit.Result
	// Err is written in place of the coefficient table when the fit failed
	Err error
}

// ResultsSheetName is the worksheet fit reports are exported to
const ResultsSheetName = "Results"
