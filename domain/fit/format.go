package fit

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultDigits is the number of significant digits used in reports
const DefaultDigits = 7

const (
	headerLabel   = "Coefficient  "
	rSquaredLabel = "R squared    "
)

var coefficientRows = []string{
	"Estimate     ",
	"Std. Error   ",
	"t value      ",
	"Pr(>|t|)     ",
}

// FormatValue renders a number with the given significant digits, dropping
// trailing zeros ("1", "2.5", "1.234568e-17"). Non-finite values render as
// NaN, Inf and -Inf.
func FormatValue(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	if digits <= 0 {
		digits = -1
	}
	return strconv.FormatFloat(v, 'g', digits, 64)
}

// FormatCoefficients renders the coefficient table. values holds 4*len(names)
// cells row-major: estimates, standard errors, t values, p values. Every
// name and value cell is left-justified in a column as wide as the longest
// value cell plus two. Missing cells render empty.
func FormatCoefficients(names, values []string) string {
	width := 0
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > width {
			width = n
		}
	}
	width += 2

	var b strings.Builder
	b.WriteString(headerLabel)
	for _, name := range names {
		writeCell(&b, name, width)
	}
	b.WriteByte('\n')

	idx := 0
	for _, label := range coefficientRows {
		b.WriteString(label)
		for range names {
			cell := ""
			if idx < len(values) {
				cell = values[idx]
			}
			idx++
			writeCell(&b, cell, width)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// writeCell pads cell to width. A name longer than the column still gets a
// single separating space.
func writeCell(b *strings.Builder, cell string, width int) {
	b.WriteString(cell)
	pad := width - utf8.RuneCountInString(cell)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(strings.Repeat(" ", pad))
}

// Report renders the coefficient table followed by the R² line.
func (r *Result) Report(digits int) string {
	return FormatCoefficients(r.Names(), r.Values(digits)) + rSquaredLabel + FormatValue(r.RSquared, digits)
}

// String renders the report with DefaultDigits
func (r *Result) String() string {
	return r.Report(DefaultDigits)
}
