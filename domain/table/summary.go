package table

import (
	"github.com/montanaflynn/stats"
)

// ColumnSummary describes the numeric spread of one column
type ColumnSummary struct {
	Column int
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Summarize parses every column as numbers and summarizes it. A column that
// does not parse fails the whole summary.
func (t *Table) Summarize() ([]ColumnSummary, error) {
	out := make([]ColumnSummary, 0, len(t.columns))
	for j := range t.columns {
		values, err := t.Floats(j)
		if err != nil {
			return nil, err
		}
		s := ColumnSummary{Column: j, Count: len(values)}
		if len(values) > 0 {
			data := stats.Float64Data(values)
			s.Min, _ = data.Min()
			s.Max, _ = data.Max()
			s.Mean, _ = data.Mean()
			s.Median, _ = data.Median()
			s.StdDev, _ = data.StandardDeviationSample()
		}
		out = append(out, s)
	}
	return out, nil
}
