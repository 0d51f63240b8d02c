package fit

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"labfit/domain/core"

	"github.com/montanaflynn/stats"
)

// StartKind selects how a start value is obtained
type StartKind int

const (
	StartLiteral StartKind = iota
	StartMin
	StartMax
	StartMedian
)

// Axis names the data column a derived start value is computed from
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// StartValue is either a literal number or a reduction of one data column,
// resolved against the data right before the solver runs.
type StartValue struct {
	Kind   StartKind
	Value  float64
	Column Axis
}

// Literal returns a fixed start value
func Literal(v float64) StartValue { return StartValue{Kind: StartLiteral, Value: v} }

// MinOf returns a start value equal to the minimum of a column
func MinOf(col Axis) StartValue { return StartValue{Kind: StartMin, Column: col} }

// MaxOf returns a start value equal to the maximum of a column
func MaxOf(col Axis) StartValue { return StartValue{Kind: StartMax, Column: col} }

// MedianOf returns a start value equal to the median of a column
func MedianOf(col Axis) StartValue { return StartValue{Kind: StartMedian, Column: col} }

var reductionPattern = regexp.MustCompile(`^(min|max|median)\(\s*([xy])\s*\)$`)

// ParseStartValue reads "12.5", "min(y)", "max(y)" or "median(x)".
func ParseStartValue(s string) (StartValue, error) {
	s = strings.TrimSpace(s)
	if m := reductionPattern.FindStringSubmatch(strings.ToLower(s)); m != nil {
		col := Axis(m[2])
		switch m[1] {
		case "min":
			return MinOf(col), nil
		case "max":
			return MaxOf(col), nil
		default:
			return MedianOf(col), nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return StartValue{}, core.NewArgumentError("start value %q is neither a number nor min/max/median of x or y", s)
	}
	return Literal(v), nil
}

// String renders the start value in the form ParseStartValue reads
func (s StartValue) String() string {
	switch s.Kind {
	case StartMin:
		return fmt.Sprintf("min(%s)", s.Column)
	case StartMax:
		return fmt.Sprintf("max(%s)", s.Column)
	case StartMedian:
		return fmt.Sprintf("median(%s)", s.Column)
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// Resolve computes the numeric start value for the given data.
func (s StartValue) Resolve(x, y []float64) (float64, error) {
	if s.Kind == StartLiteral {
		return s.Value, nil
	}

	var data []float64
	switch s.Column {
	case AxisX:
		data = x
	case AxisY:
		data = y
	default:
		return 0, core.NewArgumentError("start value column %q must be x or y", s.Column)
	}

	var (
		v   float64
		err error
	)
	switch s.Kind {
	case StartMin:
		v, err = stats.Min(data)
	case StartMax:
		v, err = stats.Max(data)
	case StartMedian:
		v, err = stats.Median(data)
	default:
		return 0, core.NewArgumentError("unknown start value kind %d", s.Kind)
	}
	if err != nil {
		return 0, core.NewArgumentError("cannot compute %s: %v", s, err)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler
func (s StartValue) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *StartValue) UnmarshalText(text []byte) error {
	v, err := ParseStartValue(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalJSON accepts a JSON number as well as the text forms.
func (s *StartValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Literal(num)
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return core.NewArgumentError("start value must be a number or a string: %v", err)
	}
	return s.UnmarshalText([]byte(text))
}

// ResolveStarts resolves every parameter's start value against the data.
func ResolveStarts(params []Param, x, y []float64) ([]float64, error) {
	starts := make([]float64, len(params))
	for i, p := range params {
		v, err := p.Start.Resolve(x, y)
		if err != nil {
			return nil, err
		}
		starts[i] = v
	}
	return starts, nil
}
