package fit

import (
	"strings"

	"labfit/domain/core"
)

// Family tags the model families the fitter supports
type Family string

const (
	FamilyLinear                 Family = "linear"
	FamilyProportional           Family = "proportional"
	FamilyQuadratic              Family = "quadratic"
	FamilyQuadraticZeroIntercept Family = "quadratic_zero_intercept"
	FamilyNonLinear              Family = "nonlinear"
)

// Families lists every family in a stable order
var Families = []Family{
	FamilyLinear,
	FamilyProportional,
	FamilyQuadratic,
	FamilyQuadraticZeroIntercept,
	FamilyNonLinear,
}

// ParseFamily accepts the family tag, case-insensitively. "nls" and
// "non-linear" are accepted for the non-linear family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "lm":
		return FamilyLinear, nil
	case "proportional":
		return FamilyProportional, nil
	case "quadratic":
		return FamilyQuadratic, nil
	case "quadratic_zero_intercept", "quadratic-zero-intercept":
		return FamilyQuadraticZeroIntercept, nil
	case "nonlinear", "non-linear", "nls":
		return FamilyNonLinear, nil
	}
	return "", core.NewArgumentError("unknown model family %q", s)
}

// LinearShape describes how a linear family maps onto polynomial least squares.
type LinearShape struct {
	HasIntercept bool
	Degree       int
	// Names in model order, e.g. m, t for y = m*x + t.
	Names []string
	// Order maps model order onto the solver's ascending-power order.
	Order []int
}

// Shape returns the polynomial shape of a linear family. ok is false for
// the non-linear family.
func (f Family) Shape() (shape LinearShape, ok bool) {
	switch f {
	case FamilyLinear:
		return LinearShape{HasIntercept: true, Degree: 1, Names: []string{"m", "t"}, Order: []int{1, 0}}, true
	case FamilyProportional:
		return LinearShape{HasIntercept: false, Degree: 1, Names: []string{"m"}, Order: []int{0}}, true
	case FamilyQuadratic:
		return LinearShape{HasIntercept: true, Degree: 2, Names: []string{"a", "b", "c"}, Order: []int{2, 1, 0}}, true
	case FamilyQuadraticZeroIntercept:
		return LinearShape{HasIntercept: false, Degree: 2, Names: []string{"a", "b"}, Order: []int{1, 0}}, true
	}
	return LinearShape{}, false
}

// Formula returns the model form of a linear family
func (f Family) Formula() string {
	switch f {
	case FamilyLinear:
		return "y = m*x + t"
	case FamilyProportional:
		return "y = m*x"
	case FamilyQuadratic:
		return "y = a*x^2 + b*x + c"
	case FamilyQuadraticZeroIntercept:
		return "y = a*x^2 + b*x"
	}
	return "y = f(x)"
}

// ModelFunc evaluates a non-linear model at x for the parameter vector p.
type ModelFunc func(x float64, p []float64) float64

// Param names a free parameter of a non-linear model and its start value
type Param struct {
	Name  string     `json:"name" yaml:"name"`
	Start StartValue `json:"start" yaml:"start"`
}

// ModelSpec selects a model family and, for non-linear fits, the model and
// its parameters.
type ModelSpec struct {
	Family Family
	// Expression is the textual model, e.g. "a*(1-exp(-k*x))". It is used
	// when Model is nil and is reported as the formula.
	Expression string
	Model      ModelFunc
	Params     []Param
}

// ParamNames returns the parameter names in declaration order
func (s ModelSpec) ParamNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// Coefficient is one row of the coefficient table
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdError float64 `json:"std_error"`
	TValue   float64 `json:"t_value"`
	PValue   float64 `json:"p_value"`
}

// Result is the terminal output of one fit. It is not modified after the
// fit returns.
type Result struct {
	Family       Family        `json:"family"`
	Formula      string        `json:"formula"`
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	RSS          float64       `json:"rss"`
	Observations int           `json:"observations"`
	Iterations   int           `json:"iterations,omitempty"`
	Predicted    []float64     `json:"predicted,omitempty"`
}

// Keys understood by Result.Lookup
const (
	KeyCoefficients     = "coefficients"
	KeyCoefficientNames = "coefficient_names"
	KeyRSquared         = "r_squared"
	KeyPredicted        = "predicted"
)

// Names returns the coefficient names in order
func (r *Result) Names() []string {
	names := make([]string, len(r.Coefficients))
	for i, c := range r.Coefficients {
		names[i] = c.Name
	}
	return names
}

// Coefficient finds a coefficient by name
func (r *Result) Coefficient(name string) (Coefficient, bool) {
	for _, c := range r.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Estimates returns the point estimates in coefficient order
func (r *Result) Estimates() []float64 {
	out := make([]float64, len(r.Coefficients))
	for i, c := range r.Coefficients {
		out[i] = c.Estimate
	}
	return out
}

// Values returns the rendered coefficient values row-major: all estimates,
// then all standard errors, t values and p values.
func (r *Result) Values(digits int) []string {
	n := len(r.Coefficients)
	out := make([]string, 0, 4*n)
	for row := 0; row < 4; row++ {
		for _, c := range r.Coefficients {
			var v float64
			switch row {
			case 0:
				v = c.Estimate
			case 1:
				v = c.StdError
			case 2:
				v = c.TValue
			default:
				v = c.PValue
			}
			out = append(out, FormatValue(v, digits))
		}
	}
	return out
}

// Lookup returns a rendered field of the result by key. The second return
// value is false for unknown keys.
func (r *Result) Lookup(key string, digits int) ([]string, bool) {
	switch key {
	case KeyCoefficients:
		return r.Values(digits), true
	case KeyCoefficientNames:
		return r.Names(), true
	case KeyRSquared:
		return []string{FormatValue(r.RSquared, digits)}, true
	case KeyPredicted:
		out := make([]string, len(r.Predicted))
		for i, v := range r.Predicted {
			out[i] = FormatValue(v, digits)
		}
		return out, true
	}
	return nil, false
}
