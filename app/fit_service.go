package app

import (
	"context"
	"fmt"

	"labfit/domain/core"
	"labfit/domain/fit"
	"labfit/domain/table"
	"labfit/internal"
	"labfit/ports"
)

// FitService turns data columns and a model choice into fit results. It
// delegates the numerics to a ports.Fitter and owns naming, ordering and
// start value resolution.
type FitService struct {
	fitter   ports.Fitter
	compiler ports.ModelCompiler
	logger   *internal.Logger
}

func NewFitService(fitter ports.Fitter, compiler ports.ModelCompiler, logger *internal.Logger) *FitService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &FitService{
		fitter:   fitter,
		compiler: compiler,
		logger:   logger.With("fit"),
	}
}

// Linear fits y = m*x + t
func (s *FitService) Linear(x, y []float64) (*fit.Result, error) {
	return s.linear(fit.FamilyLinear, x, y)
}

// Proportional fits y = m*x
func (s *FitService) Proportional(x, y []float64) (*fit.Result, error) {
	return s.linear(fit.FamilyProportional, x, y)
}

// Quadratic fits y = a*x^2 + b*x + c
func (s *FitService) Quadratic(x, y []float64) (*fit.Result, error) {
	return s.linear(fit.FamilyQuadratic, x, y)
}

// QuadraticZeroIntercept fits y = a*x^2 + b*x
func (s *FitService) QuadraticZeroIntercept(x, y []float64) (*fit.Result, error) {
	return s.linear(fit.FamilyQuadraticZeroIntercept, x, y)
}

// NonLinear fits y = model(x; θ) by non-linear least squares. names and
// starts are parallel; coefficients are reported under names in order.
func (s *FitService) NonLinear(ctx context.Context, x, y []float64, model fit.ModelFunc, names []string, starts []float64) (*fit.Result, error) {
	return s.nonLinear(ctx, x, y, model, names, starts, "y = f(x)")
}

// Fit dispatches on spec.Family. Non-linear specs use spec.Model, or compile
// spec.Expression, and resolve each parameter's start value against x and y.
func (s *FitService) Fit(ctx context.Context, x, y []float64, spec fit.ModelSpec) (*fit.Result, error) {
	if _, ok := spec.Family.Shape(); ok {
		return s.linear(spec.Family, x, y)
	}
	if spec.Family != fit.FamilyNonLinear {
		return nil, core.NewArgumentError("unknown model family %q", spec.Family)
	}

	if len(x) != len(y) {
		return nil, core.NewLengthMismatchError("x and y", len(x), len(y))
	}
	model := spec.Model
	if model == nil {
		if spec.Expression == "" {
			return nil, core.NewArgumentError("non-linear fit needs a model function or expression")
		}
		if s.compiler == nil {
			return nil, core.NewArgumentError("no expression compiler configured for %q", spec.Expression)
		}
		compiled, err := s.compiler.Compile(spec.Expression, spec.ParamNames())
		if err != nil {
			return nil, err
		}
		model = compiled
	}

	starts, err := fit.ResolveStarts(spec.Params, x, y)
	if err != nil {
		return nil, err
	}

	formula := "y = f(x)"
	if spec.Expression != "" {
		formula = "y = " + spec.Expression
	}
	return s.nonLinear(ctx, x, y, model, spec.ParamNames(), starts, formula)
}

// FitColumns parses two string columns, typically from a table, and fits them
func (s *FitService) FitColumns(ctx context.Context, xs, ys []string, spec fit.ModelSpec) (*fit.Result, error) {
	x, err := table.ParseFloats(xs)
	if err != nil {
		return nil, err
	}
	y, err := table.ParseFloats(ys)
	if err != nil {
		return nil, err
	}
	return s.Fit(ctx, x, y, spec)
}

// FitTable fits column yCol against column xCol of t
func (s *FitService) FitTable(ctx context.Context, t *table.Table, xCol, yCol int, spec fit.ModelSpec) (*fit.Result, error) {
	x, err := t.Floats(xCol)
	if err != nil {
		return nil, err
	}
	y, err := t.Floats(yCol)
	if err != nil {
		return nil, err
	}
	return s.Fit(ctx, x, y, spec)
}

// SeriesResult is the fit of one y column in a multi-series table
type SeriesResult struct {
	Column int
	Result *fit.Result
	Err    error
}

// FitSeries treats column 0 as the shared x axis and fits every other
// column as an independent y series. A failing series does not stop the
// others.
func (s *FitService) FitSeries(ctx context.Context, t *table.Table, spec fit.ModelSpec) ([]SeriesResult, error) {
	if t.NumColumns() < 2 {
		return nil, core.NewArgumentError("series fit needs an x column and at least one y column, got %d columns", t.NumColumns())
	}
	x, err := t.Floats(0)
	if err != nil {
		return nil, err
	}

	out := make([]SeriesResult, 0, t.NumColumns()-1)
	for j := 1; j < t.NumColumns(); j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sr := SeriesResult{Column: j}
		y, err := t.Floats(j)
		if err != nil {
			sr.Err = err
		} else {
			sr.Result, sr.Err = s.Fit(ctx, x, y, spec)
		}
		out = append(out, sr)
	}
	return out, nil
}

func (s *FitService) linear(family fit.Family, x, y []float64) (*fit.Result, error) {
	shape, ok := family.Shape()
	if !ok {
		return nil, core.NewArgumentError("%q is not a linear family", family)
	}
	if len(x) != len(y) {
		return nil, core.NewLengthMismatchError("x and y", len(x), len(y))
	}

	s.logger.Debug("fitting %s on %d observations", family, len(x))
	raw, err := s.fitter.FitLinear(x, y, shape.HasIntercept, shape.Degree)
	if err != nil {
		s.logger.Debug("%s fit failed: %v", family, err)
		return nil, err
	}
	if len(raw.Coefficients) != len(shape.Names) {
		return nil, fmt.Errorf("fitter returned %d coefficients for %s, want %d", len(raw.Coefficients), family, len(shape.Names))
	}

	res := *raw
	res.Family = family
	res.Formula = family.Formula()
	res.Coefficients = make([]fit.Coefficient, len(shape.Names))
	for i, name := range shape.Names {
		c := raw.Coefficients[shape.Order[i]]
		c.Name = name
		res.Coefficients[i] = c
	}

	s.logger.Debug("%s fit done: n=%d r2=%g", family, res.Observations, res.RSquared)
	return &res, nil
}

func (s *FitService) nonLinear(ctx context.Context, x, y []float64, model fit.ModelFunc, names []string, starts []float64, formula string) (*fit.Result, error) {
	if len(x) != len(y) {
		return nil, core.NewLengthMismatchError("x and y", len(x), len(y))
	}
	if len(names) != len(starts) {
		return nil, core.NewLengthMismatchError("parameter names and start values", len(names), len(starts))
	}
	if model == nil {
		return nil, core.NewArgumentError("non-linear fit needs a model function")
	}

	s.logger.Debug("fitting %s on %d observations from %v", formula, len(x), starts)
	res, err := s.fitter.FitNonLinear(ctx, x, y, model, names, starts)
	if err != nil {
		if core.IsDivergenceError(err) {
			s.logger.Warn("%s: %v", formula, err)
		}
		return nil, err
	}

	res.Family = fit.FamilyNonLinear
	res.Formula = formula
	s.logger.Debug("%s converged: n=%d iterations=%d r2=%g", formula, res.Observations, res.Iterations, res.RSquared)
	return res, nil
}
