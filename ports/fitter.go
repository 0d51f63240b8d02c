package ports

import (
	"context"

	"labfit/domain/fit"
)

// Fitter is the numeric least-squares collaborator behind the fit reporter.
// Implementations are stateless; every call is an independent fit.
type Fitter interface {
	// FitLinear fits y = c0 + c1*x + ... + c_degree*x^degree by ordinary least
	// squares. Without an intercept c0 is fixed at zero. Coefficients come
	// back in ascending power order, named c0..c_degree.
	FitLinear(x, y []float64, hasIntercept bool, degree int) (*fit.Result, error)

	// FitNonLinear minimises sum((y - model(x; p))^2) starting from starts.
	FitNonLinear(ctx context.Context, x, y []float64, model fit.ModelFunc, names []string, starts []float64) (*fit.Result, error)
}

// ModelCompiler turns a textual model expression into a model function
type ModelCompiler interface {
	Compile(expression string, params []string) (fit.ModelFunc, error)
}
