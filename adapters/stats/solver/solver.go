// Package solver implements ports.Fitter with in-process least squares:
// QR-based ordinary least squares for polynomial families and a
// Levenberg-Marquardt loop for non-linear models.
package solver

import (
	"math"

	"labfit/domain/core"
	"labfit/internal"
)

// Options tunes the non-linear solver. The tolerances follow MINPACK's
// meaning: FTol bounds the relative reduction of the residual sum of
// squares, XTol the relative step length and GTol the largest gradient
// component (0 disables the gradient test).
type Options struct {
	MaxIterations int
	FTol          float64
	XTol          float64
	GTol          float64
}

// DefaultOptions returns the solver defaults
func DefaultOptions() Options {
	return Options{
		MaxIterations: 200,
		FTol:          1.49012e-8,
		XTol:          1.49012e-8,
	}
}

// Solver fits models by least squares. It holds no per-fit state and is
// safe for concurrent use.
type Solver struct {
	opts   Options
	logger *internal.Logger
}

// New creates a solver
func New(opts Options, logger *internal.Logger) *Solver {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Solver{opts: opts, logger: logger.With("solver")}
}

// checkInputs validates shapes shared by every fit
func checkInputs(x, y []float64, params int) error {
	if len(x) != len(y) {
		return core.NewLengthMismatchError("x and y", len(x), len(y))
	}
	if len(x) < params {
		return core.NewArgumentError("need at least %d observations for %d coefficients, got %d", params, params, len(x))
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return core.NewArgumentError("observation %d is not finite (x=%v, y=%v)", i, x[i], y[i])
		}
	}
	return nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
