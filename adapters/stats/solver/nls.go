package solver

import (
	"context"
	"fmt"
	"math"

	"labfit/domain/core"
	"labfit/domain/fit"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	initialDamping = 1e-3
	minDamping     = 1e-12
	maxDamping     = 1e16
	diagonalFloor  = 1e-12
)

// maxCondition bounds the condition number of the scaled JᵀJ at the
// estimates: 1/sqrt(machine epsilon).
var maxCondition = 1 / math.Sqrt(epsilon)

// FitNonLinear minimises the residual sum of squares of model over the
// parameters with a Levenberg-Marquardt iteration started at starts. The
// Jacobian is approximated by central differences.
//
// The fit fails with core.ErrFitDivergence when the model is not finite at
// the start, when no damped step reduces the residual sum of squares, when
// the iteration limit is reached, or when the gradient matrix is singular or
// ill-conditioned at the estimates. The last case catches starts that drift
// off towards infinity along a direction the data cannot resolve.
func (s *Solver) FitNonLinear(ctx context.Context, x, y []float64, model fit.ModelFunc, names []string, starts []float64) (*fit.Result, error) {
	if model == nil {
		return nil, core.NewArgumentError("model function is required")
	}
	if len(names) != len(starts) {
		return nil, core.NewLengthMismatchError("parameter names and start values", len(names), len(starts))
	}
	if len(names) == 0 {
		return nil, core.NewArgumentError("model has no parameters")
	}
	p := len(names)
	if err := checkInputs(x, y, p); err != nil {
		return nil, err
	}
	n := len(x)

	evaluate := func(dst, theta []float64) {
		for i, xi := range x {
			dst[i] = model(xi, theta)
		}
	}
	residualsAt := func(theta []float64) ([]float64, float64) {
		f := make([]float64, n)
		evaluate(f, theta)
		r := make([]float64, n)
		floats.SubTo(r, y, f)
		return r, sumSquares(r)
	}

	theta := append([]float64(nil), starts...)
	resid, rss := residualsAt(theta)
	if math.IsNaN(rss) || math.IsInf(rss, 0) {
		return nil, core.NewDivergenceError("model is not finite at the start values", 0)
	}

	jac := mat.NewDense(n, p, nil)
	lambda := initialDamping
	converged := false
	iter := 0

	for iter < s.opts.MaxIterations && !converged {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++

		fd.Jacobian(jac, evaluate, theta, &fd.JacobianSettings{Formula: fd.Central})
		if !allFinite(jac.RawMatrix().Data) {
			return nil, core.NewDivergenceError("gradient is not finite", iter)
		}
		jtj := crossProduct(jac)
		grad := mat.NewVecDense(p, nil)
		grad.MulVec(jac.T(), mat.NewVecDense(n, resid))

		if rss == 0 || (s.opts.GTol > 0 && floats.Norm(grad.RawVector().Data, math.Inf(1)) <= s.opts.GTol) {
			converged = true
			break
		}

		for {
			step, ok := dampedStep(jtj, grad, lambda)
			if ok {
				trial := make([]float64, p)
				floats.AddTo(trial, theta, step)
				trialResid, trialRSS := residualsAt(trial)

				if !math.IsNaN(trialRSS) && !math.IsInf(trialRSS, 0) && trialRSS < rss {
					actual := rss - trialRSS
					predicted := predictedReduction(jtj, grad, step)
					small := stepIsSmall(step, theta, s.opts.XTol)

					if actual <= s.opts.FTol*rss && predicted <= s.opts.FTol*rss {
						converged = true
					}
					if small {
						converged = true
					}

					theta, resid, rss = trial, trialResid, trialRSS
					lambda = math.Max(lambda/10, minDamping)
					break
				}
				if stepIsSmall(step, theta, s.opts.XTol) {
					// No representable step improves the fit.
					converged = true
					break
				}
			}

			lambda *= 10
			if lambda > maxDamping {
				return nil, core.NewDivergenceError("no step reduces the residual sum of squares", iter)
			}
		}

		s.logger.Trace("nls iteration %d rss=%g lambda=%g theta=%v", iter, rss, lambda, theta)
	}

	if !converged {
		return nil, core.NewDivergenceError(fmt.Sprintf("no convergence within %d iterations", s.opts.MaxIterations), iter)
	}
	if !allFinite(theta) {
		return nil, core.NewDivergenceError("parameter estimates are not finite", iter)
	}

	fd.Jacobian(jac, evaluate, theta, &fd.JacobianSettings{Formula: fd.Central})
	jtj := crossProduct(jac)
	if cond := scaledCondition(jtj); cond > maxCondition {
		return nil, core.NewDivergenceError(fmt.Sprintf("parameters are not identifiable at the estimates (condition number %.3g)", cond), iter)
	}
	unscaled, ok := invertSPD(jtj)
	if !ok {
		return nil, core.NewDivergenceError("singular gradient matrix at the parameter estimates", iter)
	}

	predicted := make([]float64, n)
	evaluate(predicted, theta)

	result := &fit.Result{
		Coefficients: coefficientTable(names, theta, unscaled, rss, n-p),
		RSquared:     centredRSquared(y, rss),
		RSS:          rss,
		Observations: n,
		Iterations:   iter,
		Predicted:    predicted,
	}

	s.logger.Debug("nls converged after %d iterations: rss=%g r2=%g", iter, rss, result.RSquared)
	return result, nil
}

// dampedStep solves (JᵀJ + λ·diag(JᵀJ))δ = Jᵀr
func dampedStep(jtj *mat.SymDense, grad *mat.VecDense, lambda float64) ([]float64, bool) {
	p := jtj.SymmetricDim()
	damped := mat.NewSymDense(p, nil)
	damped.CopySym(jtj)
	for i := 0; i < p; i++ {
		d := math.Max(jtj.At(i, i), diagonalFloor)
		damped.SetSym(i, i, jtj.At(i, i)+lambda*d)
	}

	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return nil, false
	}
	step := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(step, grad); err != nil {
		return nil, false
	}
	out := step.RawVector().Data
	return out, allFinite(out)
}

// predictedReduction is the decrease of the residual sum of squares the
// linearised model promises for step: 2δᵀJᵀr - δᵀJᵀJδ.
func predictedReduction(jtj *mat.SymDense, grad *mat.VecDense, step []float64) float64 {
	d := mat.NewVecDense(len(step), step)
	return 2*mat.Dot(d, grad) - mat.Inner(d, jtj, d)
}

func stepIsSmall(step, theta []float64, xtol float64) bool {
	return floats.Norm(step, 2) <= xtol*(floats.Norm(theta, 2)+xtol)
}

// centredRSquared is 1 - RSS/TSS with TSS taken about the mean of y
func centredRSquared(y []float64, rss float64) float64 {
	mean := floats.Sum(y) / float64(len(y))
	var tss float64
	for _, v := range y {
		d := v - mean
		tss += d * d
	}
	return 1 - rss/tss
}
