package solver

import (
	"fmt"
	"math"

	"labfit/domain/core"
	"labfit/domain/fit"

	"gonum.org/v1/gonum/mat"
)

// FitLinear fits a polynomial of the given degree by ordinary least squares.
// Coefficients are named c0..c<degree> in ascending power order; without an
// intercept c0 is omitted.
//
// R² follows linear-model convention: mss/(mss+rss), where mss is taken
// about the mean of the fitted values with an intercept and about zero
// without one.
func (s *Solver) FitLinear(x, y []float64, hasIntercept bool, degree int) (*fit.Result, error) {
	if degree < 1 {
		return nil, core.NewArgumentError("degree must be at least 1, got %d", degree)
	}
	p := degree
	first := 1
	if hasIntercept {
		p++
		first = 0
	}
	if err := checkInputs(x, y, p); err != nil {
		return nil, err
	}
	n := len(x)
	if distinct := distinctSupport(x, hasIntercept); distinct < p {
		return nil, core.NewArgumentError("design matrix is rank deficient: %d distinct x values for %d coefficients", distinct, p)
	}

	design := vandermonde(x, first, degree)
	obs := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(design)

	beta := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(beta, false, obs); err != nil {
		return nil, core.NewArgumentError("design matrix is rank deficient: %v", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, beta)
	predicted := make([]float64, n)
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		predicted[i] = fitted.AtVec(i)
		residuals[i] = y[i] - predicted[i]
	}
	rss := sumSquares(residuals)

	unscaled, ok := invertSPD(crossProduct(design))
	if !ok {
		return nil, core.NewArgumentError("design matrix is rank deficient")
	}

	names := make([]string, p)
	estimates := make([]float64, p)
	for j := 0; j < p; j++ {
		names[j] = fmt.Sprintf("c%d", first+j)
		estimates[j] = beta.AtVec(j)
	}

	result := &fit.Result{
		Coefficients: coefficientTable(names, estimates, unscaled, rss, n-p),
		RSquared:     linearRSquared(predicted, rss, hasIntercept),
		RSS:          rss,
		Observations: n,
		Predicted:    predicted,
	}

	s.logger.Debug("ols degree=%d intercept=%v n=%d rss=%g r2=%g", degree, hasIntercept, n, rss, result.RSquared)
	return result, nil
}

// vandermonde builds the n×(degree-first+1) matrix of powers x^first..x^degree
func vandermonde(x []float64, first, degree int) *mat.Dense {
	a := mat.NewDense(len(x), degree-first+1, nil)
	for i, v := range x {
		for j := first; j <= degree; j++ {
			a.Set(i, j-first, math.Pow(v, float64(j)))
		}
	}
	return a
}

func linearRSquared(predicted []float64, rss float64, hasIntercept bool) float64 {
	center := 0.0
	if hasIntercept {
		for _, v := range predicted {
			center += v
		}
		center /= float64(len(predicted))
	}
	var mss float64
	for _, v := range predicted {
		d := v - center
		mss += d * d
	}
	return mss / (mss + rss)
}

// distinctSupport counts the distinct x values that carry information for
// the polynomial. Without an intercept x=0 rows are all zero.
func distinctSupport(x []float64, hasIntercept bool) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		if v == 0 && !hasIntercept {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
