package solver

import (
	"math"

	"labfit/domain/fit"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// crossProduct returns AᵀA for an n×p matrix A
func crossProduct(a mat.Matrix) *mat.SymDense {
	_, p := a.Dims()
	sym := mat.NewSymDense(p, nil)
	sym.SymOuterK(1, a.T())
	return sym
}

// epsilon is the float64 machine epsilon
const epsilon = 2.220446049250313e-16

// scaledCondition returns the 2-norm condition number of JᵀJ after scaling
// it to unit diagonal, so parameters of very different magnitude do not
// count as ill-conditioned. A zero diagonal entry gives +Inf.
func scaledCondition(jtj *mat.SymDense) float64 {
	p := jtj.SymmetricDim()
	scale := make([]float64, p)
	for i := range scale {
		d := jtj.At(i, i)
		if !(d > 0) || math.IsInf(d, 0) {
			return math.Inf(1)
		}
		scale[i] = 1 / math.Sqrt(d)
	}
	scaled := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			scaled.SetSym(i, j, jtj.At(i, j)*scale[i]*scale[j])
		}
	}
	return mat.Cond(scaled, 2)
}

// invertSPD inverts a symmetric positive definite matrix. ok is false when
// the matrix is singular or not positive definite.
func invertSPD(a *mat.SymDense) (inv *mat.SymDense, ok bool) {
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, false
	}
	inv = &mat.SymDense{}
	if err := chol.InverseTo(inv); err != nil {
		return nil, false
	}
	return inv, true
}

// coefficientTable derives standard errors, t values and two-sided p values
// from the unscaled covariance (XᵀX)⁻¹ or (JᵀJ)⁻¹. With no residual degrees
// of freedom the inferential columns are NaN.
func coefficientTable(names []string, estimates []float64, unscaled *mat.SymDense, rss float64, df int) []fit.Coefficient {
	coefs := make([]fit.Coefficient, len(names))

	var (
		sigma2 float64
		dist   distuv.StudentsT
	)
	if df > 0 {
		sigma2 = rss / float64(df)
		dist = distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	}

	for i, name := range names {
		c := fit.Coefficient{
			Name:     name,
			Estimate: estimates[i],
			StdError: math.NaN(),
			TValue:   math.NaN(),
			PValue:   math.NaN(),
		}
		if df > 0 {
			c.StdError = math.Sqrt(sigma2 * unscaled.At(i, i))
			c.TValue = c.Estimate / c.StdError
			c.PValue = 2 * dist.Survival(math.Abs(c.TValue))
		}
		coefs[i] = c
	}
	return coefs
}

func sumSquares(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v * v
	}
	return s
}
