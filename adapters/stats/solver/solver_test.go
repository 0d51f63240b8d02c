package solver

import (
	"context"
	"math"
	"testing"

	"labfit/domain/core"
	"labfit/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestSolver() *Solver {
	return New(DefaultOptions(), internal.Discard)
}

func TestFitLinearProportional(t *testing.T) {
	s := newTestSolver()
	x := []float64{1, 2, 3}
	y := []float64{3, 6, 9}

	res, err := s.FitLinear(x, y, false, 1)
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 1)

	c := res.Coefficients[0]
	assert.Equal(t, "c1", c.Name)
	assert.InDelta(t, 3.0, c.Estimate, 1e-12)
	assert.InDelta(t, 0.0, c.StdError, 1e-12)
	assert.InDelta(t, 1.0, res.RSquared, 1e-12)
	assert.Equal(t, 3, res.Observations)
	assert.InDeltaSlice(t, y, res.Predicted, 1e-12)
}

func TestFitLinearWithIntercept(t *testing.T) {
	s := newTestSolver()
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{5.1, 6.9, 9.2, 10.8, 13.0}

	res, err := s.FitLinear(x, y, true, 1)
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 2)

	assert.Equal(t, "c0", res.Coefficients[0].Name)
	assert.Equal(t, "c1", res.Coefficients[1].Name)
	// closed-form: slope = Sxy/Sxx
	assert.InDelta(t, 1.97, res.Coefficients[1].Estimate, 1e-9)
	assert.InDelta(t, 5.06, res.Coefficients[0].Estimate, 1e-9)

	slope := res.Coefficients[1]
	assert.Greater(t, slope.StdError, 0.0)
	assert.InDelta(t, slope.Estimate/slope.StdError, slope.TValue, 1e-9)
	assert.Greater(t, slope.PValue, 0.0)
	assert.Less(t, slope.PValue, 0.001)
	assert.Greater(t, res.RSquared, 0.99)
	assert.Less(t, res.RSquared, 1.0)
}

func TestFitLinearQuadratic(t *testing.T) {
	s := newTestSolver()
	x := []float64{-2, -1, 0, 1, 2, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 0.5*v*v - 2*v + 1
	}

	res, err := s.FitLinear(x, y, true, 2)
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 3)
	assert.InDelta(t, 1.0, res.Coefficients[0].Estimate, 1e-9)
	assert.InDelta(t, -2.0, res.Coefficients[1].Estimate, 1e-9)
	assert.InDelta(t, 0.5, res.Coefficients[2].Estimate, 1e-9)
}

func TestFitLinearNoInterceptRSquaredIsUncentred(t *testing.T) {
	s := newTestSolver()
	x := []float64{1, 2, 3, 4}
	y := []float64{10, 10.5, 9.5, 10}

	res, err := s.FitLinear(x, y, false, 1)
	require.NoError(t, err)

	slope := res.Coefficients[0].Estimate
	var rss, sumY2 float64
	for i := range x {
		r := y[i] - slope*x[i]
		rss += r * r
		sumY2 += y[i] * y[i]
	}
	assert.InDelta(t, 1-rss/sumY2, res.RSquared, 1e-12)
}

func TestFitLinearExactlyDetermined(t *testing.T) {
	s := newTestSolver()
	res, err := s.FitLinear([]float64{1, 2}, []float64{3, 5}, true, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Coefficients[0].Estimate, 1e-12)
	assert.InDelta(t, 2.0, res.Coefficients[1].Estimate, 1e-12)
	for _, c := range res.Coefficients {
		assert.True(t, math.IsNaN(c.StdError), "std error of %s", c.Name)
		assert.True(t, math.IsNaN(c.TValue), "t value of %s", c.Name)
		assert.True(t, math.IsNaN(c.PValue), "p value of %s", c.Name)
	}
}

func TestFitLinearErrors(t *testing.T) {
	s := newTestSolver()

	tests := []struct {
		name      string
		x, y      []float64
		intercept bool
		degree    int
	}{
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}, true, 1},
		{"too few observations", []float64{1, 2}, []float64{1, 2}, true, 2},
		{"empty", nil, nil, false, 1},
		{"degree zero", []float64{1, 2}, []float64{1, 2}, false, 0},
		{"not finite", []float64{1, math.NaN(), 3}, []float64{1, 2, 3}, true, 1},
		{"rank deficient", []float64{2, 2, 2}, []float64{1, 2, 3}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.FitLinear(tt.x, tt.y, tt.intercept, tt.degree)
			require.Error(t, err)
			assert.True(t, core.IsArgumentError(err), "expected argument error, got %v", err)
		})
	}
}

func saturation(x float64, p []float64) float64 {
	return p[0] * (1 - math.Exp(-p[1]*x))
}

func saturationData() (x, y []float64) {
	for i := 0; i <= 20; i++ {
		xi := float64(i) * 5
		x = append(x, xi)
		y = append(y, 100*(1-math.Exp(-0.05*xi))+0.5*math.Sin(1.7*float64(i)))
	}
	return x, y
}

func TestFitNonLinearConverges(t *testing.T) {
	s := newTestSolver()
	x, y := saturationData()

	res, err := s.FitNonLinear(context.Background(), x, y, saturation, []string{"a", "k"}, []float64{90, 0.04})
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 2)

	a, k := res.Coefficients[0], res.Coefficients[1]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "k", k.Name)
	assert.InEpsilon(t, 100, a.Estimate, 0.05)
	assert.InEpsilon(t, 0.05, k.Estimate, 0.05)
	assert.Greater(t, a.StdError, 0.0)
	assert.Less(t, a.PValue, 1e-6)
	assert.Greater(t, res.RSquared, 0.99)
	assert.Greater(t, res.Iterations, 0)
	assert.Len(t, res.Predicted, len(x))
	assert.InDelta(t, saturation(x[10], res.Estimates()), res.Predicted[10], 1e-9)
}

func TestFitNonLinearExactData(t *testing.T) {
	s := newTestSolver()
	x, y := bindingData()

	res, err := s.FitNonLinear(context.Background(), x, y, binding, []string{"k_d", "n"}, []float64{100, 2})
	require.NoError(t, err)
	assert.InDelta(t, 40, res.Coefficients[0].Estimate, 1e-4)
	assert.InDelta(t, 2, res.Coefficients[1].Estimate, 1e-6)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
}

func TestFitNonLinearDivergesFromNonFiniteStart(t *testing.T) {
	s := newTestSolver()
	x, y := saturationData()

	_, err := s.FitNonLinear(context.Background(), x, y, saturation, []string{"a", "k"}, []float64{-100, -50})
	require.Error(t, err)
	assert.True(t, core.IsDivergenceError(err), "expected divergence, got %v", err)
}

func bindingData() ([]float64, []float64) {
	x := []float64{1, 2, 5, 10, 20, 50, 100, 200}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2 * v / (40 + v)
	}
	return x, y
}

func binding(x float64, p []float64) float64 { return p[1] * x / (p[0] + x) }

// TestFitNonLinearDivergesFromWrongSignStart checks that a finite start on the
// wrong side of every pole does not come back as a drifting "solution".
func TestFitNonLinearDivergesFromWrongSignStart(t *testing.T) {
	s := newTestSolver()
	x, y := bindingData()

	res, err := s.FitNonLinear(context.Background(), x, y, binding, []string{"k_d", "n"}, []float64{-10000, -50})
	require.Error(t, err, "unexpected result %+v", res)
	assert.True(t, core.IsDivergenceError(err), "expected divergence, got %v", err)
}

func TestScaledCondition(t *testing.T) {
	// Very different scales but orthogonal columns
	wellPosed := mat.NewSymDense(2, []float64{1e8, 0, 0, 1e-4})
	assert.InDelta(t, 1, scaledCondition(wellPosed), 1e-9)

	// Nearly collinear columns
	collinear := mat.NewSymDense(2, []float64{1, 1 - 1e-10, 1 - 1e-10, 1})
	assert.Greater(t, scaledCondition(collinear), maxCondition)

	zero := mat.NewSymDense(2, []float64{1, 0, 0, 0})
	assert.True(t, math.IsInf(scaledCondition(zero), 1))
}

func TestFitNonLinearIterationLimit(t *testing.T) {
	s := New(Options{MaxIterations: 1, FTol: 1e-15, XTol: 1e-15}, internal.Discard)
	x, y := saturationData()

	_, err := s.FitNonLinear(context.Background(), x, y, saturation, []string{"a", "k"}, []float64{10, 0.5})
	require.Error(t, err)
	assert.True(t, core.IsDivergenceError(err), "expected divergence, got %v", err)
}

func TestFitNonLinearSingularGradient(t *testing.T) {
	s := newTestSolver()
	x, y := saturationData()
	// b never influences the model
	model := func(x float64, p []float64) float64 { return p[0] * (1 - math.Exp(-0.05*x)) }

	_, err := s.FitNonLinear(context.Background(), x, y, model, []string{"a", "b"}, []float64{90, 1})
	require.Error(t, err)
	assert.True(t, core.IsDivergenceError(err), "expected divergence, got %v", err)
}

func TestFitNonLinearArguments(t *testing.T) {
	s := newTestSolver()
	x, y := saturationData()
	ctx := context.Background()

	_, err := s.FitNonLinear(ctx, x, y, saturation, []string{"a"}, []float64{1, 2})
	assert.True(t, core.IsArgumentError(err))

	_, err = s.FitNonLinear(ctx, x, y[:3], saturation, []string{"a", "k"}, []float64{1, 2})
	assert.True(t, core.IsArgumentError(err))

	_, err = s.FitNonLinear(ctx, x, y, nil, []string{"a", "k"}, []float64{1, 2})
	assert.True(t, core.IsArgumentError(err))

	_, err = s.FitNonLinear(ctx, x[:1], y[:1], saturation, []string{"a", "k"}, []float64{1, 2})
	assert.True(t, core.IsArgumentError(err))
}

func TestFitNonLinearHonoursContext(t *testing.T) {
	s := newTestSolver()
	x, y := saturationData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FitNonLinear(ctx, x, y, saturation, []string{"a", "k"}, []float64{90, 0.04})
	assert.ErrorIs(t, err, context.Canceled)
}
