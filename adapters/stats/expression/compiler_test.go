package expression

import (
	"math"
	"testing"

	"labfit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEvaluatesModel(t *testing.T) {
	c := NewCompiler()

	model, err := c.Compile("a*(1-exp(-k*x))", []string{"a", "k"})
	require.NoError(t, err)

	got := model(10, []float64{100, 0.05})
	assert.InDelta(t, 100*(1-math.Exp(-0.5)), got, 1e-12)
	assert.InDelta(t, 0.0, model(0, []float64{100, 0.05}), 1e-12)
}

func TestCompilePowerAndBuiltins(t *testing.T) {
	c := NewCompiler()

	model, err := c.Compile("a*x^2 + sqrt(b) + abs(x)", []string{"a", "b"})
	require.NoError(t, err)
	assert.InDelta(t, 2*9.0+2+3, model(-3, []float64{2, 4}), 1e-12)
}

func TestCompileBindingModel(t *testing.T) {
	c := NewCompiler()

	model, err := c.Compile("n*x/(k_d+x)", []string{"k_d", "n"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, model(40, []float64{40, 2}), 1e-12)
}

func TestCompileRejects(t *testing.T) {
	c := NewCompiler()

	tests := []struct {
		name    string
		formula string
		params  []string
	}{
		{"empty", "  ", []string{"a"}},
		{"syntax", "a*(1-", []string{"a"}},
		{"unknown name", "a*y", []string{"a"}},
		{"reserved x", "x*2", []string{"x"}},
		{"reserved function", "exp*x", []string{"exp"}},
		{"bad identifier", "a*x", []string{"1a"}},
		{"duplicate", "a*x", []string{"a", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.formula, tt.params)
			require.Error(t, err)
			assert.True(t, core.IsArgumentError(err), "expected argument error, got %v", err)
		})
	}
}

func TestModelIsNaNOnDomainErrors(t *testing.T) {
	c := NewCompiler()

	model, err := c.Compile("log(a*x)", []string{"a"})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(model(1, []float64{-1})))
}
