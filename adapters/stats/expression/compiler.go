// Package expression compiles textual model formulas such as
// "a*(1-exp(-k*x))" into fit.ModelFunc values.
package expression

import (
	"math"
	"regexp"
	"strings"

	"labfit/domain/core"
	"labfit/domain/fit"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Variable is the name of the independent variable in model formulas
const Variable = "x"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// functions are the math helpers available to formulas in addition to the
// expression language builtins (abs, min, max, ...). ^ and ** are powers.
var functions = map[string]interface{}{
	"exp":   math.Exp,
	"log":   math.Log,
	"ln":    math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tanh":  math.Tanh,
}

// Compiler implements ports.ModelCompiler
type Compiler struct{}

// NewCompiler creates a formula compiler
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile type-checks the formula against x and the given parameter names.
// The returned function evaluates to NaN if the formula fails at run time.
func (c *Compiler) Compile(formula string, params []string) (fit.ModelFunc, error) {
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return nil, core.NewArgumentError("model expression is empty")
	}
	if err := checkNames(params); err != nil {
		return nil, err
	}

	program, err := expr.Compile(formula, expr.Env(environment(0, make([]float64, len(params)), params)), expr.AsFloat64())
	if err != nil {
		return nil, core.NewArgumentError("cannot compile model %q: %v", formula, err)
	}

	names := append([]string(nil), params...)
	return func(x float64, p []float64) float64 {
		return evaluate(program, environment(x, p, names))
	}, nil
}

func evaluate(program *vm.Program, env map[string]interface{}) float64 {
	out, err := expr.Run(program, env)
	if err != nil {
		return math.NaN()
	}
	v, ok := out.(float64)
	if !ok {
		return math.NaN()
	}
	return v
}

func environment(x float64, p []float64, names []string) map[string]interface{} {
	env := make(map[string]interface{}, len(functions)+len(names)+1)
	for name, fn := range functions {
		env[name] = fn
	}
	env[Variable] = x
	for i, name := range names {
		env[name] = p[i]
	}
	return env
}

func checkNames(params []string) error {
	seen := make(map[string]bool, len(params))
	for _, name := range params {
		if !identifierPattern.MatchString(name) {
			return core.NewArgumentError("parameter name %q is not an identifier", name)
		}
		if name == Variable {
			return core.NewArgumentError("parameter name %q is reserved for the independent variable", name)
		}
		if _, ok := functions[name]; ok {
			return core.NewArgumentError("parameter name %q is reserved for a function", name)
		}
		if seen[name] {
			return core.NewArgumentError("duplicate parameter name %q", name)
		}
		seen[name] = true
	}
	return nil
}
