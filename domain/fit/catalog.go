package fit

import (
	"math"
	"sort"

	"labfit/domain/core"
)

// CatalogModel is a named non-linear model used by the lab assays
type CatalogModel struct {
	Name        string
	Description string
	Expression  string
	Func        ModelFunc
	Params      []Param
}

// Spec returns a non-linear ModelSpec for the catalog model. Overrides
// replace default start values by parameter name.
func (m CatalogModel) Spec(overrides map[string]StartValue) ModelSpec {
	params := make([]Param, len(m.Params))
	for i, p := range m.Params {
		if sv, ok := overrides[p.Name]; ok {
			p.Start = sv
		}
		params[i] = p
	}
	return ModelSpec{
		Family:     FamilyNonLinear,
		Expression: m.Expression,
		Model:      m.Func,
		Params:     params,
	}
}

var catalog = map[string]CatalogModel{
	"saturation": {
		Name:        "saturation",
		Description: "first-order approach to a plateau (dialysis, inside)",
		Expression:  "a*(1-exp(-k*x))",
		Func: func(x float64, p []float64) float64 {
			return p[0] * (1 - math.Exp(-p[1]*x))
		},
		Params: []Param{{Name: "a", Start: MaxOf(AxisY)}, {Name: "k", Start: Literal(0.03)}},
	},
	"saturation_plus": {
		Name:        "saturation_plus",
		Description: "first-order decay onto a plateau (dialysis, outside)",
		Expression:  "a*(1+exp(-k*x))",
		Func: func(x float64, p []float64) float64 {
			return p[0] * (1 + math.Exp(-p[1]*x))
		},
		Params: []Param{{Name: "a", Start: MinOf(AxisY)}, {Name: "k", Start: Literal(0.03)}},
	},
	"binding": {
		Name:        "binding",
		Description: "one-site binding isotherm (equilibrium dialysis)",
		Expression:  "n*x/(k_d+x)",
		Func: func(x float64, p []float64) float64 {
			return p[1] * x / (p[0] + x)
		},
		Params: []Param{{Name: "k_d", Start: MedianOf(AxisX)}, {Name: "n", Start: MaxOf(AxisY)}},
	},
	"logistic4": {
		Name:        "logistic4",
		Description: "four-parameter logistic (fluorescence polarization)",
		Expression:  "bottom+(top-bottom)/(1+(x/ec50)^hill)",
		Func: func(x float64, p []float64) float64 {
			return p[0] + (p[1]-p[0])/(1+math.Pow(x/p[2], p[3]))
		},
		Params: []Param{
			{Name: "bottom", Start: MinOf(AxisY)},
			{Name: "top", Start: MaxOf(AxisY)},
			{Name: "ec50", Start: MedianOf(AxisX)},
			{Name: "hill", Start: Literal(1)},
		},
	},
}

// LookupModel returns a catalog model by name
func LookupModel(name string) (CatalogModel, error) {
	m, ok := catalog[name]
	if !ok {
		return CatalogModel{}, core.NewArgumentError("unknown model %q", name)
	}
	return m, nil
}

// ModelNames lists the catalog in alphabetical order
func ModelNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
