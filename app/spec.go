package app

import (
	"strings"

	"labfit/domain/core"
	"labfit/domain/fit"
)

// BuildSpec turns the textual model selection used by plans, the CLI and the
// HTTP layers into a model spec. A catalog model implies the non-linear
// family; its params only override default start values.
func BuildSpec(family, model, expression string, params []fit.Param) (fit.ModelSpec, error) {
	fam := fit.FamilyNonLinear
	if family != "" {
		parsed, err := fit.ParseFamily(family)
		if err != nil {
			return fit.ModelSpec{}, err
		}
		fam = parsed
	} else if model == "" && expression == "" {
		return fit.ModelSpec{}, core.NewArgumentError("fit needs a family, model or expression")
	}

	if fam != fit.FamilyNonLinear {
		if model != "" || expression != "" || len(params) > 0 {
			return fit.ModelSpec{}, core.NewArgumentError("%s fits take no model, expression or params", fam)
		}
		return fit.ModelSpec{Family: fam}, nil
	}

	switch {
	case model != "" && expression != "":
		return fit.ModelSpec{}, core.NewArgumentError("give either model or expression, not both")
	case model != "":
		m, err := fit.LookupModel(model)
		if err != nil {
			return fit.ModelSpec{}, err
		}
		overrides := make(map[string]fit.StartValue, len(params))
		for _, p := range params {
			if !hasParam(m.Params, p.Name) {
				return fit.ModelSpec{}, core.NewArgumentError("model %s has no parameter %q", m.Name, p.Name)
			}
			overrides[p.Name] = p.Start
		}
		return m.Spec(overrides), nil
	case expression != "":
		if len(params) == 0 {
			return fit.ModelSpec{}, core.NewArgumentError("expression %q needs params", expression)
		}
		return fit.ModelSpec{Family: fam, Expression: expression, Params: params}, nil
	}
	return fit.ModelSpec{}, core.NewArgumentError("non-linear fit needs a model or expression")
}

func hasParam(params []fit.Param, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ParseParams reads "name=start" assignments, e.g. "k_d=median(x)", in order
func ParseParams(assignments []string) ([]fit.Param, error) {
	params := make([]fit.Param, 0, len(assignments))
	for _, a := range assignments {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		name, start, ok := strings.Cut(a, "=")
		if !ok {
			return nil, core.NewArgumentError("parameter %q must look like name=start", a)
		}
		sv, err := fit.ParseStartValue(start)
		if err != nil {
			return nil, err
		}
		params = append(params, fit.Param{Name: strings.TrimSpace(name), Start: sv})
	}
	return params, nil
}
