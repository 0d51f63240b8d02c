package app

import (
	"os"
	"path/filepath"
	"testing"

	"labfit/domain/core"
	"labfit/domain/fit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dialysisPlan = `
title: Dialysezeit
datasets:
  - file: Dialysezeit.txt
    columns: 4
    fits:
      - title: Innen
        x: 0
        y: 1
        family: nonlinear
        expression: a*(1-exp(-k*x))
        params:
          - {name: a, start: 136.35}
          - {name: k, start: "0.030113"}
      - title: Aussen
        x: 0
        y: 2
        model: saturation_plus
        params:
          - {name: a, start: min(y)}
      - {title: Summe, x: 0, y: 3, family: linear}
`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(dialysisPlan), "testdata")
	require.NoError(t, err)

	assert.Equal(t, "Dialysezeit", plan.Title)
	require.Len(t, plan.Datasets, 1)
	assert.Equal(t, 3, plan.NumFits())
	assert.Equal(t, filepath.Join("testdata", "Dialysezeit.txt"), plan.Path("Dialysezeit.txt"))

	fits := plan.Datasets[0].Fits
	spec, err := fits[0].Spec()
	require.NoError(t, err)
	assert.Equal(t, fit.FamilyNonLinear, spec.Family)
	assert.Equal(t, []string{"a", "k"}, spec.ParamNames())
	assert.Equal(t, fit.Literal(136.35), spec.Params[0].Start)
	assert.Equal(t, fit.Literal(0.030113), spec.Params[1].Start)

	spec, err = fits[1].Spec()
	require.NoError(t, err)
	assert.Equal(t, "a*(1+exp(-k*x))", spec.Expression)
	assert.NotNil(t, spec.Model)
	assert.Equal(t, fit.MinOf(fit.AxisY), spec.Params[0].Start)
	assert.Equal(t, fit.Literal(0.03), spec.Params[1].Start)

	spec, err = fits[2].Spec()
	require.NoError(t, err)
	assert.Equal(t, fit.ModelSpec{Family: fit.FamilyLinear}, spec)
}

func TestParsePlanRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no datasets", "title: empty\n"},
		{"unknown field", "datasets: [{file: a.txt, columns: 2, colums: 3}]\n"},
		{"column out of range", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 2, family: linear}]}]\n"},
		{"zero columns", "datasets: [{file: a.txt, columns: 0}]\n"},
		{"model and expression", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, model: binding, expression: n*x}]}]\n"},
		{"linear with expression", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, family: linear, expression: m*x}]}]\n"},
		{"unknown model", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, model: hill}]}]\n"},
		{"unknown override", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, model: binding, params: [{name: q, start: 1}]}]}]\n"},
		{"bad start", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, expression: a*x, params: [{name: a, start: mean(y)}]}]}]\n"},
		{"expression without params", "datasets: [{file: a.txt, columns: 2, fits: [{x: 0, y: 1, expression: a*x}]}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.yaml), "")
			require.Error(t, err)
			assert.True(t, core.IsArgumentError(err), "expected argument error, got %v", err)
		})
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dialysisPlan), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Dialysezeit.txt"), plan.Path("Dialysezeit.txt"))
	assert.Equal(t, "/abs/data.txt", plan.Path("/abs/data.txt"))

	_, err = LoadPlan(filepath.Join(dir, "missing.yaml"))
	assert.True(t, core.IsResourceError(err))
}

func TestIsWorkbook(t *testing.T) {
	assert.True(t, IsWorkbook("assay.xlsx"))
	assert.True(t, IsWorkbook("ASSAY.XLSX#Plate 2"))
	assert.True(t, IsWorkbook("macro.xlsm"))
	assert.False(t, IsWorkbook("data.txt"))
	assert.False(t, IsWorkbook("notes#1.tsv"))
}
