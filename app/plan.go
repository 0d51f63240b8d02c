package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"labfit/domain/core"
	"labfit/domain/fit"

	"gopkg.in/yaml.v3"
)

// Plan lists the datasets of an analysis and the fits to run on each
type Plan struct {
	Title    string        `yaml:"title"`
	Datasets []DatasetPlan `yaml:"datasets"`

	// dir is the directory relative dataset paths resolve against
	dir string
}

// DatasetPlan is one input file and its fits
type DatasetPlan struct {
	File    string    `yaml:"file"`
	Columns int       `yaml:"columns"`
	Fits    []FitPlan `yaml:"fits"`
}

// FitPlan selects two columns and a model. Model names a catalog entry;
// Expression gives a formula with explicit Params.
type FitPlan struct {
	Title      string      `yaml:"title"`
	X          int         `yaml:"x"`
	Y          int         `yaml:"y"`
	Family     string      `yaml:"family"`
	Model      string      `yaml:"model,omitempty"`
	Expression string      `yaml:"expression,omitempty"`
	Params     []fit.Param `yaml:"params,omitempty"`
}

// LoadPlan reads and validates a YAML plan file
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewResourceError(path, err)
	}
	return ParsePlan(data, filepath.Dir(path))
}

// ParsePlan decodes a YAML plan. Relative dataset paths resolve against dir.
func ParsePlan(data []byte, dir string) (*Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, core.NewArgumentError("invalid plan: %v", err)
	}
	plan.dir = dir
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks column indexes and model selections of every fit
func (p *Plan) Validate() error {
	if len(p.Datasets) == 0 {
		return core.NewArgumentError("plan %q has no datasets", p.Title)
	}
	for i, ds := range p.Datasets {
		if ds.File == "" {
			return core.NewArgumentError("dataset %d has no file", i)
		}
		if ds.Columns < 1 {
			return core.NewArgumentError("dataset %s: columns must be at least 1, got %d", ds.File, ds.Columns)
		}
		for j, f := range ds.Fits {
			if f.X < 0 || f.X >= ds.Columns || f.Y < 0 || f.Y >= ds.Columns {
				return core.NewArgumentError("dataset %s fit %q: columns x=%d y=%d out of range [0,%d)", ds.File, f.Label(j), f.X, f.Y, ds.Columns)
			}
			if _, err := f.Spec(); err != nil {
				return fmt.Errorf("dataset %s fit %q: %w", ds.File, f.Label(j), err)
			}
		}
	}
	return nil
}

// Path resolves a dataset file against the plan's directory
func (p *Plan) Path(file string) string {
	if filepath.IsAbs(file) || p.dir == "" {
		return file
	}
	return filepath.Join(p.dir, file)
}

// NumFits counts the fits across all datasets
func (p *Plan) NumFits() int {
	n := 0
	for _, ds := range p.Datasets {
		n += len(ds.Fits)
	}
	return n
}

// Label returns the fit title, or a positional name when it has none
func (f FitPlan) Label(index int) string {
	if f.Title != "" {
		return f.Title
	}
	return fmt.Sprintf("fit %d (x=%d, y=%d)", index+1, f.X, f.Y)
}

// Spec builds the model spec the fit describes
func (f FitPlan) Spec() (fit.ModelSpec, error) {
	return BuildSpec(f.Family, f.Model, f.Expression, f.Params)
}
