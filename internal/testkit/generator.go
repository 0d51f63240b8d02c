package testkit

import (
	"math"
	"math/rand"
	"strconv"

	"labfit/domain/table"
)

// LabGeneratorConfig configures the synthetic laboratory data generator
type LabGeneratorConfig struct {
	Points int     `json:"points"`
	Noise  float64 `json:"noise"` // relative standard deviation of the measurement noise
	Seed   int64   `json:"seed"`
}

// DefaultLabConfig returns sensible defaults for synthetic assays
func DefaultLabConfig() LabGeneratorConfig {
	return LabGeneratorConfig{
		Points: 12,
		Noise:  0.01,
		Seed:   42,
	}
}

// Generating parameters of the synthetic assays
const (
	CalibrationSlope1 = 0.021
	CalibrationSlope2 = 0.019
	CalibrationQuadA  = 0.0004
	CalibrationQuadB  = 0.015

	DialysisPlateau = 136.35
	DialysisRate    = 0.030113

	BindingKd    = 100.0
	BindingSites = 2.0
)

// LabDataGenerator generates noisy measurement tables for the lab assays
type LabDataGenerator struct {
	config LabGeneratorConfig
	rng    *rand.Rand
}

// NewLabDataGenerator creates a new generator. Equal configs produce equal tables.
func NewLabDataGenerator(config LabGeneratorConfig) *LabDataGenerator {
	if config.Points < 3 {
		config.Points = 3
	}
	return &LabDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Calibration returns a calibration curve: concentration and three
// absorbance series, two proportional and one slightly quadratic.
func (g *LabDataGenerator) Calibration() *table.Table {
	cols := make([][]string, 4)
	for i := 0; i < g.config.Points; i++ {
		x := float64(i) * 5
		cols[0] = append(cols[0], format(x))
		cols[1] = append(cols[1], format(g.noisy(CalibrationSlope1*x)))
		cols[2] = append(cols[2], format(g.noisy(CalibrationSlope2*x)))
		cols[3] = append(cols[3], format(g.noisy(CalibrationQuadA*x*x+CalibrationQuadB*x)))
	}
	return mustTable(cols)
}

// Dialysis returns a dialysis time course: time, concentration inside,
// concentration outside and their sum.
func (g *LabDataGenerator) Dialysis() *table.Table {
	cols := make([][]string, 4)
	for i := 0; i < g.config.Points; i++ {
		t := float64(i) * 10
		decay := math.Exp(-DialysisRate * t)
		inside := g.noisy(DialysisPlateau * (1 - decay))
		outside := g.noisy(DialysisPlateau * (1 + decay))
		cols[0] = append(cols[0], format(t))
		cols[1] = append(cols[1], format(inside))
		cols[2] = append(cols[2], format(outside))
		cols[3] = append(cols[3], format(inside+outside))
	}
	return mustTable(cols)
}

// Binding returns an equilibrium dialysis experiment: free ligand, bound
// ligand per protein, and the double-reciprocal (1/x, 1/r) and Scatchard
// (r/x) transforms.
func (g *LabDataGenerator) Binding() *table.Table {
	cols := make([][]string, 5)
	for i := 0; i < g.config.Points; i++ {
		x := 10 * math.Pow(1.5, float64(i))
		r := g.noisy(BindingSites * x / (BindingKd + x))
		cols[0] = append(cols[0], format(x))
		cols[1] = append(cols[1], format(r))
		cols[2] = append(cols[2], format(1/x))
		cols[3] = append(cols[3], format(1/r))
		cols[4] = append(cols[4], format(r/x))
	}
	return mustTable(cols)
}

func (g *LabDataGenerator) noisy(v float64) float64 {
	return v * (1 + g.config.Noise*g.rng.NormFloat64())
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func mustTable(cols [][]string) *table.Table {
	t, err := table.New(cols)
	if err != nil {
		panic(err)
	}
	return t
}
