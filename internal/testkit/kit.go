package testkit

import (
	"context"
	"sort"
	"sync"

	"labfit/app"
	"labfit/domain/core"
	"labfit/domain/table"
)

// demoPlan replays the assays of the lab course on synthetic data
const demoPlan = `
title: demo
datasets:
  - file: Eichkurve.txt
    columns: 4
    fits:
      - {title: Eichkurve 1, x: 0, y: 1, family: proportional}
      - {title: Eichkurve 2, x: 0, y: 2, family: proportional}
      - {title: Eichkurve 3, x: 0, y: 3, family: proportional}
      - {title: Eichkurve 3 quadratisch, x: 0, y: 3, family: quadratic_zero_intercept}
  - file: Dialysezeit.txt
    columns: 4
    fits:
      - title: Innen
        x: 0
        y: 1
        expression: a*(1-exp(-k*x))
        params: [{name: a, start: 136.35}, {name: k, start: 0.030113}]
      - title: Aussen
        x: 0
        y: 2
        expression: a*(1+exp(-k*x))
        params: [{name: a, start: 136.35}, {name: k, start: 0.030113}]
      - {title: Summe, x: 0, y: 3, family: linear}
  - file: GGW.txt
    columns: 5
    fits:
      - title: Direkt
        x: 0
        y: 1
        model: binding
        params: [{name: k_d, start: 100}, {name: n, start: 2}]
      - {title: Doppelt-Reziprok, x: 2, y: 3, family: linear}
      - {title: Scatchard, x: 1, y: 4, family: linear}
`

// TestKit provides synthetic datasets and an in-memory table source for
// demos and tests
type TestKit struct {
	tables *MemoryTables
}

// NewTestKit generates the demo datasets
func NewTestKit(config LabGeneratorConfig) *TestKit {
	gen := NewLabDataGenerator(config)
	tables := NewMemoryTables()
	tables.Put("Eichkurve.txt", gen.Calibration())
	tables.Put("Dialysezeit.txt", gen.Dialysis())
	tables.Put("GGW.txt", gen.Binding())
	return &TestKit{tables: tables}
}

// Tables returns the table source serving the demo datasets
func (k *TestKit) Tables() *MemoryTables {
	return k.tables
}

// DemoPlan returns the plan fitting every demo dataset
func (k *TestKit) DemoPlan() (*app.Plan, error) {
	return app.ParsePlan([]byte(demoPlan), "")
}

// MemoryTables is a ports.TableReader over tables held in memory
type MemoryTables struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

func NewMemoryTables() *MemoryTables {
	return &MemoryTables{tables: make(map[string]*table.Table)}
}

// Put registers a table under a path
func (m *MemoryTables) Put(path string, t *table.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[path] = t
}

// Names lists the registered paths in order
func (m *MemoryTables) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadTable returns the table registered under path, trimmed to columns
func (m *MemoryTables) ReadTable(ctx context.Context, path string, columns int) (*table.Table, error) {
	m.mu.RLock()
	t, ok := m.tables[path]
	m.mu.RUnlock()
	if !ok {
		return nil, core.NewNotFoundError("table", path)
	}
	if columns < 1 || columns > t.NumColumns() {
		return nil, core.NewArgumentError("table %s has %d columns, %d requested", path, t.NumColumns(), columns)
	}
	return table.New(t.Columns()[:columns])
}
