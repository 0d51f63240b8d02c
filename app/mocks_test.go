package app

import (
	"context"

	"labfit/domain/core"
	"labfit/domain/fit"
	"labfit/domain/table"
	"labfit/ports"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockFitter struct {
	mock.Mock
}

func (m *MockFitter) FitLinear(x, y []float64, hasIntercept bool, degree int) (*fit.Result, error) {
	args := m.Called(x, y, hasIntercept, degree)
	if res := args.Get(0); res != nil {
		return res.(*fit.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFitter) FitNonLinear(ctx context.Context, x, y []float64, model fit.ModelFunc, names []string, starts []float64) (*fit.Result, error) {
	args := m.Called(ctx, x, y, model, names, starts)
	if res := args.Get(0); res != nil {
		return res.(*fit.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTableReader struct {
	mock.Mock
}

func (m *MockTableReader) ReadTable(ctx context.Context, path string, columns int) (*table.Table, error) {
	args := m.Called(ctx, path, columns)
	if t := args.Get(0); t != nil {
		return t.(*table.Table), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockFitRepository struct {
	mock.Mock
}

func (m *MockFitRepository) Save(ctx context.Context, stored *ports.StoredFit) error {
	args := m.Called(ctx, stored)
	return args.Error(0)
}

func (m *MockFitRepository) Get(ctx context.Context, id core.FitID) (*ports.StoredFit, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*ports.StoredFit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFitRepository) List(ctx context.Context, runID core.RunID, limit int) ([]*ports.StoredFit, error) {
	args := m.Called(ctx, runID, limit)
	return args.Get(0).([]*ports.StoredFit), args.Error(1)
}
