package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labfit/adapters/stats/expression"
	"labfit/adapters/stats/solver"
	"labfit/app"
	"labfit/domain/core"
	"labfit/domain/fit"
	"labfit/internal"
	"labfit/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func newTestServer(repo ports.FitRepository) *Server {
	fits := app.NewFitService(solver.New(solver.DefaultOptions(), internal.Discard), expression.NewCompiler(), internal.Discard)
	return NewServer(DefaultConfig(), fits, repo, internal.Discard)
}

func postFit(t *testing.T, s *Server, body interface{}) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/fits", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateProportionalFit(t *testing.T) {
	s := newTestServer(nil)

	rec := postFit(t, s, map[string]interface{}{
		"title":  "calibration",
		"x":      []float64{1, 2, 3},
		"y":      []float64{2, 4, 6},
		"family": "proportional",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "proportional", resp.Family)
	require.Len(t, resp.Coefficients, 1)
	assert.Equal(t, "m", resp.Coefficients[0].Name)
	assert.InDelta(t, 2.0, float64(resp.Coefficients[0].Estimate), 1e-12)
	assert.InDelta(t, 1.0, float64(resp.RSquared), 1e-12)
	assert.Contains(t, resp.Report, "Coefficient  m")
	assert.Empty(t, resp.ID)
}

func TestCreateFitWithCatalogModel(t *testing.T) {
	s := newTestServer(nil)

	x := []float64{1, 2, 5, 10, 20, 50, 100, 200}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2*v/(40+v) + 0.01*math.Sin(float64(i))
	}
	rec := postFit(t, s, map[string]interface{}{
		"x":      x,
		"y":      y,
		"model":  "binding",
		"params": []map[string]interface{}{{"name": "k_d", "start": 100}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "nonlinear", resp.Family)
	assert.Equal(t, "y = n*x/(k_d+x)", resp.Formula)
	require.Len(t, resp.Coefficients, 2)
	assert.InEpsilon(t, 40, float64(resp.Coefficients[0].Estimate), 0.05)
	assert.Len(t, resp.Predicted, len(x))
}

func TestCreateFitErrorStatus(t *testing.T) {
	s := newTestServer(nil)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown family", map[string]interface{}{"x": []float64{1}, "y": []float64{1}, "family": "cubic"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"length mismatch", map[string]interface{}{"x": []float64{1, 2}, "y": []float64{1}, "family": "linear"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed body", "not an object", http.StatusBadRequest, "INVALID_INPUT"},
		{
			"divergence",
			map[string]interface{}{
				"x":          []float64{0, 25, 50, 75, 100},
				"y":          []float64{0, 70, 92, 97, 99},
				"expression": "a*(1-exp(-k*x))",
				"params":     []map[string]interface{}{{"name": "a", "start": -100}, {"name": "k", "start": -50}},
			},
			http.StatusUnprocessableEntity,
			"FIT_DIVERGENCE",
		},
		{"save without store", map[string]interface{}{"x": []float64{1, 2}, "y": []float64{2, 4}, "family": "proportional", "save": true}, http.StatusServiceUnavailable, "STORE_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postFit(t, s, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStoreEndpointsWithoutStore(t *testing.T) {
	s := newTestServer(nil)

	for _, path := range []string{"/api/fits", "/api/fits/0190c9a4-7d3e-7b2a-9f3c-2a1b3c4d5e6f"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestSaveAndGetFit(t *testing.T) {
	repo := new(MockFitRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*ports.StoredFit")).
		Run(func(args mock.Arguments) {
			stored := args.Get(1).(*ports.StoredFit)
			stored.ID = "0190c9a4-7d3e-7b2a-9f3c-2a1b3c4d5e6f"
			stored.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		}).
		Return(nil)

	s := newTestServer(repo)
	rec := postFit(t, s, map[string]interface{}{"x": []float64{1, 2, 3}, "y": []float64{3, 6, 9}, "family": "proportional", "save": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0190c9a4-7d3e-7b2a-9f3c-2a1b3c4d5e6f", resp.ID)
	repo.AssertExpectations(t)
}

func TestGetFitStatus(t *testing.T) {
	found := core.FitID("0190c9a4-7d3e-7b2a-9f3c-2a1b3c4d5e6f")
	missing := core.FitID("0190c9a4-7d3e-7b2a-9f3c-000000000000")

	repo := new(MockFitRepository)
	repo.On("Get", mock.Anything, found).Return(&ports.StoredFit{
		ID:     found,
		Title:  "stored",
		Result: &fit.Result{Family: fit.FamilyLinear, Coefficients: []fit.Coefficient{{Name: "m", Estimate: 2, StdError: math.NaN(), TValue: math.NaN(), PValue: math.NaN()}}},
	}, nil)
	repo.On("Get", mock.Anything, missing).Return(nil, core.NewFitNotFoundError(missing.String()))
	repo.On("List", mock.Anything, core.RunID(""), 5).Return([]*ports.StoredFit{}, nil)

	s := newTestServer(repo)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/fits/" + found.String(), http.StatusOK},
		{"/api/fits/" + missing.String(), http.StatusNotFound},
		{"/api/fits/not-a-uuid", http.StatusBadRequest},
		{"/api/fits?limit=5", http.StatusOK},
		{"/api/fits?limit=-1", http.StatusBadRequest},
		{"/api/fits?run_id=nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.path)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fits/"+found.String(), nil))
	var resp FitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, math.IsNaN(float64(resp.Coefficients[0].StdError)))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
