package api

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"labfit/domain/fit"
	"labfit/ports"
)

// FitRequest is the body of POST /api/fits
type FitRequest struct {
	Title      string      `json:"title"`
	X          []float64   `json:"x"`
	Y          []float64   `json:"y"`
	Family     string      `json:"family"`
	Model      string      `json:"model,omitempty"`
	Expression string      `json:"expression,omitempty"`
	Params     []fit.Param `json:"params,omitempty"`
	// Save stores the result when a result store is configured
	Save bool `json:"save,omitempty"`
}

// Number is a float64 that encodes NaN and ±Inf as the strings "NaN",
// "Inf" and "-Inf", which plain JSON numbers cannot carry.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(fit.FormatValue(v, 0))
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		switch text {
		case "NaN":
			*n = Number(math.NaN())
		case "Inf":
			*n = Number(math.Inf(1))
		case "-Inf":
			*n = Number(math.Inf(-1))
		default:
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return err
			}
			*n = Number(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// CoefficientResponse is one coefficient row
type CoefficientResponse struct {
	Name     string `json:"name"`
	Estimate Number `json:"estimate"`
	StdError Number `json:"std_error"`
	TValue   Number `json:"t_value"`
	PValue   Number `json:"p_value"`
}

// FitResponse is a fit result with its rendered reports
type FitResponse struct {
	ID           string                `json:"id,omitempty"`
	RunID        string                `json:"run_id,omitempty"`
	Title        string                `json:"title,omitempty"`
	Family       string                `json:"family"`
	Formula      string                `json:"formula"`
	Coefficients []CoefficientResponse `json:"coefficients"`
	RSquared     Number                `json:"r_squared"`
	RSS          Number                `json:"rss"`
	Observations int                   `json:"observations"`
	Iterations   int                   `json:"iterations,omitempty"`
	Predicted    []Number              `json:"predicted,omitempty"`
	Report       string                `json:"report"`
	CreatedAt    *time.Time            `json:"created_at,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newFitResponse(title string, res *fit.Result, digits int) FitResponse {
	out := FitResponse{
		Title:        title,
		Family:       string(res.Family),
		Formula:      res.Formula,
		Coefficients: make([]CoefficientResponse, len(res.Coefficients)),
		RSquared:     Number(res.RSquared),
		RSS:          Number(res.RSS),
		Observations: res.Observations,
		Iterations:   res.Iterations,
		Report:       res.Report(digits),
	}
	for i, c := range res.Coefficients {
		out.Coefficients[i] = CoefficientResponse{
			Name:     c.Name,
			Estimate: Number(c.Estimate),
			StdError: Number(c.StdError),
			TValue:   Number(c.TValue),
			PValue:   Number(c.PValue),
		}
	}
	if len(res.Predicted) > 0 {
		out.Predicted = make([]Number, len(res.Predicted))
		for i, v := range res.Predicted {
			out.Predicted[i] = Number(v)
		}
	}
	return out
}

func storedResponse(s *ports.StoredFit, digits int) FitResponse {
	out := newFitResponse(s.Title, s.Result, digits)
	out.ID = s.ID.String()
	out.RunID = s.RunID.String()
	created := s.CreatedAt
	out.CreatedAt = &created
	return out
}
