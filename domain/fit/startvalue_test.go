package fit

import (
	"encoding/json"
	"testing"

	"labfit/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartValue(t *testing.T) {
	tests := []struct {
		in   string
		want StartValue
	}{
		{"136.35", Literal(136.35)},
		{" -2 ", Literal(-2)},
		{"min(y)", MinOf(AxisY)},
		{"max(y)", MaxOf(AxisY)},
		{"median(x)", MedianOf(AxisX)},
		{"MEDIAN( y )", MedianOf(AxisY)},
	}
	for _, tt := range tests {
		got, err := ParseStartValue(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "mean(y)", "max(z)", "abc"} {
		_, err := ParseStartValue(bad)
		assert.True(t, core.IsArgumentError(err), bad)
	}
}

func TestStartValueStringRoundTrip(t *testing.T) {
	for _, sv := range []StartValue{Literal(0.030113), MinOf(AxisY), MaxOf(AxisY), MedianOf(AxisX)} {
		parsed, err := ParseStartValue(sv.String())
		require.NoError(t, err)
		assert.Equal(t, sv, parsed)
	}
}

func TestStartValueResolve(t *testing.T) {
	x := []float64{1, 4, 2, 8, 16}
	y := []float64{3, -1, 7, 5, 2}

	cases := []struct {
		sv   StartValue
		want float64
	}{
		{Literal(100), 100},
		{MinOf(AxisY), -1},
		{MaxOf(AxisY), 7},
		{MedianOf(AxisX), 4},
		{MedianOf(AxisY), 3},
	}
	for _, c := range cases {
		got, err := c.sv.Resolve(x, y)
		require.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-12, c.sv.String())
	}

	_, err := MaxOf(AxisY).Resolve(x, nil)
	assert.True(t, core.IsArgumentError(err))
}

func TestResolveStarts(t *testing.T) {
	params := []Param{{Name: "k_d", Start: MedianOf(AxisX)}, {Name: "n", Start: Literal(2)}}
	starts, err := ResolveStarts(params, []float64{10, 20, 30}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 2}, starts)
}

func TestStartValueJSON(t *testing.T) {
	var p struct {
		A StartValue `json:"a"`
		B StartValue `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 2.5, "b": "max(y)"}`), &p))
	assert.Equal(t, Literal(2.5), p.A)
	assert.Equal(t, MaxOf(AxisY), p.B)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "2.5", "b": "max(y)"}`, string(out))
}
