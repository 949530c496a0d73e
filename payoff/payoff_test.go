package payoff_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/payoff"
)

// three dates x two paths
func samplePaths() *mat.Dense {
	return mat.NewDense(3, 2, []float64{
		100, 100,
		110, 90,
		105, 80,
	})
}

func TestClosedPayoffs(t *testing.T) {
	t.Parallel()

	s := payoff.State{MaturityValue: 105, PathMean: 102, PathMax: 110, PathMin: 95, Strike: 100}
	tests := []struct {
		p    payoff.Payoff
		want float64
	}{
		{payoff.Call{}, 5},
		{payoff.Put{}, 0},
		{payoff.AsianCall{}, 2},
		{payoff.AsianPut{}, 0},
		{payoff.LookbackCall{}, 10},
		{payoff.LookbackPut{}, 5},
	}
	for _, tt := range tests {
		got, err := tt.p.Value(s)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.p.String())
	}
}

func TestAtMaturity_PathStatistics(t *testing.T) {
	t.Parallel()

	paths := samplePaths()

	call, err := payoff.AtMaturity(payoff.Call{}, paths, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0}, call)

	// maturity at row 1 ignores row 2
	call, err = payoff.AtMaturity(payoff.Call{}, paths, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 0}, call)

	asian, err := payoff.AtMaturity(payoff.AsianPut{}, paths, 2, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, asian[0], 1e-12)
	assert.InDelta(t, 10.0, asian[1], 1e-12)

	lookback, err := payoff.AtMaturity(payoff.LookbackCall{}, paths, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 0}, lookback)

	_, err = payoff.AtMaturity(payoff.Call{}, paths, 3, 100)
	assert.Error(t, err)
}

func TestIntrinsic_PerRow(t *testing.T) {
	t.Parallel()

	put, err := payoff.Intrinsic(payoff.Put{}, samplePaths(), 100)
	require.NoError(t, err)
	want := mat.NewDense(3, 2, []float64{
		0, 0,
		0, 10,
		0, 20,
	})
	assert.True(t, mat.Equal(want, put))
}

func TestExpression_MatchesClosedForm(t *testing.T) {
	t.Parallel()

	p, err := payoff.Parse(payoff.KindExpression, "max(maturityValue - strike, 0)")
	require.NoError(t, err)

	paths := samplePaths()
	got, err := payoff.AtMaturity(p, paths, 2, 100)
	require.NoError(t, err)
	want, err := payoff.AtMaturity(payoff.Call{}, paths, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	p, err = payoff.Parse("", "sqrt(max(strike - instrumentValues, 0)) + abs(min(pathMin - pathMax, 0)) / 2 + exp(0) * log(1)")
	require.NoError(t, err)
	v, err := p.Value(payoff.State{InstrumentValues: 96, Strike: 100, PathMin: 90, PathMax: 110})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, v, 1e-12)
}

func TestExpression_RejectsUnknownNames(t *testing.T) {
	t.Parallel()

	var evalErr *payoff.EvaluationError
	for _, rule := range []string{
		"max(spot - strike, 0)",
		`"not a number"`,
		"maturityValue -",
	} {
		_, err := payoff.Compile(rule)
		require.True(t, errors.As(err, &evalErr), rule)
		assert.Equal(t, rule, evalErr.Rule)
	}

	_, err := payoff.Parse("digital", "")
	assert.True(t, errors.As(err, &evalErr))
	_, err = payoff.Parse(payoff.KindExpression, "  ")
	assert.True(t, errors.As(err, &evalErr))
}

func TestAtMaturity_NonFiniteIsEvaluationError(t *testing.T) {
	t.Parallel()

	p, err := payoff.Compile("log(maturityValue - 1000)")
	require.NoError(t, err)

	_, err = payoff.AtMaturity(p, samplePaths(), 2, 100)
	var evalErr *payoff.EvaluationError
	require.True(t, errors.As(err, &evalErr), "got %v", err)
	assert.Equal(t, "log(maturityValue - 1000)", evalErr.Rule)
}

func TestIntrinsic_InstrumentValuesIsRowValue(t *testing.T) {
	t.Parallel()

	paths := samplePaths()
	rule, err := payoff.Compile("instrumentValues")
	require.NoError(t, err)
	got, err := payoff.Intrinsic(rule, paths, 100)
	require.NoError(t, err)
	assert.True(t, mat.Equal(paths, got))

	// running maximum up to the exercise row
	runMax, err := payoff.Compile("pathMax - instrumentValues")
	require.NoError(t, err)
	got, err = payoff.Intrinsic(runMax, paths, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, got.RawRowView(0))
	assert.Equal(t, []float64{0, 10}, got.RawRowView(1))
	assert.Equal(t, []float64{5, 20}, got.RawRowView(2))
}
