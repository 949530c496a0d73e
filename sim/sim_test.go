package sim_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/mcval/curve"
	"github.com/meenmo/mcval/grid"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/random"
	"github.com/meenmo/mcval/sim"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEnv(t *testing.T, name string, initial, vol float64) *market.Environment {
	t.Helper()
	csr, err := curve.NewConstantShortRate("csr", 0.05)
	require.NoError(t, err)
	return market.NewEnvironment(name, date(2025, 1, 1)).
		AddConstant(market.KeyInitialValue, initial).
		AddConstant(market.KeyVolatility, vol).
		AddConstant(market.KeyFinalDate, date(2025, 12, 31)).
		AddConstant(market.KeyCurrency, "EUR").
		AddConstant(market.KeyFrequency, "M").
		AddConstant(market.KeyPaths, 2000).
		AddCurve(market.KeyDiscountCurve, csr)
}

func TestGBM_PathsStartAtInitialValue(t *testing.T) {
	t.Parallel()

	gbm, err := sim.NewGBM("gbm", newEnv(t, "me_gbm", 36, 0.2), nil)
	require.NoError(t, err)

	g, err := gbm.TimeGrid()
	require.NoError(t, err)
	paths, err := gbm.Paths(true)
	require.NoError(t, err)

	rows, cols := paths.Dims()
	assert.Equal(t, len(g), rows)
	assert.Equal(t, 2000, cols)
	for p := 0; p < cols; p++ {
		require.Equal(t, 36.0, paths.At(0, p))
	}
	for i := 0; i < rows; i++ {
		for _, v := range paths.RawRowView(i) {
			require.Greater(t, v, 0.0)
		}
	}

	// risk-neutral forward
	final := mat.Row(nil, rows-1, paths)
	assert.InDelta(t, 36*math.Exp(0.05*364.0/365.0), stat.Mean(final, nil), 0.5)
}

func TestGBM_FixedSeedIsReproducible(t *testing.T) {
	t.Parallel()

	a, err := sim.NewGBM("gbm", newEnv(t, "a", 36, 0.2), nil)
	require.NoError(t, err)
	b, err := sim.NewGBM("gbm", newEnv(t, "b", 36, 0.2), nil)
	require.NoError(t, err)

	pa, err := a.Paths(true)
	require.NoError(t, err)
	pb, err := b.Paths(true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb))
}

func TestGBM_UpdateClearsPaths(t *testing.T) {
	t.Parallel()

	gbm, err := sim.NewGBM("gbm", newEnv(t, "me_gbm", 36, 0.2), nil)
	require.NoError(t, err)
	before, err := gbm.Paths(true)
	require.NoError(t, err)

	initial := 40.0
	gbm.Update(sim.Update{InitialValue: &initial})
	after, err := gbm.Paths(true)
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, 40.0, after.At(0, 0))
	assert.Equal(t, 40.0, gbm.InitialValue())

	final := date(2026, 6, 30)
	gbm.Update(sim.Update{FinalDate: &final})
	g, err := gbm.TimeGrid()
	require.NoError(t, err)
	assert.True(t, g[len(g)-1].Equal(final))
}

func TestAddSpecialDates_ExtendsGrid(t *testing.T) {
	t.Parallel()

	gbm, err := sim.NewGBM("gbm", newEnv(t, "me_gbm", 36, 0.2), nil)
	require.NoError(t, err)
	_, err = gbm.Paths(true)
	require.NoError(t, err)

	special := date(2025, 7, 15)
	gbm.AddSpecialDates(special)
	g, err := gbm.TimeGrid()
	require.NoError(t, err)
	_, ok := grid.IndexOf(g, special)
	assert.True(t, ok)

	paths, err := gbm.Paths(true)
	require.NoError(t, err)
	rows, _ := paths.Dims()
	assert.Equal(t, len(g), rows)
}

func TestJumpDiffusion_WithoutJumpsMatchesGBM(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "me_jd", 36, 0.2).
		AddConstant(market.KeyLambda, 0.0).
		AddConstant(market.KeyMu, -0.75).
		AddConstant(market.KeyDelta, 0.1)

	jd, err := sim.NewJumpDiffusion("jd", env, nil)
	require.NoError(t, err)
	gbm, err := sim.NewGBM("gbm", env, nil)
	require.NoError(t, err)

	pj, err := jd.Paths(true)
	require.NoError(t, err)
	pg, err := gbm.Paths(true)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(pj, pg, 1e-12))

	lambda := 0.3
	jd.Update(sim.Update{Lambda: &lambda})
	assert.Equal(t, 0.3, jd.Lambda())
	pj, err = jd.Paths(true)
	require.NoError(t, err)
	assert.False(t, mat.EqualApprox(pj, pg, 1e-12), "jumps must change the paths")
	assert.Equal(t, 36.0, pj.At(0, 0))
}

func TestSquareRootDiffusion_NonNegative(t *testing.T) {
	t.Parallel()

	for _, vol := range []float64{0.1, 1.5} {
		env := newEnv(t, "me_srd", 0.04, vol).
			AddConstant(market.KeyKappa, 3.0).
			AddConstant(market.KeyTheta, 0.04)
		srd, err := sim.NewSquareRootDiffusion("srd", env, nil)
		require.NoError(t, err)

		paths, err := srd.Paths(true)
		require.NoError(t, err)
		rows, _ := paths.Dims()
		assert.Equal(t, 0.04, paths.At(0, 0))
		for i := 0; i < rows; i++ {
			for _, v := range paths.RawRowView(i) {
				require.GreaterOrEqual(t, v, 0.0, "volatility %v", vol)
			}
		}
		if vol == 0.1 {
			assert.InDelta(t, 0.04, stat.Mean(mat.Row(nil, rows-1, paths), nil), 0.005)
		}
	}
}

func TestNew_DispatchesOnModel(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "env", 36, 0.2).
		AddConstant(market.KeyKappa, 3.0).
		AddConstant(market.KeyTheta, 0.04).
		AddConstant(market.KeyLambda, 0.3).
		AddConstant(market.KeyMu, -0.75).
		AddConstant(market.KeyDelta, 0.1)

	s, err := sim.New("gbm", "x", env, nil)
	require.NoError(t, err)
	assert.IsType(t, &sim.GBM{}, s)

	s, err = sim.New("jd", "x", env, nil)
	require.NoError(t, err)
	assert.IsType(t, &sim.JumpDiffusion{}, s)

	s, err = sim.New("srd", "x", env, nil)
	require.NoError(t, err)
	assert.IsType(t, &sim.SquareRootDiffusion{}, s)

	_, err = sim.New("heston", "x", env, nil)
	var cfgErr *market.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, market.KeyModel, cfgErr.Field)
}

func TestNewGBM_MissingKey(t *testing.T) {
	t.Parallel()

	env := market.NewEnvironment("empty", date(2025, 1, 1)).AddConstant(market.KeyInitialValue, 36.0)
	_, err := sim.NewGBM("gbm", env, nil)
	var missing *market.MissingKeyError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, market.KeyVolatility, missing.Key)
}

func TestCorrelation_CholeskyReproducesMatrix(t *testing.T) {
	t.Parallel()

	corr, err := sim.NewCorrelation(
		[]string{"a", "b", "c"},
		[]sim.Pair{{A: "a", B: "b", Rho: 0.5}, {A: "b", B: "c", Rho: -0.3}},
		4, 100, random.DefaultOptions(true),
	)
	require.NoError(t, err)

	var llt mat.Dense
	llt.Mul(corr.Cholesky(), corr.Cholesky().T())
	assert.True(t, mat.EqualApprox(&llt, corr.Matrix(), 1e-12))
	assert.Equal(t, 0.5, corr.Matrix().At(1, 0))
	assert.Equal(t, 0.0, corr.Matrix().At(0, 2))
}

func TestCorrelation_ClampsAndValidates(t *testing.T) {
	t.Parallel()

	corr, err := sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "b", Rho: 1}}, 2, 10, random.DefaultOptions(true))
	require.NoError(t, err)
	assert.Equal(t, 0.999999999999, corr.Matrix().At(0, 1))

	var cfgErr *market.ConfigurationError
	_, err = sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "z", Rho: 0.2}}, 2, 10, random.DefaultOptions(true))
	assert.True(t, errors.As(err, &cfgErr))
	_, err = sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "a", Rho: 0.2}}, 2, 10, random.DefaultOptions(true))
	assert.True(t, errors.As(err, &cfgErr))
	_, err = sim.NewCorrelation(nil, nil, 2, 10, random.DefaultOptions(true))
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCorrelation_DrawsAreCorrelated(t *testing.T) {
	t.Parallel()

	corr, err := sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "b", Rho: 0.5}}, 3, 20000, random.DefaultOptions(true))
	require.NoError(t, err)

	za, err := corr.Draw("a", 1)
	require.NoError(t, err)
	zb, err := corr.Draw("b", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, stat.Correlation(za, zb, nil), 0.03)

	_, err = corr.Draw("a", 3)
	assert.Error(t, err)
}

func TestCorrelatedGBM_PerfectCorrelationGivesSamePaths(t *testing.T) {
	t.Parallel()

	g, err := grid.Build(grid.Spec{Start: date(2025, 1, 1), End: date(2025, 12, 31), Frequency: "M"})
	require.NoError(t, err)
	corr, err := sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "b", Rho: 1.5}}, len(g), 500, random.DefaultOptions(true))
	require.NoError(t, err)

	build := func(name string) *mat.Dense {
		env := newEnv(t, "me_"+name, 36, 0.2).
			AddConstant(market.KeyPaths, 500).
			AddList(market.KeyTimeGrid, g)
		s, err := sim.NewGBM(name, env, corr)
		require.NoError(t, err)
		paths, err := s.Paths(true)
		require.NoError(t, err)
		return paths
	}
	a, b := build("a"), build("b")
	assert.True(t, mat.EqualApprox(a, b, 1e-3))

	_, err = sim.NewGBM("c", newEnv(t, "me_c", 36, 0.2).AddConstant(market.KeyPaths, 500), corr)
	var cfgErr *market.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr), "factor outside the structure")
}

func TestCorrelatedJumpDiffusion_IndependentJumps(t *testing.T) {
	t.Parallel()

	g, err := grid.Build(grid.Spec{Start: date(2025, 1, 1), End: date(2025, 12, 31), Frequency: "M"})
	require.NoError(t, err)
	corr, err := sim.NewCorrelation([]string{"a", "b"}, []sim.Pair{{A: "a", B: "b", Rho: 0}}, len(g), 2000, random.DefaultOptions(true))
	require.NoError(t, err)

	final := func(name string) []float64 {
		env := newEnv(t, "me_"+name, 36, 0).
			AddList(market.KeyTimeGrid, g).
			AddConstant(market.KeyLambda, 2.0).
			AddConstant(market.KeyMu, -0.2).
			AddConstant(market.KeyDelta, 0.1)
		s, err := sim.NewJumpDiffusion(name, env, corr)
		require.NoError(t, err)
		paths, err := s.Paths(true)
		require.NoError(t, err)
		rows, _ := paths.Dims()
		return mat.Row(nil, rows-1, paths)
	}
	a, b := final("a"), final("b")
	assert.NotEqual(t, a, b)
	assert.InDelta(t, 0, stat.Correlation(a, b, nil), 0.1)
}
