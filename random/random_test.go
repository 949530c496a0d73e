package random_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/random"
)

func flatten(c random.Cube) []float64 {
	var out []float64
	for _, m := range c {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			out = append(out, mat.Row(nil, i, m)...)
		}
	}
	return out
}

func TestStandardNormal_MomentMatching(t *testing.T) {
	t.Parallel()

	for _, antithetic := range []bool{true, false} {
		cube, err := random.StandardNormal(
			random.Shape{Factors: 2, Dates: 5, Paths: 101},
			random.Options{Antithetic: antithetic, MomentMatching: true, FixedSeed: true, Seed: 1000},
		)
		require.NoError(t, err)

		mean, std := stat.PopMeanStdDev(flatten(cube), nil)
		assert.InDelta(t, 0.0, mean, 1e-12)
		assert.InDelta(t, 1.0, std, 1e-12)
	}
}

func TestStandardNormal_AntitheticMirror(t *testing.T) {
	t.Parallel()

	const paths = 50
	cube, err := random.StandardNormal(
		random.Shape{Factors: 3, Dates: 4, Paths: paths},
		random.Options{Antithetic: true, MomentMatching: true, FixedSeed: true, Seed: 7},
	)
	require.NoError(t, err)

	for f, m := range cube {
		for d := 0; d < 4; d++ {
			for p := 0; p < paths/2; p++ {
				assert.Equal(t, -m.At(d, p), m.At(d, p+paths/2), "factor %d date %d path %d", f, d, p)
			}
		}
	}
}

func TestStandardNormal_FixedSeedIsReproducible(t *testing.T) {
	t.Parallel()

	opts := random.Options{Antithetic: true, MomentMatching: true, FixedSeed: true, Seed: 1000}
	a, err := random.StandardNormalMatrix(10, 20, opts)
	require.NoError(t, err)
	b, err := random.StandardNormalMatrix(10, 20, opts)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))

	c, err := random.StandardNormalStream(random.Shape{Factors: 1, Dates: 10, Paths: 20}, opts, 1)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a, c.Matrix()), "streams must differ")

	opts.FixedSeed = false
	d, err := random.StandardNormalMatrix(10, 20, opts)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a, d))
}

func TestStandardNormal_SingleFactorReducedShape(t *testing.T) {
	t.Parallel()

	cube, err := random.StandardNormal(random.Shape{Factors: 1, Dates: 3, Paths: 8}, random.DefaultOptions(true))
	require.NoError(t, err)
	require.NotNil(t, cube.Matrix())
	r, c := cube.Matrix().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 8, c)

	multi, err := random.StandardNormal(random.Shape{Factors: 2, Dates: 3, Paths: 8}, random.DefaultOptions(true))
	require.NoError(t, err)
	assert.Nil(t, multi.Matrix())
	assert.Equal(t, random.Shape{Factors: 2, Dates: 3, Paths: 8}, multi.Shape())
}

func TestStandardNormal_InvalidShape(t *testing.T) {
	t.Parallel()

	_, err := random.StandardNormal(random.Shape{Factors: 1, Dates: 0, Paths: 8}, random.DefaultOptions(true))
	var cfgErr *market.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
