package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/random"
)

// Pair is one off-diagonal entry of a correlation matrix.
type Pair struct {
	A, B string
	Rho  float64
}

// Correlation ties several risk factors to one random cube through the lower Cholesky factor
// of their correlation matrix. It is read-only after construction and may be shared by every
// simulator of a portfolio.
type Correlation struct {
	factors  []string
	index    map[string]int
	matrix   *mat.SymDense
	cholesky *mat.TriDense
	cube     random.Cube
}

// NewCorrelation builds the correlation matrix of factors from pairs, factorises it and draws
// one standard normal cube of shape (len(factors), dates, paths).
//
// Factors not mentioned in any pair are uncorrelated with the rest. Correlations at or beyond
// +/-1 are clamped to +/-config.MaxCorrelation.
func NewCorrelation(factors []string, pairs []Pair, dates, paths int, opts random.Options) (*Correlation, error) {
	if len(factors) == 0 {
		return nil, market.Invalid("correlations", "no risk factors")
	}
	index := make(map[string]int, len(factors))
	for i, f := range factors {
		if _, dup := index[f]; dup {
			return nil, market.Invalid("correlations", "duplicate risk factor %q", f)
		}
		index[f] = i
	}

	n := len(factors)
	limit := config.GetConfig().MaxCorrelation
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	for _, p := range pairs {
		i, ok := index[p.A]
		if !ok {
			return nil, market.Invalid("correlations", "unknown risk factor %q", p.A)
		}
		j, ok := index[p.B]
		if !ok {
			return nil, market.Invalid("correlations", "unknown risk factor %q", p.B)
		}
		if i == j {
			return nil, market.Invalid("correlations", "self correlation for %q", p.A)
		}
		if math.IsNaN(p.Rho) {
			return nil, market.Invalid("correlations", "correlation %s/%s is NaN", p.A, p.B)
		}
		m.SetSym(i, j, math.Max(-limit, math.Min(limit, p.Rho)))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok {
		return nil, market.Invalid("correlations", "matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)

	cube, err := random.StandardNormal(random.Shape{Factors: n, Dates: dates, Paths: paths}, opts)
	if err != nil {
		return nil, fmt.Errorf("NewCorrelation: %w", err)
	}

	return &Correlation{
		factors:  append([]string(nil), factors...),
		index:    index,
		matrix:   m,
		cholesky: &l,
		cube:     cube,
	}, nil
}

// Factors returns the factor names in matrix order.
func (c *Correlation) Factors() []string { return append([]string(nil), c.factors...) }

// Index returns the matrix position of factor.
func (c *Correlation) Index(factor string) (int, bool) {
	i, ok := c.index[factor]
	return i, ok
}

// Matrix returns the (clamped) correlation matrix.
func (c *Correlation) Matrix() mat.Symmetric { return c.matrix }

// Cholesky returns the lower triangular factor L with L*Lᵀ equal to Matrix.
func (c *Correlation) Cholesky() mat.Triangular { return c.cholesky }

// Shape is the extent of the shared random cube.
func (c *Correlation) Shape() random.Shape { return c.cube.Shape() }

// Draw returns the correlated normals of factor at grid row t, the factor's row of
// L * cube[:, t, :].
func (c *Correlation) Draw(factor string, t int) ([]float64, error) {
	i, ok := c.index[factor]
	if !ok {
		return nil, market.Invalid("correlations", "unknown risk factor %q", factor)
	}
	shape := c.cube.Shape()
	if t < 0 || t >= shape.Dates {
		return nil, market.Invalid("correlations", "row %d outside random cube of %d dates", t, shape.Dates)
	}
	out := make([]float64, shape.Paths)
	for j := 0; j <= i; j++ {
		if w := c.cholesky.At(i, j); w != 0 {
			floats.AddScaled(out, w, c.cube[j].RawRowView(t))
		}
	}
	return out, nil
}
