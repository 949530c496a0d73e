package valuation

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
	"github.com/meenmo/mcval/sim"
)

// AmericanLSM values early-exercise options with the Longstaff-Schwartz least-squares method.
//
// Walking the grid backwards from maturity, the discounted value of holding is regressed on
// the underlying's value with a polynomial of degree BasisFunctions. A path exercises when its
// intrinsic value is positive and exceeds the fitted continuation value. The result is never
// below the hold-to-maturity value on the same paths.
type AmericanLSM struct {
	*engine
}

// NewAmerican builds an American engine. env needs the same keys as NewEuropean.
func NewAmerican(name string, underlying sim.Simulator, env *market.Environment, p payoff.Payoff, opts ...Option) (*AmericanLSM, error) {
	e, err := newEngine(name, underlying, env, p, opts)
	if err != nil {
		return nil, err
	}
	v := &AmericanLSM{engine: e}
	e.value = v.generate
	return v, nil
}

func (v *AmericanLSM) Delta(opts GreekOptions) (float64, error) { return delta(v.engine, opts) }
func (v *AmericanLSM) Vega(opts GreekOptions) (float64, error)  { return vega(v.engine, opts) }

func (v *AmericanLSM) generate(opts PVOptions) (float64, []float64, error) {
	w, err := v.pathsUntilMaturity(opts.FixedSeed)
	if err != nil {
		return 0, nil, err
	}
	degree := opts.BasisFunctions
	if degree <= 0 {
		degree = config.GetConfig().BasisFunctions
	}

	values, err := v.backward(w, degree)
	if err != nil {
		return 0, nil, err
	}
	lsm := mean(values)

	european, err := europeanFlows(v.engine, w)
	if err != nil {
		return 0, nil, err
	}
	if eu := mean(european); eu > lsm {
		return eu, european, nil
	}
	return lsm, values, nil
}

// backward runs the Longstaff-Schwartz induction over w and returns the discounted path-wise
// cash flows before the European floor.
func (v *AmericanLSM) backward(w pathWindow, degree int) ([]float64, error) {
	instrument := w.matrix()
	dates := w.window()
	intrinsic, err := payoff.Intrinsic(v.payoff, instrument, v.strike)
	if err != nil {
		return nil, err
	}

	rows, cols := instrument.Dims()
	values := make([]float64, cols)
	copy(values, intrinsic.RawRowView(rows-1))
	if rows == 1 {
		return values, nil
	}

	held := make([]float64, cols)
	for t := rows - 2; t > 0; t-- {
		df := v.curve.DiscountFactor(dates[t], dates[t+1])
		for p := range values {
			held[p] = values[p] * df
		}
		continuation := regress(instrument.RawRowView(t), held, degree)
		exercise := intrinsic.RawRowView(t)
		for p := range values {
			if exercise[p] > 0 && exercise[p] > continuation[p] {
				values[p] = exercise[p]
			} else {
				values[p] = held[p]
			}
		}
	}
	df := v.curve.DiscountFactor(dates[0], dates[1])
	for p := range values {
		values[p] *= df
	}
	return values, nil
}

// regress fits y on a polynomial in the standardised x and returns the fitted values. When
// the fit is unusable the continuation is taken as infinite so no path exercises.
func regress(x, y []float64, degree int) []float64 {
	n := len(x)
	fitted := make([]float64, n)

	mu, sd := stat.MeanStdDev(x, nil)
	if sd == 0 || math.IsNaN(sd) {
		c := stat.Mean(y, nil)
		for i := range fitted {
			fitted[i] = c
		}
		return fitted
	}
	if degree > n-1 {
		degree = n - 1
	}

	a := mat.NewDense(n, degree+1, nil)
	for i, xi := range x {
		u := (xi - mu) / sd
		pow := 1.0
		for k := 0; k <= degree; k++ {
			a.Set(i, k, pow)
			pow *= u
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return unusable(fitted)
		}
	}
	var fit mat.VecDense
	fit.MulVec(a, &beta)
	for i := range fitted {
		fitted[i] = fit.AtVec(i)
		if math.IsNaN(fitted[i]) || math.IsInf(fitted[i], 0) {
			return unusable(fitted)
		}
	}
	return fitted
}

func unusable(fitted []float64) []float64 {
	for i := range fitted {
		fitted[i] = math.Inf(1)
	}
	return fitted
}
