package valuation

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
	"github.com/meenmo/mcval/sim"
)

// EuropeanMC values a payoff received at maturity as the discounted average over paths.
type EuropeanMC struct {
	*engine
}

// NewEuropean builds a European engine. env needs maturity and currency, optionally strike
// and discount_curve (defaulting to the underlying's curve).
func NewEuropean(name string, underlying sim.Simulator, env *market.Environment, p payoff.Payoff, opts ...Option) (*EuropeanMC, error) {
	e, err := newEngine(name, underlying, env, p, opts)
	if err != nil {
		return nil, err
	}
	v := &EuropeanMC{engine: e}
	e.value = v.generate
	return v, nil
}

// Delta is the forward-difference sensitivity to the underlying's initial value.
func (v *EuropeanMC) Delta(opts GreekOptions) (float64, error) { return delta(v.engine, opts) }

// Vega is the forward-difference sensitivity to the underlying's volatility.
func (v *EuropeanMC) Vega(opts GreekOptions) (float64, error) { return vega(v.engine, opts) }

func (v *EuropeanMC) generate(opts PVOptions) (float64, []float64, error) {
	w, err := v.pathsUntilMaturity(opts.FixedSeed)
	if err != nil {
		return 0, nil, err
	}
	flows, err := europeanFlows(v.engine, w)
	if err != nil {
		return 0, nil, err
	}
	return mean(flows), flows, nil
}

// europeanFlows discounts the payoff at the last window row back to the pricing date.
func europeanFlows(e *engine, w pathWindow) ([]float64, error) {
	m := w.matrix()
	rows, _ := m.Dims()
	cash, err := payoff.AtMaturity(e.payoff, m, rows-1, e.strike)
	if err != nil {
		return nil, err
	}
	df := e.curve.DiscountFactor(e.pricingDate, e.maturity)
	for i := range cash {
		cash[i] *= df
	}
	return cash, nil
}

// pathWindow is the slice of a path matrix between the pricing date and maturity rows.
type pathWindow struct {
	all   *mat.Dense
	dates []time.Time
	begin int
	end   int
}

func (w pathWindow) matrix() *mat.Dense {
	_, cols := w.all.Dims()
	return w.all.Slice(w.begin, w.end+1, 0, cols).(*mat.Dense)
}

func (w pathWindow) window() []time.Time {
	return w.dates[w.begin : w.end+1]
}
