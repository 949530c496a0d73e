// Package valuation prices derivatives on simulated paths and derives their sensitivities.
package valuation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
	"github.com/meenmo/mcval/sim"
	"github.com/meenmo/mcval/utils"
)

// Exercise styles accepted by New.
const (
	European = "European"
	American = "American"
)

// Engine values one derivative on one underlying simulator.
type Engine interface {
	Name() string
	PresentValue(opts PVOptions) (float64, error)
	PresentValueFull(opts PVOptions) (float64, []float64, error)
	Delta(opts GreekOptions) (float64, error)
	Vega(opts GreekOptions) (float64, error)
	Update(u Update) error
	Currency() string
	Underlying() sim.Simulator
}

// PVOptions controls a present-value computation. Zero values select the active configuration.
type PVOptions struct {
	// Accuracy is the number of decimals the result is rounded to.
	Accuracy int
	// FixedSeed requests the reproducible random stream.
	FixedSeed bool
	// BasisFunctions is the regression degree of early-exercise engines.
	BasisFunctions int
}

// Update carries the parameters to change. Nil fields are left as they are.
type Update struct {
	InitialValue *float64
	Volatility   *float64
	Strike       *float64
	Maturity     *time.Time
}

// MaturityNotFoundError is returned when the maturity is not a date of the underlying's grid.
type MaturityNotFoundError struct {
	Maturity   time.Time
	Underlying string
}

func (e *MaturityNotFoundError) Error() string {
	return fmt.Sprintf("maturity %s not in time grid of underlying %q",
		e.Maturity.Format(utils.DateLayout), e.Underlying)
}

// Option configures an engine.
type Option func(*engine)

// WithLogger sets the logger used for valuation diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *engine) { e.log = l }
}

// New builds the engine for an exercise style (European or American).
func New(exercise, name string, underlying sim.Simulator, env *market.Environment, p payoff.Payoff, opts ...Option) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(exercise)) {
	case "european", "":
		return NewEuropean(name, underlying, env, p, opts...)
	case "american":
		return NewAmerican(name, underlying, env, p, opts...)
	default:
		return nil, market.Invalid("exercise", "unknown exercise type %q", exercise)
	}
}

// valuer returns the unrounded present value and the discounted path-wise cash flows.
type valuer func(opts PVOptions) (float64, []float64, error)

type engine struct {
	name        string
	pricingDate time.Time
	maturity    time.Time
	strike      float64
	currency    string
	underlying  sim.Simulator
	curve       market.DiscountCurve
	payoff      payoff.Payoff
	value       valuer
	log         zerolog.Logger
}

func newEngine(name string, underlying sim.Simulator, env *market.Environment, p payoff.Payoff, opts []Option) (*engine, error) {
	if underlying == nil {
		return nil, market.Invalid("underlying", "nil underlying for %q", name)
	}
	if env == nil {
		return nil, market.Invalid("environment", "nil market environment for %q", name)
	}
	if p == nil {
		return nil, market.Invalid("payoff", "nil payoff for %q", name)
	}
	e := &engine{
		name:        name,
		pricingDate: utils.Truncate(env.PricingDate),
		underlying:  underlying,
		payoff:      p,
		log:         zerolog.Nop(),
	}

	var err error
	if e.maturity, err = env.Date(market.KeyMaturity); err != nil {
		return nil, err
	}
	e.maturity = utils.Truncate(e.maturity)
	if e.maturity.Before(e.pricingDate) {
		return nil, market.Invalid(market.KeyMaturity, "maturity %s before pricing date %s",
			e.maturity.Format(utils.DateLayout), e.pricingDate.Format(utils.DateLayout))
	}
	if e.currency, err = env.String(market.KeyCurrency); err != nil {
		return nil, err
	}
	if env.HasConstant(market.KeyStrike) {
		if e.strike, err = env.Float(market.KeyStrike); err != nil {
			return nil, err
		}
	}
	if e.curve, err = env.Curve(market.KeyDiscountCurve); err != nil {
		e.curve = underlying.DiscountCurve()
	}
	if e.curve == nil {
		return nil, &market.MissingKeyError{Environment: env.Name, Kind: "curve", Key: market.KeyDiscountCurve}
	}

	for _, o := range opts {
		o(e)
	}
	underlying.AddSpecialDates(e.pricingDate, e.maturity)
	return e, nil
}

func (e *engine) Name() string              { return e.name }
func (e *engine) Currency() string          { return e.currency }
func (e *engine) Underlying() sim.Simulator { return e.underlying }
func (e *engine) Maturity() time.Time       { return e.maturity }
func (e *engine) Strike() float64           { return e.strike }
func (e *engine) Payoff() payoff.Payoff     { return e.payoff }

// PresentValue returns the present value rounded to opts.Accuracy decimals.
func (e *engine) PresentValue(opts PVOptions) (float64, error) {
	pv, _, err := e.PresentValueFull(opts)
	return pv, err
}

// PresentValueFull also returns the discounted cash flow of every path.
func (e *engine) PresentValueFull(opts PVOptions) (float64, []float64, error) {
	start := time.Now()
	pv, flows, err := e.value(opts)
	if err != nil {
		return 0, nil, fmt.Errorf("PresentValue %s: %w", e.name, err)
	}
	accuracy := opts.Accuracy
	if accuracy <= 0 {
		accuracy = int(config.GetConfig().PVAccuracy)
	}
	e.log.Debug().
		Str("instrument", e.name).
		Str("underlying", e.underlying.Name()).
		Float64("pv", pv).
		Int("paths", len(flows)).
		Dur("elapsed", time.Since(start)).
		Msg("present value")
	return utils.RoundTo(pv, uint32(accuracy)), flows, nil
}

// Update changes engine and underlying parameters.
func (e *engine) Update(u Update) error {
	if u.Volatility != nil && (*u.Volatility < 0 || math.IsNaN(*u.Volatility)) {
		return market.Invalid(market.KeyVolatility, "volatility must be non-negative, got %v", *u.Volatility)
	}
	if u.Maturity != nil {
		m := utils.Truncate(*u.Maturity)
		if m.Before(e.pricingDate) {
			return market.Invalid(market.KeyMaturity, "maturity %s before pricing date %s",
				m.Format(utils.DateLayout), e.pricingDate.Format(utils.DateLayout))
		}
		e.maturity = m
		e.underlying.AddSpecialDates(m)
	}
	if u.Strike != nil {
		e.strike = *u.Strike
	}
	if u.InitialValue != nil || u.Volatility != nil || u.Maturity != nil {
		e.underlying.Update(sim.Update{InitialValue: u.InitialValue, Volatility: u.Volatility})
	}
	return nil
}

// pathsUntilMaturity returns the path rows from the pricing date to maturity with their dates.
func (e *engine) pathsUntilMaturity(fixedSeed bool) (pathWindow, error) {
	paths, err := e.underlying.Paths(fixedSeed)
	if err != nil {
		return pathWindow{}, err
	}
	g, err := e.underlying.TimeGrid()
	if err != nil {
		return pathWindow{}, err
	}
	end, ok := utils.IndexOfDate(g, e.maturity)
	if !ok {
		return pathWindow{}, &MaturityNotFoundError{Maturity: e.maturity, Underlying: e.underlying.Name()}
	}
	begin, ok := utils.IndexOfDate(g, e.pricingDate)
	if !ok || begin > end {
		// the pricing date precedes the simulation start
		begin = 0
	}
	return pathWindow{all: paths, dates: g, begin: begin, end: end}, nil
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}
