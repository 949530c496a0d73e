// Package portfolio values several derivative positions on a shared simulation.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/grid"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
	"github.com/meenmo/mcval/random"
	"github.com/meenmo/mcval/sim"
	"github.com/meenmo/mcval/utils"
	"github.com/meenmo/mcval/valuation"
)

// Asset is a risk factor: a model tag (gbm, jd, srd) and its market environment.
type Asset struct {
	Model       string
	Environment *market.Environment
}

// Options configures a portfolio.
type Options struct {
	// FixedSeed draws the shared random cube from the reproducible stream.
	FixedSeed bool
	// PV and Greeks are passed to every engine.
	PV     valuation.PVOptions
	Greeks valuation.GreekOptions
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Statistic is one row of Portfolio.Statistics. Err is set when the position could not be
// valued; the numeric fields are then zero.
type Statistic struct {
	RunID    string  `json:"run_id" msgpack:"run_id"`
	Name     string  `json:"name" msgpack:"name"`
	Quantity float64 `json:"quantity" msgpack:"quantity"`
	Value    float64 `json:"value" msgpack:"value"`
	Currency string  `json:"currency" msgpack:"currency"`
	PosValue float64 `json:"pos_value" msgpack:"pos_value"`
	PosDelta float64 `json:"pos_delta" msgpack:"pos_delta"`
	PosVega  float64 `json:"pos_vega" msgpack:"pos_vega"`
	Err      error   `json:"-" msgpack:"-"`
}

// Portfolio shares one time grid across all positions and, with correlations, one Cholesky
// factor and one random cube across all risk factors. Each risk factor is simulated once and
// the simulator is shared by every position written on it.
type Portfolio struct {
	name      string
	ids       []string
	positions map[string]Position
	env       *market.Environment
	timeGrid  []time.Time
	corr      *sim.Correlation

	factors     []string
	underlyings map[string]sim.Simulator
	engines     map[string]valuation.Engine

	opts Options
	log  zerolog.Logger
}

// New wires the simulators and engines of a portfolio.
//
// valEnv supplies the pricing date and the shared keys (paths, frequency, currency,
// discount_curve, final_date); it overrides colliding keys of the asset and position
// environments. The time grid spans the earliest pricing date to the latest of final_date and
// every maturity, which are all special dates.
func New(name string, positions map[string]Position, valEnv *market.Environment, assets map[string]Asset, correlations []sim.Pair, opts Options) (*Portfolio, error) {
	if len(positions) == 0 {
		return nil, market.Invalid("positions", "portfolio %q has no positions", name)
	}
	if valEnv == nil {
		return nil, market.Invalid("environment", "nil valuation environment for %q", name)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	p := &Portfolio{
		name:        name,
		positions:   make(map[string]Position, len(positions)),
		underlyings: make(map[string]sim.Simulator),
		engines:     make(map[string]valuation.Engine, len(positions)),
		opts:        opts,
		log:         log.With().Str("component", "portfolio").Str("portfolio", name).Logger(),
	}

	start := utils.Truncate(valEnv.PricingDate)
	end := start
	if valEnv.HasConstant(market.KeyFinalDate) {
		d, err := valEnv.Date(market.KeyFinalDate)
		if err != nil {
			return nil, err
		}
		end = utils.Truncate(d)
	}
	var special []time.Time
	used := make(map[string]bool)
	for id, pos := range positions {
		if pos.Environment == nil {
			return nil, market.Invalid("positions", "position %q has no market environment", id)
		}
		if _, ok := assets[pos.Underlying]; !ok {
			return nil, market.Invalid("positions", "position %q refers to unknown underlying %q", id, pos.Underlying)
		}
		maturity, err := pos.Environment.Date(market.KeyMaturity)
		if err != nil {
			return nil, fmt.Errorf("New %s: position %s: %w", name, id, err)
		}
		posStart := utils.Truncate(pos.Environment.PricingDate)
		if posStart.Before(start) {
			start = posStart
		}
		if maturity.After(end) {
			end = utils.Truncate(maturity)
		}
		special = append(special, maturity, posStart)
		used[pos.Underlying] = true
		p.positions[id] = pos
		p.ids = append(p.ids, id)
	}
	sort.Strings(p.ids)
	for f := range used {
		p.factors = append(p.factors, f)
	}
	sort.Strings(p.factors)

	cfg := config.GetConfig()
	freq := cfg.Frequency
	if valEnv.HasConstant(market.KeyFrequency) {
		f, err := valEnv.String(market.KeyFrequency)
		if err != nil {
			return nil, err
		}
		freq = f
	}
	paths := cfg.Paths
	if valEnv.HasConstant(market.KeyPaths) {
		n, err := valEnv.Int(market.KeyPaths)
		if err != nil {
			return nil, err
		}
		paths = n
	}

	var err error
	p.timeGrid, err = grid.Build(grid.Spec{Start: start, End: end, Frequency: freq, SpecialDates: special})
	if err != nil {
		return nil, fmt.Errorf("New %s: %w", name, err)
	}

	p.env = valEnv.Clone()
	p.env.PricingDate = start
	p.env.AddConstant(market.KeyStartingDate, start).
		AddConstant(market.KeyFinalDate, end).
		AddConstant(market.KeyFrequency, freq).
		AddConstant(market.KeyPaths, paths).
		AddList(market.KeyTimeGrid, p.timeGrid)

	if len(correlations) > 0 {
		p.corr, err = sim.NewCorrelation(p.factors, correlations, len(p.timeGrid), paths, random.DefaultOptions(opts.FixedSeed))
		if err != nil {
			return nil, fmt.Errorf("New %s: %w", name, err)
		}
	}

	for _, f := range p.factors {
		asset := assets[f]
		env := asset.Environment
		if env == nil {
			env = market.NewEnvironment(f, start)
		}
		env = env.Merge(p.env)
		env.PricingDate = start
		s, err := sim.New(asset.Model, f, env, p.corr,
			sim.WithLogger(p.log.With().Str("factor", f).Logger()))
		if err != nil {
			return nil, fmt.Errorf("New %s: underlying %s: %w", name, f, err)
		}
		p.underlyings[f] = s
	}

	for _, id := range p.ids {
		pos := p.positions[id]
		env := pos.Environment.Merge(p.env)
		env.PricingDate = pos.Environment.PricingDate
		e, err := valuation.New(pos.Exercise, pos.Name, p.underlyings[pos.Underlying], env, pos.Payoff,
			valuation.WithLogger(p.log.With().Str("position", id).Logger()))
		if err != nil {
			return nil, fmt.Errorf("New %s: position %s: %w", name, id, err)
		}
		p.engines[id] = e
	}

	p.log.Debug().
		Int("positions", len(p.ids)).
		Strs("factors", p.factors).
		Int("dates", len(p.timeGrid)).
		Int("paths", paths).
		Bool("correlated", p.corr != nil).
		Msg("portfolio built")
	return p, nil
}

// Statistics values every position. A position that fails is reported with Err set while
// the remaining positions are still valued.
func (p *Portfolio) Statistics(fixedSeed bool) ([]Statistic, error) {
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()

	pvOpts := p.opts.PV
	pvOpts.FixedSeed = fixedSeed

	out := make([]Statistic, 0, len(p.ids))
	failed := 0
	for _, id := range p.ids {
		pos := p.positions[id]
		e := p.engines[id]
		row := Statistic{RunID: runID, Name: pos.Name, Quantity: pos.Quantity, Currency: e.Currency()}

		res, err := valuation.Summarize(e, pvOpts, p.opts.Greeks)
		if err != nil {
			failed++
			row.Err = err
			ev := log.Warn().Err(err).Str("position", id)
			var evalErr *payoff.EvaluationError
			if errors.As(err, &evalErr) {
				ev = ev.Str("rule", evalErr.Rule)
			}
			ev.Msg("position not valued")
			out = append(out, row)
			continue
		}
		row.Value = res.PresentValue
		row.PosValue = res.PresentValue * pos.Quantity
		row.PosDelta = res.Delta * pos.Quantity
		row.PosVega = res.Vega * pos.Quantity
		out = append(out, row)
	}

	log.Info().Int("positions", len(out)).Int("failed", failed).Msg("portfolio statistics")
	return out, nil
}

// Name of the portfolio.
func (p *Portfolio) Name() string { return p.name }

// Positions lists positions in id order.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, p.positions[id])
	}
	return out
}

// Underlyings lists the shared simulators in factor order.
func (p *Portfolio) Underlyings() []sim.Simulator {
	out := make([]sim.Simulator, 0, len(p.factors))
	for _, f := range p.factors {
		out = append(out, p.underlyings[f])
	}
	return out
}

// Engine returns the valuation engine of a position.
func (p *Portfolio) Engine(id string) (valuation.Engine, bool) {
	e, ok := p.engines[id]
	return e, ok
}

// Correlation is nil for an uncorrelated portfolio.
func (p *Portfolio) Correlation() *sim.Correlation { return p.corr }

// TimeGrid is the grid shared by every simulator.
func (p *Portfolio) TimeGrid() []time.Time { return p.timeGrid }
